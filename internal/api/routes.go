package api

import (
	"net/http"
)

// Routes wires all handlers onto a ServeMux. The metrics endpoint is
// registered by the caller so it can bypass the middleware chain.
type Routes struct {
	Discovery    *DiscoveryHandlers
	Businesses   *BusinessHandlers
	ReviewEvents *ReviewEventHandlers
	Admin        *AdminHandlers
	Health       *HealthHandlers
}

// Register attaches all routes to the mux.
func (rt *Routes) Register(mux *http.ServeMux) {
	mux.HandleFunc("/discovery/top-rated", rt.Discovery.TopRated)
	mux.HandleFunc("/discovery/trending", rt.Discovery.Trending)
	mux.HandleFunc("/discovery/new", rt.Discovery.New)
	mux.HandleFunc("/discovery/quality", rt.Discovery.Quality)

	mux.Handle("/businesses/", rt.Businesses)

	mux.HandleFunc("/internal/reviews/changed", rt.ReviewEvents.ReviewChanged)
	mux.HandleFunc("/admin/refresh", rt.Admin.Refresh)

	mux.HandleFunc("/health", rt.Health.Health)
	mux.HandleFunc("/ready", rt.Health.Ready)
}
