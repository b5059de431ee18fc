// Package ranking builds the four ranked discovery sets (top rated,
// trending, new and notable, quality fallback) from a coherent snapshot of
// businesses, their derived stats, and recent review activity.
//
// Each set is rebuilt wholesale and swapped in atomically; readers always
// see the last fully-built snapshot. Scoring weights default to calibrated
// values and may be partially overridden from a JSON calibration file.
package ranking
