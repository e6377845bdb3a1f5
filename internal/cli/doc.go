// Package cli renders jams for terminal consumption.
//
// The renderers are plain io.Writer helpers so commands stay thin and the
// formatting stays unit-testable: an aligned table and a JSON array for
// list output, and a full-record view with the description converted from
// HTML to readable text.
package cli
