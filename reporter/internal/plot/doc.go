// Package plot renders the reporter's charts as PNG files with gonum/plot.
//
// A Renderer owns an output directory. Each method draws one kind of chart
// and returns the paths it wrote. Methods return ErrNoData when there is
// nothing to draw, so callers can log the skip and carry on.
package plot
