// Package stats computes the descriptive summaries printed by the reporter.
//
// Every function is pure: it reads a *dataset.Dataset and returns plain
// values, so callers decide how to render them.
//
// Describe follows the usual data-frame conventions: sample standard
// deviation (n-1) and quantiles interpolated linearly between order
// statistics. Correlation is Pearson over pairwise-complete rows; a pair
// with fewer than two shared observations or zero variance yields NaN.
package stats
