// Package report runs the exploratory analysis of one CSV file.
//
// Runner.Run executes a fixed sequence of steps and prints a console
// section for each:
//
//	Load → Overview → Summary statistics → Numerical distribution →
//	Categorical distribution → Correlation → Missing values → Outliers
//
// A load failure is printed as "Error loading data: <err>" and ends the run;
// no later step sees a nil dataset. Chart steps write PNG files through
// package plot when plotting is enabled and print the paths they wrote.
package report
