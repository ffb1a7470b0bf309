// Package main provides the surveybuild command.
//
// surveybuild exports every survey submission from the feature service into
// data/raw-survey.csv and then runs the downstream processor on it.
//
// Usage:
//
//	surveybuild
//	surveybuild --where 1=1 --skip-process
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
