// Package main implements the strata command line interface.
package main

func main() {
	Execute()
}
