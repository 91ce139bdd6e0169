// Package main is the samepagectl command line client for samepaged.
package main

func main() {
	execute()
}
