// Package main provides the entry point for the onioncrawl CLI.
//
// onioncrawl is a polite, resumable crawler for Tor hidden services
// (.onion addresses). It records every discovered URL in a durable
// frontier database so an interrupted crawl can pick up where it left off.
//
// Usage:
//
//	onioncrawl crawl <seed-url>
//	onioncrawl resume
//	onioncrawl status
//
// See --help for all available options.
package main

// main is the entry point for onioncrawl.
func main() {
	Execute()
}
