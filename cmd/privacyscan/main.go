// Package main provides the entry point for the privacyscan CLI.
//
// privacyscan asks a headless-browser crawl backend to load a web page and
// reports which cookies and requests go to third parties, which requests
// travel over plain HTTP, and whether the page protects its URLs with a
// referrer policy.
//
// Usage:
//
//	privacyscan scan <url>...
//	privacyscan analyze <payload.json>
//	privacyscan show [url]
//
// See --help for all available options.
package main

// main is the entry point for privacyscan.
func main() {
	Execute()
}
