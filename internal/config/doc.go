// Package config provides configuration structures and utilities for privacyscan.
// It defines the crawl backend and transport settings, the retry policy of the
// job orchestrator, the referrer-policy rating table, and report preferences.
package config
