// Package searxng is a client for the SearxNG JSON search API.
package searxng
