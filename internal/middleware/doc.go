// Package middleware provides gin middleware shared across routes,
// notably the required and optional JWT auth checks.
package middleware
