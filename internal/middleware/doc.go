// Package middleware wraps the gifforge HTTP stack with the cross-cutting
// request plumbing: W3C Extended Log Format access logging with injection
// hardening, gzip compression that leaves GIF and ZIP payloads alone, and
// Prometheus request metrics whose path labels are folded to keep
// cardinality bounded. Each middleware takes a config struct and returns a
// func(http.Handler) http.Handler, so main composes them in one chain.
package middleware
