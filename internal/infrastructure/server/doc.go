// Package server wires the relay into a gin router and runs it.
//
// Routes:
//   - GET /         viewer page
//   - GET /ws       live terminal stream (rate limited per IP)
//   - GET /static/* client assets
//   - GET /health   relay status as JSON
//   - GET /metrics  Prometheus exposition
//
// Every response disables caching.
package server
