// Package http implements the plain HTTP endpoints of the relay:
// the viewer page, its static assets, health and metrics.
//
// Pages and assets are gzip-compressed when the client accepts it.
package http
