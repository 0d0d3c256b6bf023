// Package middleware provides the HTTP middleware for the relay server.
//
// Middleware stack includes:
//   - RequestLog: request IDs and debug-level access logging
//   - NoCache: disables caching on every response
//   - CORS: cross-origin access for viewers served from elsewhere
//   - RateLimit: per-IP token bucket, applied to WebSocket upgrades
//
// Example Usage:
//
//	router.Use(middleware.NoCache(), middleware.CORS(middleware.DefaultCORSConfig()))
//	router.GET("/ws", middleware.RateLimit(middleware.DefaultRateLimitConfig()), handler)
package middleware
