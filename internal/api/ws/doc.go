// Package ws serves the live terminal stream over WebSocket.
//
// Each connection becomes a relay client: it is joined to the broadcaster
// (receiving the replay buffer first), gets its own bounded queue and write
// pump, and has its inbound frames passed to the relay's input hook.
// Outbound frames are binary and carry raw terminal bytes.
package ws
