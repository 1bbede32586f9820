// Package ws carries assignments and results between a master and remote
// workers over WebSocket.
//
// The master side is a fiber app whose Hub implements the scheduler's
// transport. The worker side is a gorilla/websocket Client implementing the
// worker's connection. Every frame is a types.WSMessage envelope.
package ws
