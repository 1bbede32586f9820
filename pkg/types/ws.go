package types

import "encoding/json"

// WSMessageType defines WebSocket message types for master-worker communication.
type WSMessageType string

const (
	// Master -> Worker
	WSMsgRegisterAck WSMessageType = "register_ack"
	WSMsgWork        WSMessageType = "work"
	WSMsgTerminate   WSMessageType = "terminate"

	// Worker -> Master
	WSMsgRegister WSMessageType = "register"
	WSMsgResult   WSMessageType = "result"
)

// WSMessage is the unified envelope for all WebSocket messages.
type WSMessage struct {
	Type WSMessageType   `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WorkerRegisterRequest is the first message a worker sends after dialing.
type WorkerRegisterRequest struct {
	WorkerID string `json:"worker_id"`
	Hostname string `json:"hostname,omitempty"`
	Version  string `json:"version,omitempty"`
}

// WorkerRegisterResponse answers a registration.
type WorkerRegisterResponse struct {
	Accepted   bool     `json:"accepted"`
	AssignedID string   `json:"assigned_id,omitempty"`
	Job        *JobSpec `json:"job,omitempty"`
	Error      string   `json:"error,omitempty"`
}
