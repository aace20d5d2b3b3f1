package domain

import "encoding/json"

type MessageType string

const (
	MessageInitialData MessageType = "initial_data"
	MessageUpdateTeam  MessageType = "update_team"
	MessageError       MessageType = "error"
)

// InboundMessage is a frame received from a controller on the live connection.
type InboundMessage struct {
	Type MessageType     `json:"type"`
	Team string          `json:"team"`
	Data json.RawMessage `json:"data"`
}

type TeamUpdateMessage struct {
	Type MessageType `json:"type"`
	Team TeamID      `json:"team"`
	Data Team        `json:"data"`
}

type ErrorMessage struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
