package stream

import (
	"encoding/json"
	"fmt"
)

// ConnectedMessage is sent once immediately after the upgrade.
type ConnectedMessage struct {
	Type string `json:"type"`
}

// ErrorMessage covers both recoverable per-chunk problems and the terminal
// error sent before an unrecoverable close.
type ErrorMessage struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

// ControlMessage is a client JSON text frame. Only end_stream is recognised;
// unknown types are ignored by the controller.
type ControlMessage struct {
	Type string `json:"type"`
}

const controlEndStream = "end_stream"

// ParseControl decodes a text frame into a control message.
func ParseControl(data []byte) (ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ControlMessage{}, fmt.Errorf("malformed control message: %w", err)
	}
	if msg.Type == "" {
		return ControlMessage{}, fmt.Errorf("control message missing type field")
	}
	return msg, nil
}

func newConnectedMessage() ConnectedMessage {
	return ConnectedMessage{Type: "connected"}
}

func newErrorMessage(detail string) ErrorMessage {
	return ErrorMessage{Type: "error", Detail: detail}
}
