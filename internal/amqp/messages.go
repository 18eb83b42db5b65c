package amqp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"donations/internal/core"
)

// SelectionMessage is the wire form of a core.SelectionEvent.
type SelectionMessage struct {
	core.SelectionEvent
	Version int `json:"version"`
}

const messageVersion = 1

func NewSelectionMessage(ev core.SelectionEvent) *SelectionMessage {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return &SelectionMessage{SelectionEvent: ev, Version: messageVersion}
}

func (m *SelectionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate rejects messages the tally worker cannot attribute.
func (m *SelectionMessage) Validate() error {
	if strings.TrimSpace(m.School) == "" {
		return fmt.Errorf("%w: missing school", core.ErrMalformedEvent)
	}
	if strings.TrimSpace(m.Kind) == "" {
		return fmt.Errorf("%w: missing kind", core.ErrMalformedEvent)
	}
	if m.Version != messageVersion {
		return fmt.Errorf("%w: unsupported version %d", core.ErrMalformedEvent, m.Version)
	}
	return nil
}

func SelectionMessageFromJSON(data []byte) (*SelectionMessage, error) {
	var msg SelectionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedEvent, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
