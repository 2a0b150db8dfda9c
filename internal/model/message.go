package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type MessageKind string

const (
	MessageKindUser      = MessageKind("user")
	MessageKindAssistant = MessageKind("assistant")
)

var (
	ErrCorruptHistory = errors.New("corrupt history snapshot")
)

type Message struct {
	Kind      MessageKind `json:"type"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"timestamp"`
	ID        string      `json:"id"`
}

func (k MessageKind) Valid() bool {
	return k == MessageKindUser || k == MessageKindAssistant
}

// EncodeMessages renders a history snapshot. Storage keeps the compact form,
// exports use the indented one.
func EncodeMessages(messages []Message, pretty bool) ([]byte, error) {
	if messages == nil {
		messages = make([]Message, 0)
	}
	if pretty {
		return json.MarshalIndent(messages, "", "  ")
	}
	return json.Marshal(messages)
}

func DecodeMessages(raw []byte) ([]Message, error) {
	var messages []Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptHistory, err)
	}
	if messages == nil {
		return nil, fmt.Errorf("%w: snapshot is not an array", ErrCorruptHistory)
	}
	for i, msg := range messages {
		if !msg.Kind.Valid() {
			return nil, fmt.Errorf("%w: message %d has unknown type %q", ErrCorruptHistory, i, msg.Kind)
		}
		if msg.ID == "" {
			return nil, fmt.Errorf("%w: message %d has no id", ErrCorruptHistory, i)
		}
	}
	return messages, nil
}
