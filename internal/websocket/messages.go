package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/usecase"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client to server message types
const (
	MessageTypePing           MessageType = "ping"
	MessageTypeSetLanguages   MessageType = "set_languages"
	MessageTypeSetSourceText  MessageType = "set_source_text"
	MessageTypeTranslate      MessageType = "translate"
	MessageTypeSwap           MessageType = "swap"
	MessageTypeSpeak          MessageType = "speak"
	MessageTypeCopy           MessageType = "copy"
	MessageTypeListeningStart MessageType = "listening_start"
	MessageTypeListeningEnd   MessageType = "listening_end"
	MessageTypeListeningStop  MessageType = "listening_stop"
	MessageTypeDismiss        MessageType = "dismiss"
)

// Server to client message types
const (
	MessageTypePong                MessageType = "pong"
	MessageTypeState               MessageType = "state"
	MessageTypeNotificationAdded   MessageType = "notification_added"
	MessageTypeNotificationRemoved MessageType = "notification_removed"
	MessageTypePlaybackStart       MessageType = "playback_start"
	MessageTypePlaybackEnd         MessageType = "playback_end"
	MessageTypeClipboardWrite      MessageType = "clipboard_write"
	MessageTypeError               MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type" validate:"required"`
	Timestamp string      `json:"timestamp,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// SetLanguagesMessage selects the language pair
type SetLanguagesMessage struct {
	BaseMessage
	Source entities.LanguageCode `json:"source" validate:"required"`
	Target entities.LanguageCode `json:"target" validate:"required"`
}

// SetSourceTextMessage replaces the editable source text
type SetSourceTextMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// AreaMessage targets one text area, used by speak and copy
type AreaMessage struct {
	BaseMessage
	Area entities.TextArea `json:"area" validate:"required,oneof=source result"`
}

// ListeningStartMessage announces the audio format of the coming utterance
type ListeningStartMessage struct {
	BaseMessage
	SampleRate int    `json:"sample_rate" validate:"required,min=8000,max=48000"`
	Encoding   string `json:"encoding,omitempty"`
}

// DismissMessage removes a notification early
type DismissMessage struct {
	BaseMessage
	ID string `json:"id" validate:"required"`
}

// StateMessage carries a coordinator snapshot
type StateMessage struct {
	BaseMessage
	State usecase.Snapshot `json:"state"`
}

// NotificationAddedMessage carries a new notification
type NotificationAddedMessage struct {
	BaseMessage
	Notification entities.Notification `json:"notification"`
}

// NotificationRemovedMessage tells the UI to drop a notification
type NotificationRemovedMessage struct {
	BaseMessage
	ID string `json:"id"`
}

// PlaybackStartMessage precedes the binary frames of a clip
type PlaybackStartMessage struct {
	BaseMessage
	ClipID      string `json:"clip_id"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// PlaybackEndMessage follows the last binary frame of a clip
type PlaybackEndMessage struct {
	BaseMessage
	ClipID string `json:"clip_id"`
}

// ClipboardWriteMessage asks the browser to put text on its clipboard
type ClipboardWriteMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get type
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	// Validate specific message type
	switch base.Type {
	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	case MessageTypeSetLanguages:
		var msg SetLanguagesMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid set_languages message: %w", err)
		}
		if msg.Source == "" || msg.Target == "" {
			return nil, fmt.Errorf("source and target are required")
		}
		return &msg, nil

	case MessageTypeSetSourceText:
		var msg SetSourceTextMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid set_source_text message: %w", err)
		}
		return &msg, nil

	case MessageTypeSpeak, MessageTypeCopy:
		var msg AreaMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid %s message: %w", base.Type, err)
		}
		if !msg.Area.Valid() {
			return nil, fmt.Errorf("area must be one of: source, result")
		}
		return &msg, nil

	case MessageTypeListeningStart:
		var msg ListeningStartMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid listening_start message: %w", err)
		}
		if err := v.validateListeningStart(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeDismiss:
		var msg DismissMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid dismiss message: %w", err)
		}
		if msg.ID == "" {
			return nil, fmt.Errorf("id is required")
		}
		return &msg, nil

	case MessageTypeTranslate, MessageTypeSwap, MessageTypeListeningEnd, MessageTypeListeningStop:
		return &base, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// validateListeningStart validates the audio format and fills defaults
func (v *MessageValidator) validateListeningStart(msg *ListeningStartMessage) error {
	if msg.SampleRate == 0 {
		msg.SampleRate = 16000
	}
	if msg.SampleRate < 8000 || msg.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000")
	}
	if msg.Encoding == "" {
		msg.Encoding = "LINEAR16"
	}

	// Validate encoding values
	validEncodings := map[string]bool{
		"LINEAR16": true, "FLAC": true, "MULAW": true, "OGG_OPUS": true, "WEBM_OPUS": true,
	}
	if !validEncodings[msg.Encoding] {
		return fmt.Errorf("encoding must be one of: LINEAR16, FLAC, MULAW, OGG_OPUS, WEBM_OPUS")
	}

	return nil
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: newBase(MessageTypeError),
		Code:        code,
		Message:     message,
		Details:     details,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: newBase(MessageTypePong),
		Data:        data,
	}
}

// CreateStateMessage wraps a coordinator snapshot
func CreateStateMessage(snapshot usecase.Snapshot) *StateMessage {
	return &StateMessage{
		BaseMessage: newBase(MessageTypeState),
		State:       snapshot,
	}
}
