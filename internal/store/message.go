package store

import (
	"strings"
	"time"

	apperrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/errors"
)

const (
	DefaultMessageColor   = "primary"
	DefaultMessageTimeout = 7000 * time.Millisecond

	// Text longer than this is shown multiline unless the caller says otherwise.
	multilineThreshold = 50
)

// MessageInput describes a notification to show. Zero values take the defaults.
type MessageInput struct {
	Text      string
	Color     string
	Close     bool
	Timeout   time.Duration
	Multiline *bool
}

// ShowMessage replaces the current notification and makes it visible.
func (s *Store) ShowMessage(in MessageInput) error {
	if strings.TrimSpace(in.Text) == "" {
		return apperrors.ValidationField("text", "message text cannot be empty")
	}

	msg := Message{
		Text:      in.Text,
		Color:     in.Color,
		Visible:   true,
		Close:     in.Close,
		Timeout:   in.Timeout,
		Multiline: len([]rune(in.Text)) > multilineThreshold,
	}
	if msg.Color == "" {
		msg.Color = DefaultMessageColor
	}
	if msg.Timeout <= 0 {
		msg.Timeout = DefaultMessageTimeout
	}
	if in.Multiline != nil {
		msg.Multiline = *in.Multiline
	}

	s.update(func(st *State) { st.message = msg })
	return nil
}

// CloseMessage hides the current notification, keeping its content.
func (s *Store) CloseMessage() {
	s.update(func(st *State) { st.message.Visible = false })
}
