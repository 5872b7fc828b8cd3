// Package notify delivers session change events to interested parties after they are saved.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mcoot/fillblank/internal/model"
)

// Notifier is told about every committed session change.
// Failures are reported to the caller but never undo the change.
type Notifier interface {
	Notify(ctx context.Context, event model.Event) error
}

// Multi fans an event out to several notifiers, joining their errors
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event model.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a plain function to a Notifier
type Func func(ctx context.Context, event model.Event) error

func (f Func) Notify(ctx context.Context, event model.Event) error {
	return f(ctx, event)
}

// Nop discards every event
type Nop struct{}

func (Nop) Notify(context.Context, model.Event) error { return nil }

// message is the wire form of an event
type message struct {
	Type      model.EventType  `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	SessionID model.SessionID  `json:"session_id"`
	GameName  string           `json:"game_name"`
	Player    model.PlayerName `json:"player,omitempty"`
	Version   int64            `json:"version"`
}

// Encode renders an event as JSON
func Encode(event model.Event) ([]byte, error) {
	return json.Marshal(message(event))
}

// Decode parses an event rendered by Encode
func Decode(data []byte) (model.Event, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return model.Event{}, err
	}
	return model.Event(msg), nil
}
