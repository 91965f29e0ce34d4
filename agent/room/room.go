// Package room adapts a LiveKit room to the call transport the tool
// dispatcher drives. Spoken output is delivered as speech events on the
// data channel; the client renders them through its speech pipeline.
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wrenvoice/voice-scheduler/pkg/livekit"
)

const speechTopic = "speech"

type speechEvent struct {
	Type               string `json:"type"`
	Text               string `json:"text"`
	AllowInterruptions bool   `json:"allow_interruptions"`
}

// LiveKit binds one call to one LiveKit room.
type LiveKit struct {
	client *livekit.Client
	name   string
}

func NewLiveKit(client *livekit.Client, name string) (*LiveKit, error) {
	if client == nil {
		return nil, errors.New("livekit client is required")
	}
	if name == "" {
		return nil, errors.New("room name is required")
	}
	return &LiveKit{client: client, name: name}, nil
}

// Name returns the LiveKit room name for this call.
func (r *LiveKit) Name() string {
	return r.name
}

func (r *LiveKit) Say(ctx context.Context, text string, allowInterruptions bool) error {
	payload, err := json.Marshal(speechEvent{
		Type:               speechTopic,
		Text:               text,
		AllowInterruptions: allowInterruptions,
	})
	if err != nil {
		return fmt.Errorf("marshal speech event: %w", err)
	}
	return r.client.SendData(ctx, r.name, speechTopic, payload)
}

func (r *LiveKit) PublishData(ctx context.Context, topic string, payload []byte) error {
	return r.client.SendData(ctx, r.name, topic, payload)
}

// Disconnect tears the room down server-side; every participant drops.
func (r *LiveKit) Disconnect(ctx context.Context) error {
	return r.client.DeleteRoom(ctx, r.name)
}
