// Package livekit is a minimal LiveKit server client: join-token minting
// for browser/phone participants and the two RoomService calls this
// service needs (data publish and room teardown).
package livekit

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	URL       string        `split_words:"true" required:"true"`
	APIKey    string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	APISecret string        `envconfig:"API_SECRET" split_words:"true" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" split_words:"true" default:"1h"`
	Timeout   time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	tokenTTL   time.Duration
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("livekit url is required")
	}
	// ws(s) signalling URLs double as the REST base after scheme swap.
	baseURL = strings.Replace(baseURL, "ws://", "http://", 1)
	baseURL = strings.Replace(baseURL, "wss://", "https://", 1)
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, errors.New("livekit api key and secret are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		apiSecret: strings.TrimSpace(cfg.APISecret),
		tokenTTL:  tokenTTL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SendData publishes a reliable data message to every participant in the
// room on the given topic.
func (c *Client) SendData(ctx context.Context, room, topic string, payload []byte) error {
	body := map[string]any{
		"room":  room,
		"data":  base64.StdEncoding.EncodeToString(payload),
		"kind":  "RELIABLE",
		"topic": topic,
	}
	return c.roomService(ctx, "SendData", room, body)
}

// DeleteRoom tears the room down, disconnecting every participant.
func (c *Client) DeleteRoom(ctx context.Context, room string) error {
	return c.roomService(ctx, "DeleteRoom", room, map[string]any{"room": room})
}

func (c *Client) roomService(ctx context.Context, method, room string, body map[string]any) error {
	token, err := c.adminToken(room)
	if err != nil {
		return fmt.Errorf("livekit: mint admin token: %w", err)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("livekit: marshal %s request: %w", method, err)
	}

	endpoint := c.baseURL + "/twirp/livekit.RoomService/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("livekit: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("livekit: %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("livekit: %s returned status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
