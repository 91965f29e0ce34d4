package livekit

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// videoGrant mirrors the LiveKit "video" JWT claim.
type videoGrant struct {
	Room           string `json:"room,omitempty"`
	RoomJoin       bool   `json:"roomJoin,omitempty"`
	RoomAdmin      bool   `json:"roomAdmin,omitempty"`
	CanPublish     *bool  `json:"canPublish,omitempty"`
	CanSubscribe   *bool  `json:"canSubscribe,omitempty"`
	CanPublishData *bool  `json:"canPublishData,omitempty"`
}

type accessClaims struct {
	jwt.RegisteredClaims
	Name  string     `json:"name,omitempty"`
	Video videoGrant `json:"video"`
}

// JoinToken mints a participant token for the given room and identity,
// signed HS256 with the API secret as LiveKit expects.
func (c *Client) JoinToken(room, identity, name string) (string, error) {
	yes := true
	return c.signToken(identity, accessClaims{
		Name: name,
		Video: videoGrant{
			Room:           room,
			RoomJoin:       true,
			CanPublish:     &yes,
			CanSubscribe:   &yes,
			CanPublishData: &yes,
		},
	})
}

// adminToken is a short-lived RoomService credential scoped to one room.
func (c *Client) adminToken(room string) (string, error) {
	return c.signToken("voice-scheduler-server", accessClaims{
		Video: videoGrant{
			Room:      room,
			RoomAdmin: true,
		},
	})
}

func (c *Client) signToken(identity string, claims accessClaims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    c.apiKey,
		Subject:   identity,
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.apiSecret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
