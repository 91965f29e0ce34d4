package livekit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func testConfig(url string) Config {
	return Config{
		URL:       url,
		APIKey:    "api-key",
		APISecret: "api-secret",
	}
}

func TestNewClientRewritesWebsocketScheme(t *testing.T) {
	t.Parallel()

	c, err := NewClient(testConfig("wss://rooms.example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.baseURL != "https://rooms.example.com" {
		t.Fatalf("unexpected base url: %s", c.baseURL)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "https://rooms.example.com"}); err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if _, err := NewClient(Config{APIKey: "k", APISecret: "s"}); err == nil {
		t.Fatal("expected error for missing url")
	}
}

func TestJoinTokenClaims(t *testing.T) {
	t.Parallel()

	c, err := NewClient(testConfig("https://rooms.example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	signed, err := c.JoinToken("call-1", "caller-1", "Dana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			t.Fatalf("unexpected signing method: %v", token.Method)
		}
		return []byte("api-secret"), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("token is not valid")
	}

	if claims.Issuer != "api-key" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
	if claims.Subject != "caller-1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Name != "Dana" {
		t.Fatalf("unexpected name: %s", claims.Name)
	}
	if claims.Video.Room != "call-1" || !claims.Video.RoomJoin {
		t.Fatalf("unexpected video grant: %+v", claims.Video)
	}
	if claims.Video.CanPublishData == nil || !*claims.Video.CanPublishData {
		t.Fatal("data publish grant missing")
	}
}

func TestSendData(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := NewClient(testConfig(ts.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.SendData(context.Background(), "call-1", "call_summary", []byte(`{"summary":"x"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/twirp/livekit.RoomService/SendData" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if !strings.HasPrefix(gotAuth, "Bearer ") {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if gotBody["room"] != "call-1" || gotBody["topic"] != "call_summary" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
	decoded, err := base64.StdEncoding.DecodeString(gotBody["data"].(string))
	if err != nil || string(decoded) != `{"summary":"x"}` {
		t.Fatalf("unexpected data payload: %v %s", err, decoded)
	}
}

func TestRoomServiceErrorStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "room does not exist", http.StatusNotFound)
	}))
	defer ts.Close()

	c, err := NewClient(testConfig(ts.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = c.DeleteRoom(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected status error, got %v", err)
	}
}
