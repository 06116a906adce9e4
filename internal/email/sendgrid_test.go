package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridSender_Send(t *testing.T) {
	var body map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGridSender("sg-key", "LMS", "no-reply@lms.local")
	s.host = srv.URL

	err := s.Send(context.Background(), Message{
		To:        "student@example.com",
		ToName:    "Student",
		Subject:   "Payment verified",
		PlainText: "Your payment was verified.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sg-key", auth)
	personalizations := body["personalizations"].([]any)
	first := personalizations[0].(map[string]any)
	assert.Equal(t, "[LMS] Payment verified", first["subject"])
}

func TestSendGridSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	s := NewSendGridSender("bad", "LMS", "no-reply@lms.local")
	s.host = srv.URL

	err := s.Send(context.Background(), Message{To: "x@example.com", Subject: "s", PlainText: "b"})
	assert.ErrorContains(t, err, "401")
}
