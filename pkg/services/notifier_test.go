package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ravijp/portfolio-advisor/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailService_NotConfigured(t *testing.T) {
	s := NewEmailService(&config.Config{}, nil, zerolog.Nop())
	err := s.Send(context.Background(), EmailMessage{To: "a@example.com", Subject: "s", Text: "t"})
	assert.ErrorIs(t, err, ErrEmailNotConfigured)
}

func TestEmailService_Send(t *testing.T) {
	var payload struct {
		Subject          string `json:"subject"`
		From             struct{ Email string } `json:"from"`
		Personalizations []struct {
			To []struct{ Email string } `json:"to"`
		} `json:"personalizations"`
		Content []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	s := NewEmailService(&config.Config{SendGridAPIKey: "sg-key", SummaryEmailFrom: "bot@example.com", SummaryFromName: "Advisor"}, nil, zerolog.Nop())
	s.host = srv.URL

	err := s.Send(context.Background(), EmailMessage{
		To:      "me@example.com",
		Subject: "Your Daily Portfolio Summary",
		Text:    "plain",
		HTML:    "<p>html</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "Your Daily Portfolio Summary", payload.Subject)
	assert.Equal(t, "bot@example.com", payload.From.Email)
	require.Len(t, payload.Personalizations, 1)
	assert.Equal(t, "me@example.com", payload.Personalizations[0].To[0].Email)
	require.Len(t, payload.Content, 2)
	assert.Equal(t, "text/plain", payload.Content[0].Type)
	assert.Equal(t, "text/html", payload.Content[1].Type)
}

func TestEmailService_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	t.Cleanup(srv.Close)

	s := NewEmailService(&config.Config{SendGridAPIKey: "sg-key", SummaryEmailFrom: "bot@example.com"}, nil, zerolog.Nop())
	s.host = srv.URL

	err := s.Send(context.Background(), EmailMessage{To: "me@example.com", Subject: "s", Text: "t", HTML: "h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
