package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cd-sync-api/pkg/config"
)

func newTestRecaptcha(verifyURL string) *Recaptcha {
	return NewRecaptcha(config.RecaptchaConfig{
		Secret:    "secret",
		VerifyURL: verifyURL,
		Timeout:   time.Second,
	}, nil)
}

func TestVerifyAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		_, _ = w.Write([]byte(`{"success":true,"score":0.9}`))
	}))
	defer srv.Close()

	verdict, err := newTestRecaptcha(srv.URL).Verify(context.Background(), "tok", "203.0.113.10")
	require.NoError(t, err)
	assert.True(t, verdict.Accepted)
	assert.InDelta(t, 0.9, verdict.Score, 0.001)
}

func TestVerifyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	verdict, err := newTestRecaptcha(srv.URL).Verify(context.Background(), "tok", "203.0.113.10")
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)
}

func TestVerifyMissingToken(t *testing.T) {
	verdict, err := newTestRecaptcha("http://127.0.0.1:1").Verify(context.Background(), "", "203.0.113.10")
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)
}

func TestVerifyTransportFailureRejects(t *testing.T) {
	verdict, err := newTestRecaptcha("http://127.0.0.1:1").Verify(context.Background(), "tok", "203.0.113.10")
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)
}
