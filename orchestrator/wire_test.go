package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/signbridge/clients"
	"github.com/maastricht-university/signbridge/observability"
)

func TestHTTPHands(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/landmarks", r.URL.Path)
		_, _ = w.Write([]byte(`{"width":10,"height":10,"hands":[{"landmarks":[{"x":0.1,"y":0.2}]}]}`))
	}))
	defer srv.Close()

	h := HTTPHands{HTTP: clients.NewHTTP(time.Second), URL: srv.URL}
	resp, err := h.Landmarks(context.Background(), []byte("jpeg"))
	require.NoError(t, err)
	assert.Len(t, resp.Hands, 1)
}

func TestSentimentFor(t *testing.T) {
	c := testConfig(t)
	h := clients.NewHTTP(time.Second)

	c.Services.Sentiment.URL = ""
	s, err := SentimentFor(c, h)
	require.NoError(t, err)
	assert.Nil(t, s)

	c.Services.Sentiment.URL = "http://localhost:1"
	s, err = SentimentFor(c, h)
	require.NoError(t, err)
	assert.IsType(t, clients.HTTPSentiment{}, s)

	c.Sentiment.Provider = "openai"
	c.Sentiment.APIKeyEnv = "SIGNBRIDGE_TEST_UNSET_KEY"
	t.Setenv("SIGNBRIDGE_TEST_UNSET_KEY", "")
	s, err = SentimentFor(c, h)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestProbe_NoHealthEndpoints(t *testing.T) {
	c := testConfig(t)
	assert.NoError(t, Probe(context.Background(), c, observability.Discard()))
}
