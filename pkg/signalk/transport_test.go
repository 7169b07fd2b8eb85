package signalk_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telemetry-agent/pkg/signalk"
	"github.com/benmeehan/telemetry-agent/pkg/store"
)

func TestHTTPClient_PostSendsHeadersAndBody(t *testing.T) {
	var gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := signalk.NewHTTPClient(time.Second)
	resp, err := client.Post(context.Background(), srv.URL, map[string]string{"Authorization": "Bearer abc"}, []byte(`{"a":1}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.Status)
	assert.Equal(t, `{"ok":true}`, resp.Body)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, `{"a":1}`, gotBody)
}

func TestHTTPClient_TruncatesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	resp, err := signalk.NewHTTPClient(time.Second).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, resp.Body, signalk.MaxBodySize)
}

func TestHTTPClient_RejectsInvalidUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xff, 0xfe, 0xfd})
	}))
	defer srv.Close()

	_, err := signalk.NewHTTPClient(time.Second).Get(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := signalk.NewHTTPClient(0).Get(ctx, srv.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// accessServer mimics the device access endpoints of a Signal K server that
// approves a request after a number of polls.
type accessServer struct {
	mu          sync.Mutex
	pendingLeft int
	polls       int
}

func (a *accessServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/signalk/v1/access/requests":
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(acceptedBody))
	case r.Method == http.MethodGet && r.URL.Path == href:
		a.polls++
		if a.pendingLeft > 0 {
			a.pendingLeft--
			_, _ = w.Write([]byte(pendingBody))
			return
		}
		_, _ = w.Write([]byte(approvedBody))
	default:
		http.NotFound(w, r)
	}
}

func TestAuthorize_AgainstHTTPServer(t *testing.T) {
	server := &accessServer{pendingLeft: 2}
	srv := httptest.NewServer(server)
	defer srv.Close()

	cfg := signalk.Config{ServerRoot: srv.URL, ClientID: "31337", PollInterval: time.Millisecond}
	client := signalk.NewAuthClient(cfg, signalk.NewHTTPClient(time.Second), store.NewMemoryStore(), zerolog.Nop())

	token, err := client.Authorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T", token)
	assert.Equal(t, 3, server.polls)
}
