package outreach

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewaySenderSend(t *testing.T) {
	var gotPath string
	var gotBody sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewGatewaySender(srv.URL, time.Second, nil)
	err := sender.SendClientMessage(context.Background(), "client-42", "hi there", true)
	require.NoError(t, err)

	assert.Equal(t, "/sms/client/client-42", gotPath)
	assert.Equal(t, "hi there", gotBody.Message)
	assert.True(t, gotBody.OverrideNonProd)
}

func TestGatewaySenderOmitsOverrideWhenFalse(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
	}))
	defer srv.Close()

	sender := NewGatewaySender(srv.URL, time.Second, nil)
	require.NoError(t, sender.SendClientMessage(context.Background(), "c1", "hi", false))
	_, present := raw["overrideNonProd"]
	assert.False(t, present)
}

func TestGatewaySenderStructuredFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "client has no SMS consent"})
	}))
	defer srv.Close()

	sender := NewGatewaySender(srv.URL, time.Second, nil)
	err := sender.SendClientMessage(context.Background(), "c1", "hi", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client has no SMS consent")
}

func TestGatewaySenderGenericFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewGatewaySender(srv.URL, time.Second, nil)
	err := sender.SendClientMessage(context.Background(), "c1", "hi", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestGatewaySenderRequiresClientID(t *testing.T) {
	sender := NewGatewaySender("http://localhost:0", time.Second, nil)
	err := sender.SendClientMessage(context.Background(), "  ", "hi", false)
	assert.Error(t, err)
}
