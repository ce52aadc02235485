package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/tosbook/internal/booking"
)

var alice = booking.Record{
	ClientName:  "Alice",
	Contact:     "+1 555",
	SessionType: "Portrait",
	Date:        "01/02/2025",
	Time:        "14:00",
	People:      3,
	TotalPrice:  150,
}

func TestDispatchPostsPayload(t *testing.T) {
	var (
		calls   atomic.Int32
		payload map[string]any
		header  http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		header = r.Header.Clone()
		assert.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ignored":true}`))
	}))
	defer srv.Close()

	c, err := New(Options{URL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, c.Dispatch(context.Background(), 1, alice))

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.NotEmpty(t, header.Get(HeaderDeliveryID))
	assert.Equal(t, map[string]any{
		"client_name":  "Alice",
		"contact":      "+1 555",
		"session_type": "Portrait",
		"date":         "01/02/2025",
		"time":         "14:00",
		"people":       float64(3),
		"total_price":  float64(150),
	}, payload)
}

func TestDispatchPayloadNumberTypes(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
	}))
	defer srv.Close()

	c, err := New(Options{URL: srv.URL})
	require.NoError(t, err)
	rec := alice
	rec.TotalPrice = 99.5
	require.NoError(t, c.Dispatch(context.Background(), 1, rec))

	assert.Equal(t, "3", string(raw["people"]))
	assert.Equal(t, "99.5", string(raw["total_price"]))
}

func TestDispatchFailsOnceOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(Options{URL: srv.URL})
	require.NoError(t, err)
	err = c.Dispatch(context.Background(), 1, alice)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode())
	assert.EqualValues(t, 1, calls.Load(), "no retries")
}

func TestDispatchUsesContextDeliveryID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(HeaderDeliveryID)
	}))
	defer srv.Close()

	c, err := New(Options{URL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, c.Dispatch(WithDeliveryID(context.Background(), "d-1"), 1, alice))
	assert.Equal(t, "d-1", got)
}

func TestDispatchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Options{URL: url, Timeout: time.Second})
	require.NoError(t, err)
	err = c.Dispatch(context.Background(), 1, alice)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrStatus)
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "not a url", "http://"} {
		_, err := New(Options{URL: u})
		assert.Error(t, err, u)
	}
}
