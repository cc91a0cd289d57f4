package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "uplift-test", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("artifact-bytes"))
		case "/big":
			_, _ = w.Write(make([]byte, 32))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(time.Second), WithUserAgent("uplift-test"), WithMaxBodyBytes(16))

	body, err := c.GetBytes(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "artifact-bytes", string(body))

	_, err = c.GetBytes(context.Background(), srv.URL+"/big")
	assert.ErrorIs(t, err, ErrBodyTooLarge)

	_, err = c.GetBytes(context.Background(), srv.URL+"/missing")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Contains(t, se.Body, "nope")
}

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]int{"doubled": in["n"] * 2})
	}))
	defer srv.Close()

	var out struct {
		Doubled int `json:"doubled"`
	}
	err := NewClient().PostJSON(context.Background(), srv.URL, map[string]int{"n": 21}, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.Doubled)
}

func TestClient_PostJSONBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient().PostJSON(context.Background(), srv.URL, struct{}{}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode json")
}
