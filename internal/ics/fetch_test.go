package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\nEND:VCALENDAR\r\n"

func TestFetch_ConditionalAndFallback(t *testing.T) {
	var calls atomic.Int32
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if down.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(tinyCalendar))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	url := srv.URL + "/private/busy.ics?token=secret"

	res, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, tinyCalendar, string(res.Body))

	res, err = f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, tinyCalendar, string(res.Body))

	down.Store(true)
	res, err = f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetch_NoCacheFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewFetcher(t.TempDir(), srv.Client()).Fetch(context.Background(), srv.URL+"/missing.ics")
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://calendar.example.com/...(redacted)", redactURL("https://calendar.example.com/u/1/basic.ics?token=abc"))
	assert.Equal(t, "http://host:8080/...(redacted)", redactURL("http://host:8080"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
	assert.True(t, IsURL("https://x/y.ics"))
	assert.False(t, IsURL("busy.ics"))
}
