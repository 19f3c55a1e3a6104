package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// newOcrTestServer fakes the recognition service: one session endpoint, one
// recognize endpoint, one delete endpoint.
func newOcrTestServer(t *testing.T, text string) (*httptest.Server, *map[string]int) {
	t.Helper()
	calls := map[string]int{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls[r.Method+" "+r.URL.Path]++

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/sessions":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, DefaultOcrLanguage, body["language"])
			require.NotEmpty(t, body["char_whitelist"])

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-1"})

		case r.Method == http.MethodPost && r.URL.Path == "/api/sessions/sess-1/recognize":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.NotEmpty(t, body["image"])
			require.Equal(t, "image/jpeg", body["mime"])

			json.NewEncoder(w).Encode(map[string]string{"text": text})

		case r.Method == http.MethodDelete && r.URL.Path == "/api/sessions/sess-1":
			w.WriteHeader(http.StatusNoContent)

		case r.Method == http.MethodGet && r.URL.Path == "/api/healthz":
			w.WriteHeader(http.StatusOK)

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestOcrClientSessionFlow(t *testing.T) {
	server, calls := newOcrTestServer(t, "CNP 1800101400120")
	client := NewOcrClient(OcrConfig{BaseUrl: server.URL})

	session, err := client.NewSession(context.Background())
	require.NoError(t, err)

	text, err := session.Recognize(context.Background(), []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "CNP 1800101400120", text)

	require.NoError(t, session.Close())
	require.Equal(t, 1, (*calls)["DELETE /api/sessions/sess-1"])
}

func TestOcrClientExtractorFactory(t *testing.T) {
	server, _ := newOcrTestServer(t, "some text")
	client := NewOcrClient(OcrConfig{BaseUrl: server.URL})

	extractor, err := client.ExtractorFactory()(context.Background())
	require.NoError(t, err)

	text, err := extractor.Recognize(context.Background(), []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "some text", text)
	require.NoError(t, extractor.Close())
}

func TestOcrClientSessionCreationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no workers available", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewOcrClient(OcrConfig{BaseUrl: server.URL})
	_, err := client.NewSession(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no workers available")
}

func TestOcrClientRecognizeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/sessions" {
			json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-1"})
			return
		}
		http.Error(w, "worker crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOcrClient(OcrConfig{BaseUrl: server.URL})
	session, err := client.NewSession(context.Background())
	require.NoError(t, err)

	_, err = session.Recognize(context.Background(), []byte("jpeg"), "image/jpeg")
	require.Error(t, err)
	require.Contains(t, err.Error(), "worker crashed")
}

func TestOcrClientEmptySessionId(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := NewOcrClient(OcrConfig{BaseUrl: server.URL})
	_, err := client.NewSession(context.Background())
	require.Error(t, err)
}

func TestOcrClientHealthCheck(t *testing.T) {
	server, _ := newOcrTestServer(t, "")
	client := NewOcrClient(OcrConfig{BaseUrl: server.URL})
	require.NoError(t, client.HealthCheck())
}

func TestOcrClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewOcrClient(OcrConfig{BaseUrl: server.URL})
	require.Error(t, client.HealthCheck())
}

func TestOcrConfigDefaults(t *testing.T) {
	client := NewOcrClient(OcrConfig{BaseUrl: "http://localhost:9999"})
	require.Equal(t, DefaultOcrLanguage, client.config.Language)
	require.Equal(t, DefaultOcrWhitelist, client.config.CharWhitelist)

	custom := NewOcrClient(OcrConfig{BaseUrl: "http://localhost:9999", Language: "eng", CharWhitelist: "0123456789"})
	require.Equal(t, "eng", custom.config.Language)
	require.Equal(t, "0123456789", custom.config.CharWhitelist)
}
