package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-document-verifier/exclusion"
	"go-document-verifier/verify"
)

var testConfig = ServerConfig{
	Host:           "localhost",
	Port:           8081,
	UseTls:         false,
	TlsCertPath:    "",
	TlsPrivKeyPath: "",
}

type fakeJwtCreator struct {
	jwt string
}

func (f fakeJwtCreator) CreateReceiptJwt(sessionId string, result *verify.Result) (string, error) {
	return f.jwt, nil
}

// scriptedExtractor returns fixed OCR text for every recognize call.
type scriptedExtractor struct {
	text string
	err  error
}

func (s *scriptedExtractor) Recognize(ctx context.Context, image []byte, mime string) (string, error) {
	return s.text, s.err
}

func (s *scriptedExtractor) Close() error { return nil }

func scriptedFactory(text string) verify.ExtractorFactory {
	return func(ctx context.Context) (verify.TextExtractor, error) {
		return &scriptedExtractor{text: text}, nil
	}
}

func startTestServer(t *testing.T, storage SessionStorage, ocrText string) *Server {
	t.Helper()

	testState := &ServerState{
		sessionStorage:   storage,
		jwtCreator:       fakeJwtCreator{jwt: "test-jwt"},
		orchestrator:     verify.NewOrchestrator(scriptedFactory(ocrText)),
		exclusionChecker: exclusion.NewChecker(exclusion.NewInMemoryLookup()),
	}

	srv, err := NewServer(testState, testConfig)
	require.NoError(t, err)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("server error: %v", err)
		}
	}()

	waitUntilHealthy(t, "http://localhost:8081/api/health")
	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Logf("error shutting down server: %v", err)
		}
	})

	return srv
}

func waitUntilHealthy(t *testing.T, url string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("server did not become healthy in time")
}

func postJSON(t *testing.T, url string, payload any) (*http.Response, []byte) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)

	responseBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, responseBody
}
