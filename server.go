package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go-document-verifier/cnp"
	"go-document-verifier/exclusion"
	"go-document-verifier/images"
	"go-document-verifier/imaging"
	"go-document-verifier/models"
	"go-document-verifier/verify"

	"github.com/gorilla/mux"
)

const ErrorInternal = "error:internal"
const ERR_MARSHAL = "failed to marshal response message"
const ERR_RECEIPT_CREATION = "failed to create jwt"
const ERR_SESSION_REMOVAL = "failed to remove session from storage"
const ERR_NONCE_RETRIEVAL = "failed to get nonce from storage"
const ERR_INVALID_NONCE_SESSION = "invalid session or nonce"
const ERR_DOCUMENT_VERIFICATION = "failed to verify document"

type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	UseTls         bool   `json:"use_tls,omitempty"`
	TlsPrivKeyPath string `json:"tls_priv_key_path,omitempty"`
	TlsCertPath    string `json:"tls_cert_path,omitempty"`
}

type ServerState struct {
	sessionStorage   SessionStorage
	jwtCreator       JwtCreator
	orchestrator     *verify.Orchestrator
	exclusionChecker *exclusion.Checker
	pipeline         *imaging.Pipeline
}

type SpaHandler struct {
	staticPath string
	indexPath  string
}

type Server struct {
	server *http.Server
	config ServerConfig
}

func (s *Server) ListenAndServe() error {
	if s.config.UseTls {
		slog.Info("Starting server with TLS", "host", s.config.Host, "port", s.config.Port, "cert", s.config.TlsCertPath, "key", s.config.TlsPrivKeyPath)
		return s.server.ListenAndServeTLS(s.config.TlsCertPath, s.config.TlsPrivKeyPath)
	} else {
		slog.Info("Starting server without TLS", "host", s.config.Host, "port", s.config.Port)
		return s.server.ListenAndServe()
	}
}

func (s *Server) Stop() error {
	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("Error during server shutdown", "error", err)
	} else {
		slog.Info("Server shut down successfully")
	}
	return err
}

// ServeHTTP inspects the URL path to locate a file within the static dir
// on the SPA handler. If a file is found, it will be served. If not, the
// file located at the index path on the SPA handler will be served. This
// is suitable behavior for serving an SPA (single page application).
// https://github.com/gorilla/mux?tab=readme-ov-file#serving-single-page-applications
func (h SpaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Debug("SPA handler serving request", "path", r.URL.Path)
	// Join internally call path.Clean to prevent directory traversal
	path := filepath.Join(h.staticPath, r.URL.Path)
	// check whether a file exists or is a directory at the given path
	fi, err := os.Stat(path)
	if os.IsNotExist(err) || fi.IsDir() {
		// file does not exist or path is a directory, serve index.html
		slog.Debug("Serving index.html for path", "path", r.URL.Path)
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	if err != nil {
		// if we got an error (that wasn't that the file doesn't exist) stating the
		// file, return a 500 internal server error and stop
		slog.Error("Error stating file", "path", path, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// otherwise, use http.FileServer to serve the static file
	slog.Debug("Serving static file", "path", path)
	http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
}

func NewServer(state *ServerState, config ServerConfig) (*Server, error) {
	slog.Info("Creating new server", "host", config.Host, "port", config.Port, "tls", config.UseTls)
	router := mux.NewRouter()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Health check request received")
		err := json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		if err != nil {
			slog.Error("failed to write body to http response", "error", err)
		}
	})

	router.HandleFunc("/api/start-scan", func(w http.ResponseWriter, r *http.Request) {
		handleStartScan(state, w, r)
	})
	router.HandleFunc("/api/verify-document", func(w http.ResponseWriter, r *http.Request) {
		handleVerifyDocument(state, w, r)
	})
	router.HandleFunc("/api/verify-cnp", func(w http.ResponseWriter, r *http.Request) {
		handleVerifyCnp(state, w, r)
	})
	router.HandleFunc("/api/check-exclusion", func(w http.ResponseWriter, r *http.Request) {
		handleCheckExclusion(state, w, r)
	}).Methods(http.MethodGet)

	slog.Debug("Registered all API routes")

	spa := SpaHandler{staticPath: "../frontend/build", indexPath: "index.html"}
	router.PathPrefix("/").Handler(spa)

	addr := fmt.Sprintf("%v:%v", config.Host, config.Port)
	srv := &http.Server{
		Handler: router,
		Addr:    addr,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	slog.Info("Server created successfully", "address", addr)
	return &Server{
		server: srv,
		config: config,
	}, nil
}

type VerifyDocumentResponse struct {
	Result   *verify.Result `json:"result"`
	Portrait string         `json:"portrait,omitempty"`
	Receipt  string         `json:"receipt,omitempty"`
}

func handleStartScan(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received request to start document scan")

	slog.Debug("Generating session ID")
	sessionId := GenerateSessionId()
	if sessionId == "" {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to generate session ID", fmt.Errorf("failed to generate session ID"))
		return
	}
	slog.Debug("Session ID generated", "session_id", sessionId)

	slog.Debug("Generating nonce", "session_id", sessionId)
	nonce, err := GenerateNonce(8)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to generate nonce", err)
		return
	}

	// The nonce is removed from storage once the scan result is delivered.
	slog.Debug("Storing nonce in session storage", "session_id", sessionId)
	err = state.sessionStorage.StoreNonce(sessionId, nonce)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to store nonce", err)
		return
	}

	response := models.StartScanResponse{
		SessionId: sessionId,
		Nonce:     nonce,
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Document scan started successfully", "session_id", sessionId)
}

func handleVerifyDocument(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received request to verify document")

	var request models.VerifyDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", ERR_DOCUMENT_VERIFICATION, err)
		return
	}

	nonce, err := state.sessionStorage.RetrieveNonce(request.SessionId)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ERR_INVALID_NONCE_SESSION, ERR_NONCE_RETRIEVAL, err)
		return
	}
	if nonce != request.Nonce {
		respondWithErr(w, http.StatusBadRequest, ERR_INVALID_NONCE_SESSION, ERR_INVALID_NONCE_SESSION, nil)
		return
	}

	imageBytes, err := base64.StdEncoding.DecodeString(request.Image)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode image payload", err)
		return
	}

	mime := request.Mime
	if mime == "" {
		mime = "image/jpeg"
	}

	result := state.orchestrator.Verify(r.Context(), imageBytes, mime)
	slog.Debug("Document verification completed",
		"session_id", request.SessionId,
		"verified", result.Verified,
		"total_ms", result.ProcessingTime.Total.Milliseconds())

	response := VerifyDocumentResponse{
		Result:   result,
		Portrait: extractPortrait(state, imageBytes),
	}

	if result.Verified {
		receipt, err := state.jwtCreator.CreateReceiptJwt(request.SessionId, result)
		if err != nil {
			respondWithErr(w, http.StatusInternalServerError, ERR_RECEIPT_CREATION, ERR_RECEIPT_CREATION, err)
			return
		}
		response.Receipt = receipt
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Document verification completed", "session_id", request.SessionId, "verified", result.Verified)
	removeScanSession(state.sessionStorage, request.SessionId)
}

// extractPortrait runs the presentation path over the uploaded photo. A
// missing portrait is not a failure; the response field just stays empty.
func extractPortrait(state *ServerState, imageBytes []byte) string {
	if state.pipeline == nil {
		return ""
	}

	photo, err := images.Decode(imageBytes)
	if err != nil {
		slog.Warn("failed to decode photo for portrait extraction", "error", err)
		return ""
	}

	portrait, err := state.pipeline.ExtractPortrait(photo)
	if err != nil {
		slog.Debug("portrait extraction skipped", "reason", err)
		return ""
	}
	if portrait == nil {
		slog.Debug("no portrait found on document")
		return ""
	}

	encoded, err := images.PortraitPNG(portrait)
	if err != nil {
		slog.Warn("failed to encode portrait", "error", err)
		return ""
	}
	return encoded
}

func handleVerifyCnp(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	var request models.VerifyCnpRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode cnp request", err)
		return
	}

	response := models.VerifyCnpResponse{}
	if info := cnp.ExtractInfo(request.Cnp); info != nil {
		response.Valid = true
		response.Gender = string(info.Gender)
		response.DateOfBirth = info.DateOfBirthString()
		response.Age = info.Age
		response.County = info.County
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}
}

func handleCheckExclusion(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	code := r.URL.Query().Get("cnp")
	if code == "" {
		respondWithErr(w, http.StatusBadRequest, "missing cnp parameter", "exclusion check without cnp", nil)
		return
	}

	status := state.exclusionChecker.Check(r.Context(), code)
	slog.Info("Exclusion check completed", "excluded", status.IsExcluded, "verified", status.Verified)

	if err := writeJSON(w, http.StatusOK, status); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}
}

func removeScanSession(storage SessionStorage, sessionId string) {
	slog.Debug("Removing scan session", "session_id", sessionId)
	if err := storage.RemoveSession(sessionId); err != nil {
		slog.Error(ERR_SESSION_REMOVAL, "error", err, "session_id", sessionId)
		return
	}
	slog.Debug("Scan session removed successfully", "session_id", sessionId)
}

func GenerateSessionId() string {
	sessionId := make([]byte, 16)
	if _, err := rand.Read(sessionId); err != nil {
		slog.Error("failed to generate session ID", "error", err)
		return ""
	}
	hexId := fmt.Sprintf("%x", sessionId)
	slog.Debug("Session ID generated successfully", "session_id", hexId)
	return hexId
}

// GenerateNonce Generates a random nonce
func GenerateNonce(i int) (string, error) {
	nonce := make([]byte, i)
	if _, err := rand.Read(nonce); err != nil {
		slog.Error("failed to generate nonce", "error", err)
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	hexString := hex.EncodeToString(nonce)
	slog.Debug("Nonce generated successfully", "length", i)
	return hexString, nil
}

func respondWithErr(w http.ResponseWriter, code int, responseBody string, logMsg string, e error) {
	slog.Error(logMsg, "error", e, "status_code", code, "response_body", responseBody)
	w.WriteHeader(code)
	if _, err := w.Write([]byte(responseBody)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// helpers ------------

func closeRequestBody(r *http.Request) {
	if err := r.Body.Close(); err != nil {
		slog.Error("failed to close request body", "error", err)
	}
}

func requirePOST(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		slog.Debug("Non-POST request rejected", "method", r.Method, "path", r.URL.Path)
		respondWithErr(w, http.StatusMethodNotAllowed, "method not allowed", "invalid method", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	slog.Debug("Writing JSON response", "status_code", status)
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON payload", "error", err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	if err != nil {
		slog.Error("failed to write body to http response", "error", err)
	} else {
		slog.Debug("JSON response written successfully", "status_code", status, "payload_size", len(payload))
	}
	return nil
}
