package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/docsentry/docsentry/internal/types"
	"github.com/docsentry/docsentry/pkg/agent"
	"github.com/docsentry/docsentry/pkg/ingest"
	"github.com/docsentry/docsentry/pkg/logx"
	"github.com/docsentry/docsentry/pkg/rag"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the WebSocket chat frame, shared for both directions.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

type Config struct {
	Addr      string
	UploadDir string
}

// Server exposes the ingest, query, and reporting operations over HTTP,
// plus an interactive chat channel over WebSocket.
type Server struct {
	config   Config
	engine   *rag.Engine
	pipeline *ingest.Pipeline
	agent    *agent.Agent
	sender   types.ReportSender
}

func New(config Config, engine *rag.Engine, pipeline *ingest.Pipeline, a *agent.Agent, sender types.ReportSender) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.UploadDir == "" {
		config.UploadDir = os.TempDir()
	}
	return &Server{
		config:   config,
		engine:   engine,
		pipeline: pipeline,
		agent:    a,
		sender:   sender,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/documents/upload", s.handleUpload)
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/documents/similar", s.handleSimilar)
	mux.HandleFunc("/api/reports/daily", s.handleDailyReport)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe blocks until the context is cancelled or the listener
// fails, and drains in-flight requests on shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.Addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.config.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleUpload accepts multipart "files" parts, stages them under the
// upload directory, and runs the ingest pipeline over the staged batch.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	batchID := uuid.NewString()
	batchDir := filepath.Join(s.config.UploadDir, batchID)
	if err := os.MkdirAll(batchDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("stage upload: %v", err))
		return
	}
	defer os.RemoveAll(batchDir)

	for _, header := range files {
		if err := saveUploadedFile(header, batchDir); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("stage %s: %v", header.Filename, err))
			return
		}
	}

	result, err := s.pipeline.Run(r.Context(), batchDir)
	if err != nil {
		logx.Error().Err(err).Str("batch", batchID).Msg("upload ingest failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("ingest failed: %v", err))
		return
	}

	logx.Info().Str("batch", batchID).Int("documents", result.Documents).Msg("upload ingested")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batch_id":  batchID,
		"documents": result.Documents,
		"chunks":    result.Chunks,
	})
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result := s.engine.Query(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, result)
}

type similarRequest struct {
	Document string `json:"document"`
	K        int    `json:"k"`
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req similarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Document == "" {
		writeError(w, http.StatusBadRequest, "document is required")
		return
	}
	if req.K <= 0 {
		req.K = 5
	}

	similar, err := s.engine.SimilarDocuments(r.Context(), req.Document, req.K)
	if err != nil {
		logx.Error().Err(err).Msg("similarity lookup failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("similarity lookup failed: %v", err))
		return
	}
	if similar == nil {
		similar = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"documents": similar})
}

type dailyReportRequest struct {
	Deliver bool `json:"deliver"`
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req dailyReportRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
	}

	if req.Deliver && s.sender == nil {
		writeError(w, http.StatusBadRequest, "delivery requested but email is not configured")
		return
	}

	sender := s.sender
	if !req.Deliver {
		sender = nil
	}

	report, err := s.agent.RunDaily(r.Context(), sender)
	resp := map[string]interface{}{
		"report":    report,
		"delivered": sender != nil && err == nil,
	}
	if err != nil {
		resp["delivery_error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			logx.Debug().Err(err).Msg("websocket closed")
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			logx.Warn().Err(err).Msg("invalid websocket frame")
			continue
		}

		s.handleChatMessage(r.Context(), conn, msg)
	}
}

func (s *Server) handleChatMessage(ctx context.Context, conn *websocket.Conn, msg Message) {
	if msg.Content == "" {
		s.sendMessage(conn, "error", "empty query")
		return
	}

	s.sendMessage(conn, "status", "Searching contracts...")

	result := s.engine.Query(ctx, msg.Content)

	if err := conn.WriteJSON(Message{Type: "response", Content: result.Answer, Data: result.Sources}); err != nil {
		logx.Error().Err(err).Msg("failed to send websocket response")
	}
}

func (s *Server) sendMessage(conn *websocket.Conn, msgType string, content string) {
	if err := conn.WriteJSON(Message{Type: msgType, Content: content}); err != nil {
		logx.Error().Err(err).Msg("failed to send websocket message")
	}
}

func saveUploadedFile(header *multipart.FileHeader, dir string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, filepath.Base(header.Filename)))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
