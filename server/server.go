// Package server exposes the pipeline and query service over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/ingest"
	"github.com/smallnest/graphrag/log"
	"github.com/smallnest/graphrag/query"
)

// maxUploadBytes caps multipart upload parsing.
const maxUploadBytes = 32 << 20

// Server routes HTTP requests to the ingestion pipeline and the query
// service.
type Server struct {
	queries  *query.Service
	pipeline *ingest.Pipeline
	registry graphrag.DocumentRegistry
	logger   log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server over the given services.
func NewServer(queries *query.Service, pipeline *ingest.Pipeline, registry graphrag.DocumentRegistry, opts ...Option) *Server {
	s := &Server{
		queries:  queries,
		pipeline: pipeline,
		registry: registry,
		logger:   log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the server's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/ingest", s.handleIngest)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/documents", s.handleDocuments)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start listens on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, map[string]string{"status": "ok"})
}

// handleQuery answers a question against the caller's corpus.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req query.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := s.queries.Answer(r.Context(), req)
	if errors.Is(err, graphrag.ErrMissingField) {
		sendJSONError(w, "Missing inputs", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error("query failed: %v", err)
		sendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sendJSONResponse(w, resp)
}

type ingestRequest struct {
	Keys []string `json:"keys"`
}

// handleIngest indexes already-uploaded documents by storage key.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Keys) == 0 {
		sendJSONError(w, "Missing inputs", http.StatusBadRequest)
		return
	}

	sendJSONResponse(w, s.pipeline.ProcessBatch(r.Context(), req.Keys))
}

type uploadResponse struct {
	Key    string `json:"key"`
	Status string `json:"status"`
}

// handleUpload accepts a multipart document upload. The form carries
// the file under "file" and the owner under "user_email".
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		sendJSONError(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSONError(w, "Missing inputs", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		sendJSONError(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	key, err := s.pipeline.Upload(r.Context(), r.FormValue("user_email"), header.Filename, data)
	if err != nil {
		s.logger.Error("upload failed: %v", err)
		sendJSONError(w, "Upload failed", http.StatusInternalServerError)
		return
	}

	sendJSONResponse(w, uploadResponse{Key: key, Status: string(graphrag.StatusUploaded)})
}

type deleteRequest struct {
	Key string `json:"key"`
}

type deleteResponse struct {
	ingest.DeleteResult
	Status string `json:"status"`
}

// handleDocuments lists a user's documents on GET and deletes one
// everywhere it was indexed on DELETE.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listDocuments(w, r)
	case http.MethodDelete:
		s.deleteDocument(w, r)
	default:
		sendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("user_email")
	if owner == "" {
		sendJSONError(w, "Missing inputs", http.StatusBadRequest)
		return
	}

	docs, err := s.registry.ListByOwner(r.Context(), owner)
	if err != nil {
		s.logger.Error("listing documents for %s failed: %v", owner, err)
		sendJSONError(w, "Failed to list documents", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []graphrag.Document{}
	}
	sendJSONResponse(w, map[string]any{"documents": docs})
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		sendJSONError(w, "Missing inputs", http.StatusBadRequest)
		return
	}

	result, err := s.pipeline.Delete(r.Context(), req.Key)
	if errors.Is(err, graphrag.ErrNotFound) {
		sendJSONError(w, fmt.Sprintf("Document %s not found", req.Key), http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("delete failed: %v", err)
		sendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status := "deleted"
	if !result.Complete() {
		status = "partial"
	}
	sendJSONResponse(w, deleteResponse{DeleteResult: result, Status: status})
}

// sendJSONResponse sends a JSON response.
func sendJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// sendJSONError sends a JSON error response.
func sendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": message})
}
