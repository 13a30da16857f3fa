package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driving"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Server is the HTTP API.
type Server struct {
	ports *Ports
	mux   *http.ServeMux
}

// NewServer creates a server over the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, mux: http.NewServeMux()}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /send-notification", s.handleSendNotification)
	s.mux.HandleFunc("GET /download-excel", s.handleDownloadExcel)
	s.mux.HandleFunc("POST /export-to-google-sheet", s.handleExport)
	s.mux.HandleFunc("POST /sheets-webhook", s.handleSheetsWebhook)
	s.mux.HandleFunc("POST /history/prune", s.handlePrune)
	s.mux.HandleFunc("GET /scripts", s.handleListScripts)
	s.mux.HandleFunc("POST /scripts/{name}", s.handleRunScript)
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// RunHTTP serves on addr until the context is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	var req driving.NotifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.ports.Notification.Send(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDownloadExcel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	download, err := s.ports.Export.DownloadExcel(r.Context(), driving.DownloadRequest{
		FolderID: q.Get("folderId"),
		StatusID: q.Get("statusId"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(download.Data)))
	w.Header().Set("X-Row-Count", strconv.Itoa(download.Rows))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(download.Data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req driving.ExportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.ports.Export.ExportToSheet(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSheetsWebhook(w http.ResponseWriter, r *http.Request) {
	if s.ports.Provisioning == nil {
		writeError(w, fmt.Errorf("%w: provisioning is not configured", domain.ErrNotFound))
		return
	}

	result, err := s.ports.Provisioning.Provision(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	if s.ports.History == nil {
		writeError(w, fmt.Errorf("%w: history is not configured", domain.ErrNotFound))
		return
	}

	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		writeError(w, fmt.Errorf("%w: days must be a positive integer", domain.ErrInvalidInput))
		return
	}

	removed, err := s.ports.History.Prune(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed, "days": days})
}

func (s *Server) handleListScripts(w http.ResponseWriter, _ *http.Request) {
	names := []string{}
	if s.ports.Scripts != nil {
		names = append(names, s.ports.Scripts.Names()...)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"scripts": names})
}

// handleRunScript streams the script output as plain text. Once output has
// started the status is fixed at 200, so a failure is reported as the
// final line of the body.
func (s *Server) handleRunScript(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if s.ports.Scripts == nil || !slices.Contains(s.ports.Scripts.Names(), name) {
		writeError(w, fmt.Errorf("%w: %s", domain.ErrUnknownScript, name))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if err := s.ports.Scripts.Run(r.Context(), name, w); err != nil {
		_, _ = fmt.Fprintf(w, "\nerror: %v\n", err)
	}
}

// decodeBody reads an optional JSON body. An empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
