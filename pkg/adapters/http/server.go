package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/checklist"
	"github.com/aretw0/checklist/api"
	"github.com/aretw0/checklist/internal/codec"
	"github.com/aretw0/checklist/internal/logging"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/aretw0/checklist/pkg/observability"
	"github.com/aretw0/checklist/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// maxBodyBytes caps the size of a submitted checklist.
const maxBodyBytes = 1 << 20

// Server exposes a ChecklistService over HTTP.
type Server struct {
	Service ports.ChecklistService
	Streams *observability.Stream
	Metrics http.Handler
	Health  func(ctx context.Context) error
	Logger  *slog.Logger

	// routes matches requests to the operations of the OpenAPI document.
	routes routers.Router
}

// Option configures the Server.
type Option func(*Server)

// WithStream enables GET /events on the given lifecycle stream.
func WithStream(stream *observability.Stream) Option {
	return func(s *Server) {
		s.Streams = stream
	}
}

// WithMetrics mounts a Prometheus handler on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithHealthCheck makes GET /healthz report the result of check (e.g. a broker ping).
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.Health = check
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the checklist service.
func NewHandler(svc ports.ChecklistService, opts ...Option) http.Handler {
	server := &Server{
		Service: svc,
		Logger:  logging.NewNop(),
		routes:  api.MustRouter(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		if _, err := w.Write(api.Raw()); err != nil {
			server.Logger.Warn("openapi document write failed", "err", err)
		}
	})
	r.Get("/healthz", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/status", server.GetStatus)
	r.Get("/report", server.GetReport)
	r.Post("/checklists", server.StartChecklist)
	if server.Streams != nil {
		r.Get("/events", server.SubscribeEvents)
	}
	if server.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.Metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if s.Health != nil {
		if err := s.Health(r.Context()); err != nil {
			s.Logger.Warn("health check failed", "err", err)
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "checklist-http",
		"version":     strings.TrimSpace(checklist.Version),
		"api_version": api.Version(),
	})
}

// GetStatus handles the GET /status request.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, domain.Summarize(s.Service.Snapshot()))
}

// GetReport handles the GET /report request.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.Service.LastReport()
	if !ok {
		http.Error(w, "No checklist has finished yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// StartChecklist handles the POST /checklists request.
// The body is a start message; it is validated here so that clients get the error.
func (s *Server) StartChecklist(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("StartChecklist: unreadable body", "err", err)
		return
	}

	// 1. Contract check against the OpenAPI document
	if err := s.validateRequest(r, body); err != nil {
		s.writeDecodeError(w, err)
		return
	}

	// 2. Checklist rules (required values, duplicate ids, defaults)
	req, err := codec.DecodeStart(body)
	if err != nil {
		s.writeDecodeError(w, err)
		return
	}

	if err := s.Service.Start(r.Context(), *req); err != nil {
		http.Error(w, fmt.Sprintf("Start error: %v", err), http.StatusBadGateway)
		s.Logger.Error("StartChecklist failed", "checklist_id", req.ID, "err", err)
		return
	}

	s.Logger.Info("checklist submitted over HTTP", "checklist_id", req.ID)
	s.writeJSON(w, http.StatusAccepted, StartResponse{ID: req.ID, Accepted: true})
}

// StartResponse is the body of a 202 from POST /checklists.
type StartResponse struct {
	ID       string `json:"id"`
	Accepted bool   `json:"accepted"`
}

// validateRequest checks r, whose body has already been read, against its operation.
func (s *Server) validateRequest(r *http.Request, body []byte) error {
	r.Body = io.NopCloser(bytes.NewReader(body))
	if r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", "application/json")
	}

	route, params, err := s.routes.FindRoute(r)
	if err != nil {
		return fmt.Errorf("no operation for %s %s: %w", r.Method, r.URL.Path, err)
	}
	return openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: params,
		Route:      route,
	})
}

// writeDecodeError answers 400 with the kind and field of a rejected start message.
func (s *Server) writeDecodeError(w http.ResponseWriter, err error) {
	var decodeErr *domain.DecodeError
	if !errors.As(err, &decodeErr) {
		decodeErr = fromSchemaError(err)
	}
	s.writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": decodeErr.Error(),
		"kind":  string(decodeErr.Kind),
		"field": decodeErr.Field,
	})
}

// fromSchemaError maps an OpenAPI validation failure onto the decode error kinds
// used on the bus, so HTTP clients see the same field paths (e.g. items[0].text).
func fromSchemaError(err error) *domain.DecodeError {
	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		return domain.Malformed("", err)
	}
	field := fieldPath(schemaErr.JSONPointer())
	if schemaErr.SchemaField == "required" {
		return domain.MissingField(field)
	}
	return domain.Malformed(field, errors.New(schemaErr.Reason))
}

func fieldPath(pointer []string) string {
	var b strings.Builder
	for _, part := range pointer {
		if _, err := strconv.Atoi(part); err == nil {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

// SubscribeEvents handles the GET /events request (SSE).
// The optional checklist_id parameter narrows the stream; watch filters by event type.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var checklistID string
	var watchList []string
	if err := s.bindEventParams(r, &checklistID, &watchList); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ch, cancel := s.Streams.Subscribe(checklistID)
	defer cancel()

	s.Logger.Info("SSE: client subscribed", "checklist_id", checklistID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			kind := eventType(msg)
			if len(watchList) > 0 && !slices.Contains(watchList, kind) {
				continue
			}
			if kind != "" {
				fmt.Fprintf(w, "event: %s\n", kind)
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// bindEventParams reads the query parameters of GET /events as declared in the
// OpenAPI document: checklist_id is a string, watch a comma separated list.
func (s *Server) bindEventParams(r *http.Request, checklistID *string, watch *[]string) error {
	query := r.URL.Query()

	var id *string
	if err := runtime.BindQueryParameter("form", true, false, "checklist_id", query, &id); err != nil {
		return fmt.Errorf("invalid checklist_id: %w", err)
	}
	if id != nil {
		*checklistID = *id
	}

	var kinds *[]string
	if err := runtime.BindQueryParameter("form", false, false, "watch", query, &kinds); err != nil {
		return fmt.Errorf("invalid watch: %w", err)
	}
	if kinds != nil {
		for _, kind := range *kinds {
			if kind = strings.TrimSpace(kind); kind != "" {
				*watch = append(*watch, kind)
			}
		}
	}
	return nil
}

// eventType extracts the lifecycle type of an encoded notification.
func eventType(msg string) string {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(msg), &head); err != nil {
		return ""
	}
	return head.Type
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "status", status, "err", err)
	}
}
