package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	orchestrationengine "adorchestra/contexts/campaign-orchestration/orchestration-engine"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	orchestrationhttp "adorchestra/contexts/campaign-orchestration/orchestration-engine/transport/http"

	_ "adorchestra/internal/platform/httpserver/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	orchestration orchestrationengine.Module
}

func New(orchestration orchestrationengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		orchestration: orchestration,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/orchestrations", s.handleCreateOrchestration)
	s.mux.HandleFunc("GET /v1/orchestrations", s.handleListOrchestrations)
	s.mux.HandleFunc("GET /v1/orchestrations/{orchestration_id}", s.handleGetOrchestration)
	s.mux.HandleFunc("POST /v1/orchestrations/{orchestration_id}/deploy", s.handleRequestOperation("deploy"))
	s.mux.HandleFunc("POST /v1/orchestrations/{orchestration_id}/sync", s.handleRequestOperation("sync"))
	s.mux.HandleFunc("POST /v1/orchestrations/{orchestration_id}/pause", s.handleRequestOperation("pause"))
	s.mux.HandleFunc("POST /v1/orchestrations/{orchestration_id}/resume", s.handleRequestOperation("resume"))
	s.mux.HandleFunc("POST /v1/orchestrations/{orchestration_id}/optimize", s.handleRequestOperation("optimize"))
	s.mux.HandleFunc("PUT /v1/orchestrations/{orchestration_id}/platforms/{platform}/budget", s.handleUpdatePlatformBudget)
	s.mux.HandleFunc("GET /v1/orchestrations/{orchestration_id}/performance", s.handleGetPerformance)
	s.mux.HandleFunc("GET /v1/orchestrations/{orchestration_id}/workflows", s.handleListWorkflows)
	s.mux.HandleFunc("GET /v1/orchestrations/{orchestration_id}/sync-logs", s.handleListSyncLogs)
}

func (s *Server) handleCreateOrchestration(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req orchestrationhttp.CreateOrchestrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrchestrationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orchestration.Handler.CreateOrchestrationHandler(r.Context(), orgID, userID, req)
	if err != nil {
		writeOrchestrationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListOrchestrations(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := requireTenant(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit, ok := parseLimit(w, query.Get("limit"))
	if !ok {
		return
	}
	resp, err := s.orchestration.Handler.ListOrchestrationsHandler(r.Context(), orgID, query.Get("status"), limit)
	if err != nil {
		writeOrchestrationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOrchestration(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := requireTenant(w, r)
	if !ok {
		return
	}
	resp, err := s.orchestration.Handler.GetOrchestrationHandler(r.Context(), orgID, r.PathValue("orchestration_id"))
	if err != nil {
		writeOrchestrationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRequestOperation queues one of deploy, sync, pause, resume or optimize.
func (s *Server) handleRequestOperation(operation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, userID, ok := requireTenant(w, r)
		if !ok {
			return
		}
		var req orchestrationhttp.OperationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeOrchestrationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
		resp, err := s.orchestration.Handler.RequestOperationHandler(
			r.Context(),
			orgID,
			userID,
			r.PathValue("orchestration_id"),
			operation,
			req,
		)
		if err != nil {
			writeOrchestrationDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, resp)
	}
}

func (s *Server) handleUpdatePlatformBudget(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := requireTenant(w, r)
	if !ok {
		return
	}
	var req orchestrationhttp.UpdatePlatformBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOrchestrationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orchestration.Handler.UpdatePlatformBudgetHandler(
		r.Context(),
		orgID,
		userID,
		r.PathValue("orchestration_id"),
		r.PathValue("platform"),
		req,
	)
	if err != nil {
		writeOrchestrationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleGetPerformance(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := requireTenant(w, r)
	if !ok {
		return
	}
	resp, err := s.orchestration.Handler.GetPerformanceHandler(r.Context(), orgID, r.PathValue("orchestration_id"))
	if err != nil {
		writeOrchestrationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := requireTenant(w, r)
	if !ok {
		return
	}
	resp, err := s.orchestration.Handler.ListWorkflowsHandler(r.Context(), orgID, r.PathValue("orchestration_id"))
	if err != nil {
		writeOrchestrationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSyncLogs(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := requireTenant(w, r)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r.URL.Query().Get("limit"))
	if !ok {
		return
	}
	resp, err := s.orchestration.Handler.ListSyncLogsHandler(r.Context(), orgID, r.PathValue("orchestration_id"), limit)
	if err != nil {
		writeOrchestrationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireTenant(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	orgID := strings.TrimSpace(r.Header.Get("X-Org-Id"))
	if orgID == "" {
		writeOrchestrationError(w, http.StatusUnauthorized, "missing_org", "X-Org-Id header is required")
		return "", "", false
	}
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeOrchestrationError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", "", false
	}
	return orgID, userID, true
}

func parseLimit(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		writeOrchestrationError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return 0, false
	}
	return limit, true
}

func writeOrchestrationDomainError(w http.ResponseWriter, err error) {
	var platformErr *domainerrors.PlatformError
	switch {
	case errors.Is(err, domainerrors.ErrOrchestrationNotFound),
		errors.Is(err, domainerrors.ErrPlatformMappingNotFound),
		errors.Is(err, domainerrors.ErrWorkflowNotFound),
		errors.Is(err, domainerrors.ErrTemplateNotFound),
		errors.Is(err, domainerrors.ErrConnectionNotFound):
		writeOrchestrationError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidStateTransition):
		writeOrchestrationError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, domainerrors.ErrConcurrentModification),
		errors.Is(err, domainerrors.ErrIdempotencyKeyConflict):
		writeOrchestrationError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domainerrors.ErrNoActiveConnection),
		errors.Is(err, domainerrors.ErrMissingPlatformMapping),
		errors.Is(err, domainerrors.ErrConnectionInactive),
		errors.Is(err, domainerrors.ErrMappingNotDeployed):
		writeOrchestrationError(w, http.StatusUnprocessableEntity, "configuration_error", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidOrchestrationInput),
		errors.Is(err, domainerrors.ErrUnsupportedPlatform),
		errors.Is(err, domainerrors.ErrUnsupportedSyncType),
		errors.Is(err, domainerrors.ErrUnsupportedOperation):
		writeOrchestrationError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
	case errors.As(err, &platformErr),
		errors.Is(err, domainerrors.ErrMissingExternalID):
		writeOrchestrationError(w, http.StatusBadGateway, "platform_error", err.Error())
	default:
		writeOrchestrationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeOrchestrationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, orchestrationhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
