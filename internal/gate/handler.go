package gate

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
	"github.com/xela07ax/vaultgate-prototype/internal/infra/auth"
)

// SignRequest — тело POST /v1/sign. Дефолты полей Intent совпадают
// с CLI: data "0x", chain_id 1, nonce 0.
type SignRequest struct {
	Actor  string        `json:"actor"`
	Intent domain.Intent `json:"intent"`
}

func (r *SignRequest) applyDefaults() {
	if r.Intent.Data == "" {
		r.Intent.Data = "0x"
	}
	if r.Intent.ChainID == 0 {
		r.Intent.ChainID = 1
	}
}

// handleSign — основная операция шлюза.
// 200 — intent подписан; 403 — отказ политики с конкретной причиной;
// 400 — битое тело запроса; 500 — инфраструктурная ошибка.
func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req SignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.applyDefaults()

	signed, err := s.vault.Sign(r.Context(), req.Intent, req.Actor)
	if err != nil {
		if rej, ok := domain.AsRejection(err); ok {
			s.metrics.SignTotal.WithLabelValues(req.Actor, "rejected").Inc()
			s.metrics.RejectionTotal.WithLabelValues(string(rej.Code)).Inc()
			s.metrics.SignDuration.WithLabelValues("rejected").Observe(time.Since(start).Seconds())
			writeJSONError(w, http.StatusForbidden, rej.Message)
			return
		}

		// Не отдаем детали внутренних ошибок наружу
		s.logger.Error("sign failed",
			zap.String("trace_id", extractTraceID(r.Context())),
			zap.Error(err))
		s.metrics.SignTotal.WithLabelValues(req.Actor, "error").Inc()
		s.metrics.SignDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.metrics.SignTotal.WithLabelValues(req.Actor, "signed").Inc()
	s.metrics.SignDuration.WithLabelValues("signed").Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, signed)
}

// handleLogin выдает оператору RS256 токен. POST /auth/token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.auth.GenerateToken(req.Username, req.Password)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// handleListGuardians — GET /v1/guardians
func (s *Server) handleListGuardians(w http.ResponseWriter, r *http.Request) {
	guardiansList, err := s.guardians.List(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to fetch guardians")
		return
	}
	writeJSON(w, http.StatusOK, guardiansList)
}

// handleGetGuardian — GET /v1/guardians/{name}
func (s *Server) handleGetGuardian(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	g, err := s.guardians.Get(r.Context(), name)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to retrieve guardian")
		return
	}
	if g == nil {
		writeJSONError(w, http.StatusNotFound, "guardian not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// handleAddGuardian — POST /v1/guardians
func (s *Server) handleAddGuardian(w http.ResponseWriter, r *http.Request) {
	if !hasWriteScope(r) {
		writeJSONError(w, http.StatusForbidden, "missing guardians:write scope")
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "guardian name is required")
		return
	}

	if err := s.guardians.Add(r.Context(), body.Name); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// handleRemoveGuardian — DELETE /v1/guardians/{name}
func (s *Server) handleRemoveGuardian(w http.ResponseWriter, r *http.Request) {
	if !hasWriteScope(r) {
		writeJSONError(w, http.StatusForbidden, "missing guardians:write scope")
		return
	}

	name := chi.URLParam(r, "name")
	if err := s.guardians.Remove(r.Context(), name); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Мутации множества опекунов требуют отдельного права в токене
func hasWriteScope(r *http.Request) bool {
	scopes, ok := auth.ScopesFromContext(r.Context())
	return ok && scopes["guardians:write"]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
