package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/cloakward-ai/cloakward/internal/audit"
	"github.com/cloakward-ai/cloakward/internal/redact"
	"github.com/cloakward-ai/cloakward/internal/transform"
)

type anonymizeRequest struct {
	Text    string `json:"text"`
	Mode    string `json:"mode"`
	CallLLM bool   `json:"call_llm"`
}

type anonymizeResponse struct {
	AnonymizedText        string `json:"anonymized_text"`
	Mode                  string `json:"mode"`
	MappingsCount         int    `json:"mappings_count"`
	LLMResponseAnonymized string `json:"llm_response_anonymized,omitempty"`
	DeanonymizedOutput    string `json:"deanonymized_output,omitempty"`
}

func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req anonymizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "missing text")
		return
	}
	if req.Mode == "" {
		req.Mode = transform.ModePseudonymize
	}

	ctx := r.Context()
	start := time.Now()
	ev := audit.NewEvent(audit.OpAnonymize)
	ev.Mode = req.Mode

	anonymized, mappings, err := s.engine.Anonymize(ctx, req.Text, req.Mode)
	if err != nil {
		var modeErr *transform.InvalidModeError
		if errors.As(err, &modeErr) {
			writeError(w, http.StatusBadRequest, modeErr.Error())
		} else {
			redact.Logf("anonymize error: %v", err)
			writeError(w, http.StatusInternalServerError, "anonymization failed")
		}
		s.emitAudit(ev.Finish(start, err))
		return
	}

	known := mappings
	if len(mappings) > 0 && s.store != nil {
		if err := s.store.Save(mappings); err != nil {
			redact.Logf("persist mappings: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to persist mappings")
			s.emitAudit(ev.Finish(start, err))
			return
		}
	}
	if s.store != nil {
		if all, err := s.store.Load(); err == nil {
			known = all
		}
	}

	resp := anonymizeResponse{
		AnonymizedText: anonymized,
		Mode:           req.Mode,
		MappingsCount:  len(mappings),
	}

	providerCalled := false
	if req.CallLLM && s.provider != nil {
		providerCalled = true
		llmResp, err := s.provider.GenerateResponse(ctx, anonymized)
		if err != nil {
			redact.Logf("provider error: %v", err)
			writeError(w, http.StatusBadGateway, "upstream provider error")
			s.emitAudit(ev.Finish(start, err))
			return
		}
		resp.LLMResponseAnonymized = llmResp
		resp.DeanonymizedOutput = transform.Deanonymize(llmResp, known)
	}

	ev.MappingsCount = len(mappings)
	ev.ProviderCalled = providerCalled
	s.emitAudit(ev.Finish(start, nil))
	s.recordMetrics(audit.OpAnonymize, req.Mode, "ok", start, len(mappings))

	writeJSON(w, resp)
}

type deanonymizeRequest struct {
	Text string `json:"text"`
}

type deanonymizeResponse struct {
	DeanonymizedText string `json:"deanonymized_text"`
	MappingsUsed     int    `json:"mappings_used"`
}

func (s *Server) handleDeanonymize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req deanonymizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "missing text")
		return
	}

	start := time.Now()
	ev := audit.NewEvent(audit.OpDeanonymize)

	mappings, err := s.storedMappings()
	if err != nil {
		redact.Logf("load mappings: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load mappings")
		s.emitAudit(ev.Finish(start, err))
		return
	}

	ev.MappingsCount = len(mappings)
	s.emitAudit(ev.Finish(start, nil))
	s.recordMetrics(audit.OpDeanonymize, "", "ok", start, 0)

	writeJSON(w, deanonymizeResponse{
		DeanonymizedText: transform.Deanonymize(req.Text, mappings),
		MappingsUsed:     len(mappings),
	})
}

type previewRequest struct {
	Text        string `json:"text"`
	MaxExamples int    `json:"max_examples"`
}

type previewResponse struct {
	Detections map[string][]string `json:"detections"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req previewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "missing text")
		return
	}

	start := time.Now()
	ev := audit.NewEvent(audit.OpPreview)

	preview, err := s.engine.PreviewDetection(r.Context(), req.Text, req.MaxExamples)
	if err != nil {
		redact.Logf("preview error: %v", err)
		writeError(w, http.StatusInternalServerError, "detection failed")
		s.emitAudit(ev.Finish(start, err))
		return
	}

	s.emitAudit(ev.Finish(start, nil))
	writeJSON(w, previewResponse{Detections: preview})
}

type statsRequest struct {
	Text string `json:"text"`
}

type statsResponse struct {
	EntityCounts  map[string]int `json:"entity_counts"`
	TotalEntities int            `json:"total_entities"`
	StoredCount   int            `json:"stored_mappings_count"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req statsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "missing text")
		return
	}

	start := time.Now()
	ev := audit.NewEvent(audit.OpStats)

	counts, err := s.engine.DetectionStats(r.Context(), req.Text)
	if err != nil {
		redact.Logf("stats error: %v", err)
		writeError(w, http.StatusInternalServerError, "detection failed")
		s.emitAudit(ev.Finish(start, err))
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	stored := 0
	if s.store != nil {
		if n, err := s.store.Count(); err == nil {
			stored = n
		}
	}

	ev.EntityCounts = counts
	ev.MappingsCount = stored
	s.emitAudit(ev.Finish(start, nil))

	writeJSON(w, statsResponse{
		EntityCounts:  counts,
		TotalEntities: total,
		StoredCount:   stored,
	})
}

type clearMappingsResponse struct {
	Cleared bool `json:"cleared"`
}

func (s *Server) handleClearMappings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	ev := audit.NewEvent(audit.OpClearMappings)

	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			redact.Logf("clear mappings: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to clear mappings")
			s.emitAudit(ev.Finish(start, err))
			return
		}
	}

	s.emitAudit(ev.Finish(start, nil))
	writeJSON(w, clearMappingsResponse{Cleared: true})
}

func (s *Server) recordMetrics(operation, mode, status string, start time.Time, entities int) {
	if s.telemetry == nil {
		return
	}
	durMs := float64(time.Since(start).Microseconds()) / 1000.0
	s.telemetry.RecordRequestMetrics(operation, mode, status, durMs, 0, 0, entities)
}
