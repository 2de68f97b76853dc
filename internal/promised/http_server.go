package promised

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/GoSim-25-26J-441/promise-core/internal/compare"
	"github.com/GoSim-25-26J-441/promise-core/internal/metrics"
	"github.com/GoSim-25-26J-441/promise-core/internal/report"
	"github.com/GoSim-25-26J-441/promise-core/internal/story"
	"github.com/GoSim-25-26J-441/promise-core/pkg/logger"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

type HTTPServer struct {
	mux       *http.ServeMux
	ctx       context.Context
	session   *Session
	player    *story.Player
	feed      *story.Feed
	startedAt time.Time
}

// NewHTTPServer creates the HTTP API. ctx bounds background work started
// through the API, such as story playback. player and feed may be nil.
func NewHTTPServer(ctx context.Context, session *Session, player *story.Player, feed *story.Feed) *HTTPServer {
	s := &HTTPServer{
		mux:       http.NewServeMux(),
		ctx:       ctx,
		session:   session,
		player:    player,
		feed:      feed,
		startedAt: time.Now(),
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/network", s.handleNetwork)
	s.mux.HandleFunc("/v1/rules", s.handleRules)
	s.mux.HandleFunc("/v1/scenario", s.handleScenario)
	s.mux.HandleFunc("/v1/scenario:reset", s.handleReset)
	s.mux.HandleFunc("/v1/scenario:apply-actions", s.handleApplyActions)
	s.mux.HandleFunc("/v1/kpis", s.handleKPIs)
	s.mux.HandleFunc("/v1/actions", s.handleActions)
	s.mux.HandleFunc("/v1/evaluate", s.handleEvaluate)
	s.mux.HandleFunc("/v1/preview", s.handlePreview)
	s.mux.HandleFunc("/v1/report", s.handleReport)
	s.mux.HandleFunc("/v1/metrics", s.handleMetrics)
	s.mux.HandleFunc("/v1/metrics/summary", s.handleMetricsSummary)
	s.mux.HandleFunc("/v1/metrics/timeseries", s.handleTimeSeries)
	s.mux.HandleFunc("/v1/evaluations/stream", s.handleEvaluationStream)
	s.mux.HandleFunc("/v1/evaluations/ws", s.handleEvaluationSocket)
	s.mux.HandleFunc("/v1/story", s.handleStoryStatus)
	s.mux.HandleFunc("/v1/story:play", s.handleStoryPlay)
	s.mux.HandleFunc("/v1/story:stop", s.handleStoryStop)
	s.mux.HandleFunc("/v1/activity", s.handleActivity)

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	})
}

// handleNetwork handles GET /v1/network
func (s *HTTPServer) handleNetwork(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Evaluator().Network())
}

// handleRules handles GET /v1/rules
func (s *HTTPServer) handleRules(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"rules": s.session.Evaluator().Rules().Rules(),
	})
}

// handleScenario handles GET, PUT and PATCH /v1/scenario
func (s *HTTPServer) handleScenario(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, s.session.Current().Scenario)
	case http.MethodPut:
		cfg, err := decodeScenario(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := cfg.Validate(); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ev := s.session.Update(cfg, metrics.SourceUser)
		logger.Info("scenario replaced (HTTP)", "evaluation_id", ev.ID)
		s.writeJSON(w, http.StatusOK, ev)
	case http.MethodPatch:
		var req struct {
			Changes []models.Delta `json:"changes"`
		}
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if len(req.Changes) == 0 {
			s.writeError(w, http.StatusBadRequest, "changes are required")
			return
		}
		ev, err := s.session.Patch(req.Changes, metrics.SourceUser)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, ev)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleReset handles POST /v1/scenario:reset
func (s *HTTPServer) handleReset(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Reset(metrics.SourceReset))
}

// handleApplyActions handles POST /v1/scenario:apply-actions
func (s *HTTPServer) handleApplyActions(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.ApplyActions(metrics.SourceApply))
}

// handleKPIs handles GET /v1/kpis
func (s *HTTPServer) handleKPIs(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	ev := s.session.Current()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"evaluation_id": ev.ID,
		"kpi":           ev.KPI,
	})
}

// handleActions handles GET /v1/actions
func (s *HTTPServer) handleActions(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	ev := s.session.Current()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"evaluation_id": ev.ID,
		"actions":       ev.Actions,
	})
}

// handleEvaluate handles POST /v1/evaluate. The session is not changed.
func (s *HTTPServer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	cfg, err := decodeScenario(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Evaluator().Evaluate(cfg))
}

// handlePreview handles POST /v1/preview
func (s *HTTPServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Scenario  *models.ScenarioConfig `json:"scenario,omitempty"`
		Objective string                 `json:"objective,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg := s.session.Current().Scenario
	if req.Scenario != nil {
		cfg = *req.Scenario
	}
	p, err := s.session.Evaluator().Preview(cfg, req.Objective)
	if err != nil {
		var unknown *compare.UnknownObjectiveError
		if errors.As(err, &unknown) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// handleReport handles GET /v1/report
func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := report.WriteEvaluation(w, s.session.Current()); err != nil {
		logger.Error("failed to write report", "error", err)
	}
}

// handleTimeSeries handles GET /v1/metrics/timeseries?metric=...
func (s *HTTPServer) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	names := r.URL.Query()["metric"]
	series := metrics.Snapshot(s.session.Collector(), names...)
	if source := r.URL.Query().Get("source"); source != "" {
		series = metrics.SourceSnapshot(s.session.Collector(), source, names...)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"series": series,
	})
}

// handleMetrics handles GET and DELETE /v1/metrics
func (s *HTTPServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, map[string]any{
			"metrics": metrics.Catalog(s.session.Collector()),
		})
	case http.MethodDelete:
		s.session.Collector().Clear()
		logger.Info("metrics history cleared")
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleMetricsSummary handles GET /v1/metrics/summary
func (s *HTTPServer) handleMetricsSummary(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.Collector().GetSummary())
}

// handleEvaluationStream handles GET /v1/evaluations/stream (SSE)
func (s *HTTPServer) handleEvaluationStream(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}

	updates, cancel := s.session.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	s.sendSSEEvent(w, "evaluation", s.session.Current())
	flush(w)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return
		case ev, ok := <-updates:
			if !ok {
				return
			}
			s.sendSSEEvent(w, "evaluation", ev)
			flush(w)
		}
	}
}

// handleStoryStatus handles GET /v1/story
func (s *HTTPServer) handleStoryStatus(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	if s.player == nil {
		s.writeError(w, http.StatusNotFound, "story mode is not configured")
		return
	}
	s.writeJSON(w, http.StatusOK, s.player.Status())
}

// handleStoryPlay handles POST /v1/story:play
func (s *HTTPServer) handleStoryPlay(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	if s.player == nil {
		s.writeError(w, http.StatusNotFound, "story mode is not configured")
		return
	}
	id, err := s.player.Start(s.ctx, s.session, func(res story.StepResult) {
		logger.Info("story step", "story_id", res.StoryID, "step", res.Step.Index, "message", res.Step.Message)
	})
	if err != nil {
		if errors.Is(err, story.ErrStoryRunning) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.Info("story started (HTTP)", "story_id", id)
	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"story_id": id,
		"status":   s.player.Status(),
	})
}

// handleStoryStop handles POST /v1/story:stop
func (s *HTTPServer) handleStoryStop(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	if s.player == nil {
		s.writeError(w, http.StatusNotFound, "story mode is not configured")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"stopped": s.player.Stop(),
	})
}

// handleActivity handles GET /v1/activity?limit=n
func (s *HTTPServer) handleActivity(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	entries := []story.Activity{}
	if s.feed != nil {
		entries = s.feed.Recent(limit)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"activity": entries,
	})
}

func (s *HTTPServer) allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// decodeScenario reads a scenario body; fields it omits keep their defaults
func decodeScenario(r *http.Request) (models.ScenarioConfig, error) {
	cfg := models.DefaultScenario()
	if err := decodeBody(r, &cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.New("invalid request body: " + err.Error())
	}
	return cfg, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *HTTPServer) sendSSEEvent(w http.ResponseWriter, eventType string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Error("failed to marshal SSE event data", "error", err)
		return
	}
	// streams are best-effort; write errors end up as a closed request context
	if _, err := w.Write([]byte("event: " + eventType + "\n")); err != nil {
		logger.Error("failed to write SSE event header", "error", err)
		return
	}
	if _, err := w.Write([]byte("data: " + string(jsonData) + "\n\n")); err != nil {
		logger.Error("failed to write SSE event data", "error", err)
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
