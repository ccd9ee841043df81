// Package handler provides HTTP handlers for the ingestion API. Handlers
// drive the orchestrator and validation pipeline directly, with no service
// layer in between.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rffl/codex-data/internal/api/respond"
	"github.com/rffl/codex-data/internal/config"
	"github.com/rffl/codex-data/internal/ingest"
	"github.com/rffl/codex-data/internal/model"
	"github.com/rffl/codex-data/internal/store"
	"github.com/rffl/codex-data/internal/validate"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool         *pgxpool.Pool
	orchestrator *ingest.Orchestrator
	jobs         ingest.Store
	pipeline     *validate.Pipeline
	cfg          *config.Config
	logger       *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(pool *pgxpool.Pool, orch *ingest.Orchestrator, jobs ingest.Store, pipeline *validate.Pipeline, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		pool:         pool,
		orchestrator: orch,
		jobs:         jobs,
		pipeline:     pipeline,
		cfg:          cfg,
		logger:       logger,
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"name":    "RFFL Codex Data API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ingestConfigRequest mirrors ingest.Config with tri-state booleans so an
// omitted flag falls back to the server defaults instead of false.
type ingestConfigRequest struct {
	StartYear     int   `json:"startYear"`
	EndYear       int   `json:"endYear"`
	TargetLeagues []int `json:"targetLeagues"`
	BatchSize     int   `json:"batchSize"`
	ParallelJobs  int   `json:"parallelJobs"`
	RetryAttempts int   `json:"retryAttempts"`
	ValidateData  *bool `json:"validateData"`
	SkipExisting  *bool `json:"skipExisting"`
}

// decodeIngestConfig reads a run configuration from the request body. An
// empty body means "use the server defaults".
func (h *Handler) decodeIngestConfig(r *http.Request) (ingest.Config, error) {
	var req ingestConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return ingest.Config{}, errors.New("invalid ingestion config: " + err.Error())
	}

	cfg := ingest.Config{
		StartYear:     req.StartYear,
		EndYear:       req.EndYear,
		TargetLeagues: req.TargetLeagues,
		BatchSize:     req.BatchSize,
		ParallelJobs:  req.ParallelJobs,
		RetryAttempts: req.RetryAttempts,
		ValidateData:  h.cfg.IngestValidateData,
		SkipExisting:  h.cfg.IngestSkipExisting,
	}
	if req.ValidateData != nil {
		cfg.ValidateData = *req.ValidateData
	}
	if req.SkipExisting != nil {
		cfg.SkipExisting = *req.SkipExisting
	}
	return cfg, nil
}

// IngestHistory starts a background league-history run and responds with
// the job ID for polling.
func (h *Handler) IngestHistory(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.decodeIngestConfig(r)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.applyConfigDefaults(&cfg)

	jobID, err := h.orchestrator.StartLeagueHistory(r.Context(), cfg)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("accepted history ingestion request",
		"job_id", jobID, "leagues", len(cfg.TargetLeagues))
	respond.WriteJSONObject(w, http.StatusAccepted, map[string]any{
		"jobId":  jobID,
		"status": model.JobRunning,
	})
}

// IngestLeague runs a single-league ingestion synchronously and returns
// its result.
func (h *Handler) IngestLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, err := strconv.Atoi(chi.URLParam(r, "leagueID"))
	if err != nil || leagueID < 1 {
		respond.WriteError(w, http.StatusBadRequest, "invalid league id")
		return
	}

	cfg, err := h.decodeIngestConfig(r)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg.TargetLeagues = []int{leagueID}
	h.applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		respond.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.orchestrator.IngestSingleLeague(r.Context(), leagueID, cfg)
	respond.WriteJSON(w, http.StatusOK, result)
}

// ValidatePayload runs the validation pipeline over a posted payload.
func (h *Handler) ValidatePayload(w http.ResponseWriter, r *http.Request) {
	dataType := chi.URLParam(r, "dataType")

	payload, err := decodeValidationPayload(dataType, r)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	vctx := validate.Context{Position: r.URL.Query().Get("position")}
	result := h.pipeline.Validate(dataType, payload, vctx)
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"result":       result,
		"qualityScore": validate.QualityScore(result),
	})
}

// GetJob returns one job audit record.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := h.jobs.GetJob(r.Context(), jobID)
	if errors.Is(err, store.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		h.logger.Error("job lookup failed", "job_id", jobID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "job lookup failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) applyConfigDefaults(cfg *ingest.Config) {
	if cfg.StartYear == 0 {
		cfg.StartYear = h.cfg.ESPNCutoverSeason
	}
	if cfg.EndYear == 0 {
		cfg.EndYear = time.Now().Year()
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = h.cfg.IngestBatchSize
	}
	if len(cfg.TargetLeagues) == 0 {
		cfg.TargetLeagues = h.cfg.TargetLeagues
	}
}

// decodeValidationPayload picks the concrete shape for the data type so
// the business-rule stage sees a typed value. Unknown types pass the raw
// JSON through; the pipeline skips stages that don't apply.
func decodeValidationPayload(dataType string, r *http.Request) (any, error) {
	dec := json.NewDecoder(r.Body)
	switch dataType {
	case "player_stats":
		var stats model.PlayerWeekStats
		if err := dec.Decode(&stats); err != nil {
			return nil, errors.New("invalid player stats payload: " + err.Error())
		}
		return stats, nil
	case "league_config":
		var settings model.LeagueSeasonSettings
		if err := dec.Decode(&settings); err != nil {
			return nil, errors.New("invalid league config payload: " + err.Error())
		}
		return settings, nil
	case "matchup":
		var matchup model.Matchup
		if err := dec.Decode(&matchup); err != nil {
			return nil, errors.New("invalid matchup payload: " + err.Error())
		}
		return matchup, nil
	default:
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.New("invalid JSON payload: " + err.Error())
		}
		return raw, nil
	}
}
