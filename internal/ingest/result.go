package ingest

import (
	"errors"
	"fmt"
	"time"
)

// Error types surfaced on IngestionResult. The Recoverable flag decides
// whether a run can still count as successful.
const (
	ErrTypeAPI            = "api_error"
	ErrTypeValidation     = "validation_error"
	ErrTypeTransformation = "transformation_error"
	ErrTypeDatabase       = "database_error"
	ErrTypeIngestion      = "ingestion_error"
)

// IngestionError is one recorded failure during a run.
type IngestionError struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	LeagueID    int    `json:"leagueId,omitempty"`
	SeasonYear  int    `json:"seasonYear,omitempty"`
	Week        int    `json:"week,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

// Performance captures run timing for one result.
type Performance struct {
	StartTime        time.Time     `json:"startTime"`
	EndTime          time.Time     `json:"endTime"`
	Duration         time.Duration `json:"duration"`
	RecordsPerSecond float64       `json:"recordsPerSecond"`
	APIRequestCount  int           `json:"apiRequestCount"`
}

// IngestionResult is the structured outcome of one league or season run.
// Callers inspect Success and Errors rather than relying on returned
// errors for expected data-quality problems.
type IngestionResult struct {
	Success         bool             `json:"success"`
	LeagueID        int              `json:"leagueId"`
	SeasonYear      int              `json:"seasonYear"` // 0 for multi-season results
	RecordsIngested int              `json:"recordsIngested"`
	ValidationScore float64          `json:"validationScore"`
	Errors          []IngestionError `json:"errors"`
	Performance     Performance      `json:"performance"`
}

func (r IngestionResult) nonRecoverableCount() int {
	n := 0
	for _, e := range r.Errors {
		if !e.Recoverable {
			n++
		}
	}
	return n
}

// Config drives one orchestration run.
type Config struct {
	StartYear     int   `json:"startYear"`
	EndYear       int   `json:"endYear"`
	TargetLeagues []int `json:"targetLeagues"`
	BatchSize     int   `json:"batchSize"`
	ParallelJobs  int   `json:"parallelJobs"`
	RetryAttempts int   `json:"retryAttempts"`
	ValidateData  bool  `json:"validateData"`
	SkipExisting  bool  `json:"skipExisting"`
}

// Validate checks the run configuration before any work starts.
func (c Config) Validate() error {
	if c.StartYear > c.EndYear {
		return fmt.Errorf("start year %d after end year %d", c.StartYear, c.EndYear)
	}
	if len(c.TargetLeagues) == 0 {
		return errors.New("no target leagues configured")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size %d must be at least 1", c.BatchSize)
	}
	return nil
}

func finishPerformance(p *Performance, records int, end time.Time) {
	p.EndTime = end
	p.Duration = end.Sub(p.StartTime)
	if records > 0 && p.Duration > 0 {
		p.RecordsPerSecond = float64(records) / p.Duration.Seconds()
	}
}
