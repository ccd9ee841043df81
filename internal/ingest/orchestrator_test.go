package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rffl/codex-data/internal/espn"
	"github.com/rffl/codex-data/internal/model"
	"github.com/rffl/codex-data/internal/validate"
)

// --------------------------------------------------------------------------
// fakes
// --------------------------------------------------------------------------

type fakeStore struct {
	mu sync.Mutex

	leagues  map[int]model.League
	settings map[string]model.LeagueSeasonSettings
	jobs     map[string]*model.IngestionJob

	leagueWrites   int
	settingsWrites int
	teamWrites     int
	recordWrites   int
	playerWrites   int
	statsWrites    int
	matchupWrites  int
	txnWrites      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leagues:  make(map[int]model.League),
		settings: make(map[string]model.LeagueSeasonSettings),
		jobs:     make(map[string]*model.IngestionJob),
	}
}

func settingsKey(leagueID, season int) string {
	return fmt.Sprintf("%d-%d", leagueID, season)
}

func (s *fakeStore) totalWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leagueWrites + s.settingsWrites + s.teamWrites + s.recordWrites +
		s.playerWrites + s.statsWrites + s.matchupWrites + s.txnWrites
}

func (s *fakeStore) LeagueExists(_ context.Context, leagueID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.leagues[leagueID]
	return ok, nil
}

func (s *fakeStore) CreateLeague(_ context.Context, league model.League) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leagues[league.ESPNLeagueID] = league
	s.leagueWrites++
	return nil
}

func (s *fakeStore) UpsertLeague(_ context.Context, league model.League) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leagues[league.ESPNLeagueID] = league
	s.leagueWrites++
	return nil
}

func (s *fakeStore) SettingsExist(_ context.Context, leagueID, season int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.settings[settingsKey(leagueID, season)]
	return ok, nil
}

func (s *fakeStore) UpsertLeagueSettings(_ context.Context, settings model.LeagueSeasonSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settingsKey(settings.ESPNLeagueID, settings.SeasonYear)] = settings
	s.settingsWrites++
	return nil
}

func (s *fakeStore) UpsertTeam(_ context.Context, _ model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teamWrites++
	return nil
}

func (s *fakeStore) UpsertTeamRecord(_ context.Context, _ model.TeamSeasonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordWrites++
	return nil
}

func (s *fakeStore) UpsertPlayer(_ context.Context, _ model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerWrites++
	return nil
}

func (s *fakeStore) UpsertPlayerWeekStats(_ context.Context, _ model.PlayerWeekStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statsWrites++
	return nil
}

func (s *fakeStore) UpsertMatchup(_ context.Context, _ model.Matchup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchupWrites++
	return nil
}

func (s *fakeStore) UpsertTransaction(_ context.Context, _ model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txnWrites++
	return nil
}

func (s *fakeStore) CreateJob(_ context.Context, job *model.IngestionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *fakeStore) UpdateJob(_ context.Context, job *model.IngestionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *fakeStore) GetJob(_ context.Context, jobID string) (*model.IngestionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errors.New("job not found")
	}
	copied := *job
	return &copied, nil
}

type fakeClient struct {
	mu sync.Mutex

	seasonErr map[int]error // season year -> GetLeague failure
	leagues   map[string]*espn.LeagueResponse

	leagueCalls int
	playerCalls int

	inFlight     int
	peakInFlight int
}

// enter and exit bracket one simulated API call so tests can observe how
// many leagues the orchestrator drives at once.
func (c *fakeClient) enter() {
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.peakInFlight {
		c.peakInFlight = c.inFlight
	}
	c.mu.Unlock()
	time.Sleep(time.Millisecond)
}

func (c *fakeClient) exit() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		seasonErr: make(map[int]error),
		leagues:   make(map[string]*espn.LeagueResponse),
	}
}

func (c *fakeClient) addSeason(leagueID, year int, resp *espn.LeagueResponse) {
	c.leagues[settingsKey(leagueID, year)] = resp
}

func (c *fakeClient) GetLeague(_ context.Context, leagueID, season int, _ espn.LeagueOptions) (*espn.LeagueResponse, error) {
	c.enter()
	defer c.exit()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leagueCalls++
	if err, ok := c.seasonErr[season]; ok {
		return nil, err
	}
	resp, ok := c.leagues[settingsKey(leagueID, season)]
	if !ok {
		return nil, &espn.APIError{Kind: espn.ErrNotFound, StatusCode: 404}
	}
	return resp, nil
}

func (c *fakeClient) GetPlayers(_ context.Context, _ int, _ espn.PlayersOptions) (*espn.PlayerResponse, error) {
	c.enter()
	defer c.exit()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerCalls++
	return &espn.PlayerResponse{}, nil
}

func (c *fakeClient) GetTransactions(_ context.Context, _, _ int) (*espn.TransactionsResponse, error) {
	return &espn.TransactionsResponse{}, nil
}

// --------------------------------------------------------------------------
// fixtures
// --------------------------------------------------------------------------

func seasonResponse(leagueID, year int) *espn.LeagueResponse {
	return &espn.LeagueResponse{
		ID:              leagueID,
		SeasonID:        year,
		ScoringPeriodID: 1,
		Settings: espn.LeagueSettings{
			Name: "Test League",
			Size: 10,
			ScheduleSettings: espn.ScheduleSettings{
				MatchupPeriodCount: 17,
				PlayoffTeamCount:   6,
			},
			AcquisitionSettings: espn.AcquisitionSettings{WaiverHours: 24},
			DraftSettings:       espn.DraftSettings{Type: "SNAKE"},
		},
		Status: espn.LeagueStatus{
			IsActive:             false,
			IsExpired:            true,
			CurrentMatchupPeriod: 17,
			FinalScoringPeriod:   17,
		},
		Teams: []espn.TeamResponse{
			{ID: 1, Location: "Team", Nickname: "One", Owners: []string{"{A}"}},
			{ID: 2, Location: "Team", Nickname: "Two", Owners: []string{"{B}"}},
		},
		Schedule: []espn.MatchupEntry{{
			ID:              1,
			MatchupPeriodID: 1,
			Winner:          "HOME",
			Home:            &espn.MatchupSide{TeamID: 1, TotalPoints: 110.2},
			Away:            &espn.MatchupSide{TeamID: 2, TotalPoints: 95.8},
		}},
	}
}

func testOrchestrator(client Client, store Store) *Orchestrator {
	return NewOrchestrator(client, store, validate.NewPipeline(nil), nil,
		WithBatchPause(time.Millisecond),
		WithClock(func() time.Time {
			return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		}))
}

func testConfig(leagues []int, start, end int) Config {
	return Config{
		StartYear:     start,
		EndYear:       end,
		TargetLeagues: leagues,
		BatchSize:     5,
		ValidateData:  true,
		SkipExisting:  false,
	}
}

// --------------------------------------------------------------------------
// tests
// --------------------------------------------------------------------------

func TestIngestLeagueSeason_Success(t *testing.T) {
	store := newFakeStore()
	client := newFakeClient()
	client.addSeason(111, 2022, seasonResponse(111, 2022))
	o := testOrchestrator(client, store)

	result := o.IngestLeagueSeason(context.Background(), 111, 2022, testConfig([]int{111}, 2022, 2022))
	if !result.Success {
		t.Fatalf("expected success, errors=%+v", result.Errors)
	}
	// 1 settings row + 2 teams + 1 matchup.
	if result.RecordsIngested != 4 {
		t.Fatalf("records=%d want=4", result.RecordsIngested)
	}
	if result.ValidationScore != 100 {
		t.Fatalf("score=%v want=100", result.ValidationScore)
	}
	if store.teamWrites != 2 || store.matchupWrites != 1 || store.settingsWrites != 1 {
		t.Fatalf("writes teams=%d matchups=%d settings=%d",
			store.teamWrites, store.matchupWrites, store.settingsWrites)
	}
	// League fetch + 18 player weeks + transactions.
	if result.Performance.APIRequestCount != 20 {
		t.Fatalf("api calls=%d want=20", result.Performance.APIRequestCount)
	}
}

func TestIngestLeagueSeason_SkipExisting(t *testing.T) {
	store := newFakeStore()
	client := newFakeClient()
	client.addSeason(111, 2022, seasonResponse(111, 2022))
	o := testOrchestrator(client, store)

	cfg := testConfig([]int{111}, 2022, 2022)
	cfg.SkipExisting = true

	first := o.IngestLeagueSeason(context.Background(), 111, 2022, cfg)
	if !first.Success || first.RecordsIngested == 0 {
		t.Fatalf("first run: %+v", first)
	}
	writesAfterFirst := store.totalWrites()
	callsAfterFirst := client.leagueCalls

	second := o.IngestLeagueSeason(context.Background(), 111, 2022, cfg)
	if !second.Success {
		t.Fatalf("second run failed: %+v", second.Errors)
	}
	if second.RecordsIngested != 0 {
		t.Fatalf("second run records=%d want=0", second.RecordsIngested)
	}
	if store.totalWrites() != writesAfterFirst {
		t.Fatalf("second run wrote %d rows", store.totalWrites()-writesAfterFirst)
	}
	if client.leagueCalls != callsAfterFirst {
		t.Fatal("second run should not hit the API")
	}
}

func TestIngestLeagueSeason_CriticalValidationAborts(t *testing.T) {
	store := newFakeStore()
	client := newFakeClient()
	resp := seasonResponse(111, 2022)
	resp.Teams = nil // schema requires at least 2 teams
	client.addSeason(111, 2022, resp)
	o := testOrchestrator(client, store)

	result := o.IngestLeagueSeason(context.Background(), 111, 2022, testConfig([]int{111}, 2022, 2022))
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.ValidationScore != 0 {
		t.Fatalf("score=%v want=0", result.ValidationScore)
	}
	if store.leagueWrites != 0 || store.settingsWrites != 0 {
		t.Fatal("aborted season must not write league rows")
	}
	hasValidation := false
	for _, e := range result.Errors {
		if e.Type == ErrTypeValidation {
			hasValidation = true
		}
	}
	if !hasValidation {
		t.Fatalf("errors=%+v want a validation error", result.Errors)
	}
}

func TestIngestSingleLeague_PartialSeasonFailure(t *testing.T) {
	store := newFakeStore()
	client := newFakeClient()
	client.addSeason(111, 2021, seasonResponse(111, 2021))
	client.seasonErr[2022] = &espn.APIError{Kind: espn.ErrUpstream, StatusCode: 503}
	o := testOrchestrator(client, store)

	result := o.IngestSingleLeague(context.Background(), 111, testConfig([]int{111}, 2021, 2022))
	if result.Success {
		t.Fatal("a failed season must fail the league aggregate")
	}
	// 2021 data still landed.
	if result.RecordsIngested != 4 {
		t.Fatalf("records=%d want=4 from the good season", result.RecordsIngested)
	}
	var nonRecoverable []IngestionError
	for _, e := range result.Errors {
		if !e.Recoverable {
			nonRecoverable = append(nonRecoverable, e)
		}
	}
	if len(nonRecoverable) != 1 {
		t.Fatalf("non-recoverable errors=%+v want exactly 1", nonRecoverable)
	}
	if nonRecoverable[0].SeasonYear != 2022 || nonRecoverable[0].Type != ErrTypeAPI {
		t.Fatalf("error=%+v want api_error for 2022", nonRecoverable[0])
	}
}

func TestIngestLeagueHistory_EndToEnd(t *testing.T) {
	store := newFakeStore()
	client := newFakeClient()
	client.addSeason(111, 2022, seasonResponse(111, 2022))
	client.addSeason(222, 2022, seasonResponse(222, 2022))
	o := testOrchestrator(client, store)

	cfg := testConfig([]int{111, 222}, 2022, 2022)
	cfg.BatchSize = 1 // exercises the batch pause path

	results, err := o.IngestLeagueHistory(context.Background(), cfg)
	if err != nil {
		t.Fatalf("IngestLeagueHistory: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results=%d want=2", len(results))
	}
	for _, r := range results {
		if !r.Success {
			t.Fatalf("league %d failed: %+v", r.LeagueID, r.Errors)
		}
	}

	if len(store.jobs) != 1 {
		t.Fatalf("jobs=%d want=1", len(store.jobs))
	}
	for _, job := range store.jobs {
		if job.Status != model.JobCompleted {
			t.Fatalf("job status=%s want=completed", job.Status)
		}
		if job.SuccessRate != 1 {
			t.Fatalf("success rate=%v want=1", job.SuccessRate)
		}
		if job.RecordsProcessed != 8 {
			t.Fatalf("records=%d want=8", job.RecordsProcessed)
		}
		if job.QualityScore != 100 {
			t.Fatalf("quality=%v want=100", job.QualityScore)
		}
	}
}

func TestIngestLeagueHistory_RejectsBadConfig(t *testing.T) {
	o := testOrchestrator(newFakeClient(), newFakeStore())

	if _, err := o.IngestLeagueHistory(context.Background(), Config{BatchSize: 5}); err == nil {
		t.Fatal("expected error with no target leagues")
	}
	if _, err := o.IngestLeagueHistory(context.Background(), Config{
		StartYear: 2023, EndYear: 2020, TargetLeagues: []int{1}, BatchSize: 5,
	}); err == nil {
		t.Fatal("expected error with inverted year range")
	}
}

func TestStartLeagueHistory_ReportsJobCompletion(t *testing.T) {
	store := newFakeStore()
	client := newFakeClient()
	client.addSeason(111, 2022, seasonResponse(111, 2022))
	o := testOrchestrator(client, store)

	jobID, err := o.StartLeagueHistory(context.Background(), testConfig([]int{111}, 2022, 2022))
	if err != nil {
		t.Fatalf("StartLeagueHistory: %v", err)
	}
	if jobID == "" {
		t.Fatal("empty job id")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		job, err := store.GetJob(context.Background(), jobID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if job.Status == model.JobCompleted {
			if job.RecordsProcessed != 4 {
				t.Fatalf("records=%d want=4", job.RecordsProcessed)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in status %s", job.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestIngestLeagueHistory_ParallelJobsCapsConcurrency(t *testing.T) {
	store := newFakeStore()
	client := newFakeClient()
	client.addSeason(111, 2022, seasonResponse(111, 2022))
	client.addSeason(222, 2022, seasonResponse(222, 2022))
	o := testOrchestrator(client, store)

	cfg := testConfig([]int{111, 222}, 2022, 2022)
	cfg.ParallelJobs = 1

	results, err := o.IngestLeagueHistory(context.Background(), cfg)
	if err != nil {
		t.Fatalf("IngestLeagueHistory: %v", err)
	}
	if len(results) != 2 || !results[0].Success || !results[1].Success {
		t.Fatalf("results=%+v", results)
	}
	if client.peakInFlight > 1 {
		t.Fatalf("peak in-flight calls=%d want<=1 with parallelJobs=1", client.peakInFlight)
	}
}

func TestBatchConcurrency(t *testing.T) {
	cases := []struct {
		batchSize, parallelJobs, want int
	}{
		{5, 0, 5},
		{5, 2, 2},
		{5, 9, 5},
		{0, 0, 1},
	}
	for _, tc := range cases {
		cfg := Config{BatchSize: tc.batchSize, ParallelJobs: tc.parallelJobs}
		if got := batchConcurrency(cfg); got != tc.want {
			t.Fatalf("batchConcurrency(batch=%d parallel=%d)=%d want=%d",
				tc.batchSize, tc.parallelJobs, got, tc.want)
		}
	}
}

func TestMakeBatches(t *testing.T) {
	batches := makeBatches([]int{1, 2, 3, 4, 5}, 2)
	if len(batches) != 3 {
		t.Fatalf("batches=%d want=3", len(batches))
	}
	if len(batches[2]) != 1 || batches[2][0] != 5 {
		t.Fatalf("last batch=%v", batches[2])
	}
	if got := makeBatches(nil, 2); len(got) != 0 {
		t.Fatalf("empty input batches=%v", got)
	}
}
