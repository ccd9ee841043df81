// Package espn provides the HTTP client for the upstream fantasy football
// API, along with credential management and a typed failure taxonomy.
//
// The provider serves two URL shapes: seasons from the cutover year onward
// use the current league endpoint, earlier seasons the leagueHistory
// endpoint. Both shapes are preserved as configuration, not business logic.
package espn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rffl/codex-data/internal/ratelimit"
)

const userAgent = "RFFL-Codex-DB/1.0"

const (
	// DefaultBaseURL serves seasons >= the cutover year.
	DefaultBaseURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl"
	// DefaultHistoryURL serves earlier seasons.
	DefaultHistoryURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl/leagueHistory"
	// DefaultCutoverSeason is the first season served by the current
	// endpoint shape.
	DefaultCutoverSeason = 2018
)

// SchemaChecker validates a raw league payload before the client returns
// it, failing fast on shape drift from the upstream provider.
type SchemaChecker interface {
	CheckLeaguePayload(payload []byte) error
}

// ClientConfig tunes the API client. Zero values use the provider defaults.
type ClientConfig struct {
	BaseURL       string
	HistoryURL    string
	CutoverSeason int
	Timeout       time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.HistoryURL == "" {
		c.HistoryURL = DefaultHistoryURL
	}
	if c.CutoverSeason == 0 {
		c.CutoverSeason = DefaultCutoverSeason
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Client is the upstream API client. All requests are paced by the shared
// rate limiter and authenticated through the auth provider when the
// resource requires it.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	auth       *Auth
	limiter    *ratelimit.Limiter
	schema     SchemaChecker
	logger     *slog.Logger
}

// NewClient creates an API client.
func NewClient(cfg ClientConfig, auth *Auth, limiter *ratelimit.Limiter, schema SchemaChecker, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		auth:       auth,
		limiter:    limiter,
		schema:     schema,
		logger:     logger,
	}
}

// LeagueOptions selects the league views to fetch.
type LeagueOptions struct {
	Views         []string
	ScoringPeriod int
	PublicOnly    bool
}

// DefaultLeagueViews are requested when the caller doesn't pick views.
var DefaultLeagueViews = []string{"mTeam", "mRoster", "mMatchup", "mSettings"}

// GetLeague fetches a league for one season. The payload is schema-checked
// before it is returned.
func (c *Client) GetLeague(ctx context.Context, leagueID, season int, opts LeagueOptions) (*LeagueResponse, error) {
	views := opts.Views
	if len(views) == 0 {
		views = DefaultLeagueViews
	}

	params := url.Values{}
	for _, v := range views {
		params.Add("view", v)
	}
	if opts.ScoringPeriod > 0 {
		params.Set("scoringPeriodId", strconv.Itoa(opts.ScoringPeriod))
	}

	body, err := c.get(ctx, c.leagueURL(leagueID, season, params), !opts.PublicOnly)
	if err != nil {
		return nil, err
	}

	if c.schema != nil {
		if err := c.schema.CheckLeaguePayload(body); err != nil {
			return nil, fmt.Errorf("league %d season %d payload: %w", leagueID, season, err)
		}
	}

	league, err := decodeLeague(body, season, c.cfg.CutoverSeason)
	if err != nil {
		return nil, fmt.Errorf("decode league %d: %w", leagueID, err)
	}
	return league, nil
}

// GetLeagueHistory fetches multiple seasons best-effort: a failed season is
// logged and omitted rather than aborting the whole fetch.
func (c *Client) GetLeagueHistory(ctx context.Context, leagueID int, seasons []int) []*LeagueResponse {
	results := make([]*LeagueResponse, 0, len(seasons))
	for _, season := range seasons {
		league, err := c.GetLeague(ctx, leagueID, season, LeagueOptions{})
		if err != nil {
			c.logger.Warn("failed to fetch historical season",
				"league_id", leagueID, "season", season, "error", err)
			continue
		}
		results = append(results, league)
	}
	c.logger.Debug("fetched historical seasons",
		"league_id", leagueID, "got", len(results), "requested", len(seasons))
	return results
}

// PlayersOptions narrows the player fetch.
type PlayersOptions struct {
	ScoringPeriod int
	Filter        map[string]any // serialized into the X-Fantasy-Filter header
}

// GetPlayers fetches the player pool for a season.
func (c *Client) GetPlayers(ctx context.Context, season int, opts PlayersOptions) (*PlayerResponse, error) {
	u := fmt.Sprintf("%s/seasons/%d/players", c.cfg.BaseURL, season)
	params := url.Values{}
	if opts.ScoringPeriod > 0 {
		params.Set("scoringPeriodId", strconv.Itoa(opts.ScoringPeriod))
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var headers map[string]string
	if opts.Filter != nil {
		filter, err := json.Marshal(opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("encode player filter: %w", err)
		}
		headers = map[string]string{"X-Fantasy-Filter": string(filter)}
	}

	body, err := c.getWithHeaders(ctx, u, false, headers)
	if err != nil {
		return nil, err
	}

	var players PlayerResponse
	if err := json.Unmarshal(body, &players); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}
	return &players, nil
}

// GetMatchups fetches the schedule for a league season, optionally scoped
// to one week.
func (c *Client) GetMatchups(ctx context.Context, leagueID, season, week int) (*MatchupResponse, error) {
	params := url.Values{}
	params.Add("view", "mMatchup")
	if week > 0 {
		params.Set("scoringPeriodId", strconv.Itoa(week))
	}

	body, err := c.get(ctx, c.leagueURL(leagueID, season, params), true)
	if err != nil {
		return nil, err
	}

	var matchups MatchupResponse
	if err := json.Unmarshal(body, &matchups); err != nil {
		return nil, fmt.Errorf("decode matchups: %w", err)
	}
	return &matchups, nil
}

// GetTransactions fetches the transaction log for a league season.
// Transactions are often absent for older seasons; callers treat failures
// as recoverable.
func (c *Client) GetTransactions(ctx context.Context, leagueID, season int) (*TransactionsResponse, error) {
	params := url.Values{}
	params.Add("view", "mTransactions2")

	body, err := c.get(ctx, c.leagueURL(leagueID, season, params), true)
	if err != nil {
		return nil, err
	}

	var txns TransactionsResponse
	if err := json.Unmarshal(body, &txns); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return &txns, nil
}

// leagueURL builds the season-appropriate league resource URL.
func (c *Client) leagueURL(leagueID, season int, params url.Values) string {
	if season >= c.cfg.CutoverSeason {
		return fmt.Sprintf("%s/seasons/%d/segments/0/leagues/%d?%s",
			c.cfg.BaseURL, season, leagueID, params.Encode())
	}
	params.Set("seasonId", strconv.Itoa(season))
	return fmt.Sprintf("%s/%d?%s", c.cfg.HistoryURL, leagueID, params.Encode())
}

func (c *Client) get(ctx context.Context, u string, requiresAuth bool) ([]byte, error) {
	return c.getWithHeaders(ctx, u, requiresAuth, nil)
}

// getWithHeaders performs one paced GET and classifies any failure.
func (c *Client) getWithHeaders(ctx context.Context, u string, requiresAuth bool, extra map[string]string) ([]byte, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range extra {
		req.Header.Set(k, v)
	}
	if requiresAuth && c.auth != nil {
		for k, v := range c.auth.AuthHeaders(ctx) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &APIError{Kind: ErrTimeout, URL: u, Body: err.Error()}
		}
		return nil, fmt.Errorf("http request %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyHTTPError(resp.StatusCode, u, body)
	}
	return body, nil
}

// classifyHTTPError maps a non-2xx status onto the typed taxonomy and
// triggers the auth/limiter side effects the status calls for.
func (c *Client) classifyHTTPError(status int, u string, body []byte) error {
	truncated := truncate(body, 200)

	switch status {
	case http.StatusUnauthorized:
		c.logger.Error("authentication failed, refreshing credentials")
		if c.auth != nil {
			c.auth.Refresh()
		}
		return &APIError{Kind: ErrAuthExpired, StatusCode: status, URL: u, Body: truncated}
	case http.StatusForbidden:
		return &APIError{Kind: ErrForbidden, StatusCode: status, URL: u, Body: truncated}
	case http.StatusNotFound:
		return &APIError{Kind: ErrNotFound, StatusCode: status, URL: u, Body: truncated}
	case http.StatusTooManyRequests:
		c.logger.Warn("rate limit hit, backing off")
		c.limiter.OnThrottled()
		return &APIError{Kind: ErrRateLimited, StatusCode: status, URL: u, Body: truncated}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &APIError{Kind: ErrUpstream, StatusCode: status, URL: u, Body: truncated}
	default:
		return &APIError{Kind: ErrUnclassified, StatusCode: status, URL: u, Body: truncated}
	}
}

// decodeLeague unmarshals a league payload, unwrapping the single-element
// array shape the historical endpoint returns.
func decodeLeague(body []byte, season, cutover int) (*LeagueResponse, error) {
	if season < cutover {
		var list []LeagueResponse
		if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
			return &list[0], nil
		}
	}
	var league LeagueResponse
	if err := json.Unmarshal(body, &league); err != nil {
		return nil, err
	}
	return &league, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded)
}

// truncate keeps error payload snippets readable.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
