package espn

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"
)

// Credential validation runs at most once per hour, lazily on header access.
const validationInterval = time.Hour

var (
	// swid is a bracketed GUID: {XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}
	swidPattern = regexp.MustCompile(`^\{[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\}$`)
	// espn_s2 is a long URL-safe token
	espnS2Pattern = regexp.MustCompile(`^[A-Za-z0-9%\-._~]+$`)
)

const espnS2MinLength = 100

// CredentialSource supplies the two cookie values, typically from the
// environment. Refresh re-reads it.
type CredentialSource func() (swid, espnS2 string)

// Auth manages the two-cookie credential pair for private-league access.
// With no credentials configured it degrades to public-only mode and
// returns empty headers.
type Auth struct {
	source     CredentialSource
	probeURL   string
	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.Mutex
	swid          string
	espnS2        string
	authenticated bool
	lastValidated time.Time
}

// NewAuth creates an auth provider. probeURL is the cheap endpoint used for
// credential validation.
func NewAuth(source CredentialSource, probeURL string, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Auth{
		source:     source,
		probeURL:   probeURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	swid, espnS2 := source()
	if swid != "" && espnS2 != "" {
		a.swid = swid
		a.espnS2 = espnS2
		a.authenticated = true
		a.lastValidated = time.Now()
		logger.Info("auth initialized with provided credentials")
	} else {
		logger.Warn("auth not configured, only public leagues accessible")
	}
	return a
}

// AuthHeaders returns the headers to attach to authenticated requests, or
// an empty map in public-only mode. Credentials are revalidated lazily when
// stale.
func (a *Auth) AuthHeaders(ctx context.Context) map[string]string {
	a.mu.Lock()
	authenticated := a.authenticated
	stale := time.Since(a.lastValidated) > validationInterval
	a.mu.Unlock()

	if !authenticated {
		return map[string]string{}
	}
	if stale {
		a.Validate(ctx)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.authenticated {
		return map[string]string{}
	}
	return map[string]string{"Cookie": a.cookieString()}
}

// Refresh reloads credentials from the source. With nothing available the
// provider flips to unauthenticated rather than erroring.
func (a *Auth) Refresh() {
	swid, espnS2 := a.source()

	a.mu.Lock()
	defer a.mu.Unlock()
	if swid != "" && espnS2 != "" {
		a.swid = swid
		a.espnS2 = espnS2
		a.authenticated = true
		a.lastValidated = time.Now()
		a.logger.Info("auth credentials refreshed")
		return
	}
	a.authenticated = false
	a.logger.Error("auth refresh failed, no credentials available")
}

// Validate probes a cheap authenticated endpoint. A 401 marks the provider
// unauthenticated; network errors leave the prior status untouched.
func (a *Auth) Validate(ctx context.Context) bool {
	a.mu.Lock()
	cookie := a.cookieString()
	a.mu.Unlock()

	if cookie == "" {
		a.mu.Lock()
		a.authenticated = false
		a.mu.Unlock()
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.probeURL, nil)
	if err != nil {
		return a.IsAuthenticated()
	}
	req.Header.Set("Cookie", cookie)
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		// Transient failure, keep the current status.
		a.logger.Warn("credential validation probe failed", "error", err)
		return a.IsAuthenticated()
	}
	defer resp.Body.Close()

	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case resp.StatusCode == http.StatusOK:
		a.authenticated = true
		a.lastValidated = time.Now()
		return true
	case resp.StatusCode == http.StatusUnauthorized:
		a.logger.Warn("credentials appear expired or invalid")
		a.authenticated = false
		return false
	default:
		a.logger.Warn("credential validation returned unexpected status", "status", resp.StatusCode)
		return a.authenticated
	}
}

// IsAuthenticated reports whether a credential pair is currently trusted.
func (a *Auth) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authenticated
}

// SetCredentials installs a credential pair, rejecting malformed values.
func (a *Auth) SetCredentials(swid, espnS2 string) error {
	if err := ValidateCredentialFormat(swid, espnS2); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.swid = swid
	a.espnS2 = espnS2
	a.authenticated = true
	a.lastValidated = time.Now()
	a.logger.Info("auth credentials set")
	return nil
}

// ClearCredentials drops the credential pair and returns to public-only mode.
func (a *Auth) ClearCredentials() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.swid = ""
	a.espnS2 = ""
	a.authenticated = false
	a.lastValidated = time.Time{}
	a.logger.Info("auth credentials cleared")
}

// ValidateCredentialFormat checks the structural shape of a credential pair.
func ValidateCredentialFormat(swid, espnS2 string) error {
	if !swidPattern.MatchString(swid) {
		return fmt.Errorf("swid must be a bracketed GUID")
	}
	if len(espnS2) < espnS2MinLength || !espnS2Pattern.MatchString(espnS2) {
		return fmt.Errorf("espn_s2 must be a URL-safe token of at least %d characters", espnS2MinLength)
	}
	return nil
}

// cookieString builds the combined cookie header value. Caller holds a.mu.
func (a *Auth) cookieString() string {
	if a.swid == "" || a.espnS2 == "" {
		return ""
	}
	return fmt.Sprintf("swid=%s; espn_s2=%s", a.swid, a.espnS2)
}
