package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const (
	testSWID = "{ABCDEF12-3456-7890-ABCD-EF1234567890}"
)

var testEspnS2 = strings.Repeat("AEB", 40) // 120 chars, URL-safe

func staticSource(swid, espnS2 string) CredentialSource {
	return func() (string, string) { return swid, espnS2 }
}

func TestValidateCredentialFormat(t *testing.T) {
	cases := []struct {
		name    string
		swid    string
		espnS2  string
		wantErr bool
	}{
		{"valid", testSWID, testEspnS2, false},
		{"swid missing braces", "ABCDEF12-3456-7890-ABCD-EF1234567890", testEspnS2, true},
		{"swid wrong shape", "{not-a-guid}", testEspnS2, true},
		{"espn_s2 too short", testSWID, "short", true},
		{"espn_s2 bad characters", testSWID, strings.Repeat("a b", 50), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCredentialFormat(tc.swid, tc.espnS2)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

func TestAuthHeaders_PublicOnlyMode(t *testing.T) {
	a := NewAuth(staticSource("", ""), "http://unused", nil)
	if a.IsAuthenticated() {
		t.Fatal("expected unauthenticated with no credentials")
	}
	headers := a.AuthHeaders(context.Background())
	if len(headers) != 0 {
		t.Fatalf("headers=%v want empty in public-only mode", headers)
	}
}

func TestAuthHeaders_WithCredentials(t *testing.T) {
	a := NewAuth(staticSource(testSWID, testEspnS2), "http://unused", nil)
	if !a.IsAuthenticated() {
		t.Fatal("expected authenticated")
	}
	headers := a.AuthHeaders(context.Background())
	cookie := headers["Cookie"]
	if !strings.Contains(cookie, "swid="+testSWID) || !strings.Contains(cookie, "espn_s2="+testEspnS2) {
		t.Fatalf("cookie=%q missing credential pair", cookie)
	}
}

func TestValidate_UnauthorizedFlipsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := NewAuth(staticSource(testSWID, testEspnS2), srv.URL, nil)
	if ok := a.Validate(context.Background()); ok {
		t.Fatal("expected validation failure on 401")
	}
	if a.IsAuthenticated() {
		t.Fatal("expected unauthenticated after 401 probe")
	}
	if headers := a.AuthHeaders(context.Background()); len(headers) != 0 {
		t.Fatalf("headers=%v want empty after failed validation", headers)
	}
}

func TestValidate_NetworkErrorKeepsStatus(t *testing.T) {
	// Unreachable probe endpoint.
	a := NewAuth(staticSource(testSWID, testEspnS2), "http://127.0.0.1:1", nil)
	if ok := a.Validate(context.Background()); !ok {
		t.Fatal("transient probe failure should keep the trusted status")
	}
	if !a.IsAuthenticated() {
		t.Fatal("expected still authenticated")
	}
}

func TestSetAndClearCredentials(t *testing.T) {
	a := NewAuth(staticSource("", ""), "http://unused", nil)

	if err := a.SetCredentials("bogus", "nope"); err == nil {
		t.Fatal("expected rejection of malformed credentials")
	}
	if err := a.SetCredentials(testSWID, testEspnS2); err != nil {
		t.Fatalf("set credentials: %v", err)
	}
	if !a.IsAuthenticated() {
		t.Fatal("expected authenticated after SetCredentials")
	}

	a.ClearCredentials()
	if a.IsAuthenticated() {
		t.Fatal("expected public-only mode after ClearCredentials")
	}
}
