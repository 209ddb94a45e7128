package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// redirectTo simulates the provider redirecting the browser back to the
// loopback listener with the given query.
func redirectTo(t *testing.T, authURL string, query func(state string) url.Values) int {
	t.Helper()
	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("failed to parse auth URL: %v", err)
	}
	params := parsed.Query()
	redirect := params.Get("redirect_uri") + "?" + query(params.Get("state")).Encode()

	resp, err := http.Get(redirect)
	if err != nil {
		t.Fatalf("callback request failed: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func TestLoopbackAuthorizer_Authorize(t *testing.T) {
	server, received := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token":  "access-token",
		"refresh_token": "refresh-token",
		"token_type":    "Bearer",
		"expires_in":    3600,
		"scope":         ReadOnlyScope,
	})

	var authURL string
	var prompt strings.Builder
	authorizer := NewLoopbackAuthorizer(LoopbackConfig{
		OAuth:  testOAuthConfig(server.URL),
		Prompt: &prompt,
		OpenBrowser: func(u string) error {
			authURL = u
			status := redirectTo(t, u, func(state string) url.Values {
				return url.Values{"state": {state}, "code": {"auth-code"}}
			})
			if status != http.StatusOK {
				t.Errorf("expected callback status 200, got %d", status)
			}
			return nil
		},
		Timeout: 5 * time.Second,
	})

	cred, err := authorizer.Authorize(context.Background(), []string{ReadOnlyScope})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cred.AccessToken != "access-token" || cred.RefreshToken != "refresh-token" {
		t.Errorf("unexpected credential %+v", cred)
	}
	if !cred.HasScope(ReadOnlyScope) {
		t.Errorf("expected read-only scope, got %v", cred.Scopes)
	}

	parsed, _ := url.Parse(authURL)
	params := parsed.Query()
	if params.Get("scope") != ReadOnlyScope {
		t.Errorf("expected only the read-only scope, got %s", params.Get("scope"))
	}
	if params.Get("access_type") != "offline" {
		t.Errorf("expected offline access, got %s", params.Get("access_type"))
	}
	if params.Get("code_challenge_method") != "S256" {
		t.Errorf("expected S256 challenge, got %s", params.Get("code_challenge_method"))
	}
	if !strings.HasPrefix(params.Get("redirect_uri"), "http://127.0.0.1:") {
		t.Errorf("expected loopback redirect, got %s", params.Get("redirect_uri"))
	}

	if (*received)["code"] != "auth-code" {
		t.Errorf("expected code auth-code, got %s", (*received)["code"])
	}
	if (*received)["code_verifier"] == "" {
		t.Error("expected PKCE verifier in exchange")
	}
	if !strings.Contains(prompt.String(), authURL) {
		t.Error("expected consent URL to be printed")
	}
}

func TestLoopbackAuthorizer_BadStateIsIgnored(t *testing.T) {
	server, _ := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token": "access-token",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})

	authorizer := NewLoopbackAuthorizer(LoopbackConfig{
		OAuth: testOAuthConfig(server.URL),
		OpenBrowser: func(u string) error {
			forged := redirectTo(t, u, func(string) url.Values {
				return url.Values{"state": {"forged"}, "code": {"attacker-code"}}
			})
			if forged != http.StatusBadRequest {
				t.Errorf("expected forged callback to be rejected, got %d", forged)
			}
			redirectTo(t, u, func(state string) url.Values {
				return url.Values{"state": {state}, "code": {"auth-code"}}
			})
			return nil
		},
		Timeout: 5 * time.Second,
	})

	cred, err := authorizer.Authorize(context.Background(), []string{ReadOnlyScope})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.AccessToken != "access-token" {
		t.Errorf("unexpected access token %s", cred.AccessToken)
	}
}

func TestLoopbackAuthorizer_ProviderError(t *testing.T) {
	server, _ := newTokenServer(t, http.StatusOK, map[string]any{})

	authorizer := NewLoopbackAuthorizer(LoopbackConfig{
		OAuth: testOAuthConfig(server.URL),
		OpenBrowser: func(u string) error {
			redirectTo(t, u, func(state string) url.Values {
				return url.Values{"state": {state}, "error": {"access_denied"}, "error_description": {"user declined"}}
			})
			return nil
		},
		Timeout: 5 * time.Second,
	})

	_, err := authorizer.Authorize(context.Background(), []string{ReadOnlyScope})
	if err == nil || !strings.Contains(err.Error(), "access_denied") {
		t.Errorf("expected access_denied error, got %v", err)
	}
}

func TestLoopbackAuthorizer_MissingCode(t *testing.T) {
	server, _ := newTokenServer(t, http.StatusOK, map[string]any{})

	authorizer := NewLoopbackAuthorizer(LoopbackConfig{
		OAuth: testOAuthConfig(server.URL),
		OpenBrowser: func(u string) error {
			redirectTo(t, u, func(state string) url.Values {
				return url.Values{"state": {state}}
			})
			return nil
		},
		Timeout: 5 * time.Second,
	})

	_, err := authorizer.Authorize(context.Background(), []string{ReadOnlyScope})
	if err == nil || !strings.Contains(err.Error(), "missing authorization code") {
		t.Errorf("expected missing code error, got %v", err)
	}
}

func TestLoopbackAuthorizer_Timeout(t *testing.T) {
	authorizer := NewLoopbackAuthorizer(LoopbackConfig{
		OAuth:   testOAuthConfig("http://127.0.0.1:0/token"),
		Timeout: 50 * time.Millisecond,
	})

	_, err := authorizer.Authorize(context.Background(), []string{ReadOnlyScope})
	if !errors.Is(err, ErrAuthTimeout) {
		t.Errorf("expected ErrAuthTimeout, got %v", err)
	}
}

func TestLoopbackAuthorizer_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	authorizer := NewLoopbackAuthorizer(LoopbackConfig{
		OAuth: testOAuthConfig("http://127.0.0.1:0/token"),
		OpenBrowser: func(string) error {
			cancel()
			return nil
		},
		Timeout: 5 * time.Second,
	})

	_, err := authorizer.Authorize(ctx, []string{ReadOnlyScope})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoopbackAuthorizer_BrowserFailureStillWaits(t *testing.T) {
	authorizer := NewLoopbackAuthorizer(LoopbackConfig{
		OAuth: testOAuthConfig("http://127.0.0.1:0/token"),
		OpenBrowser: func(string) error {
			return errors.New("no display")
		},
		Timeout: 50 * time.Millisecond,
	})

	_, err := authorizer.Authorize(context.Background(), []string{ReadOnlyScope})
	if !errors.Is(err, ErrAuthTimeout) {
		t.Errorf("expected ErrAuthTimeout, got %v", err)
	}
}

func TestCallbackHandler_SingleUse(t *testing.T) {
	handler := newCallbackHandler("expected-state", discardLogger())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=expected-state&code=one", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=expected-state&code=two", nil))
	if second.Code != http.StatusBadRequest {
		t.Errorf("expected replayed state to be rejected, got %d", second.Code)
	}

	result := <-handler.result
	if result.code != "one" {
		t.Errorf("expected first code, got %s", result.code)
	}
}

func TestCallbackHandler_MethodNotAllowed(t *testing.T) {
	handler := newCallbackHandler("expected-state", discardLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/callback?state=expected-state&code=one", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
