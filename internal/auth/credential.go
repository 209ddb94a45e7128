package auth

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ReadOnlyScope is the only scope the checker needs.
const ReadOnlyScope = "https://www.googleapis.com/auth/presentations.readonly"

// expiryDelta matches the early-expiry window used by golang.org/x/oauth2.
const expiryDelta = 10 * time.Second

// Credential is an OAuth2 access/refresh token pair with its granted scopes.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes"`
}

// HasScope reports whether scope was granted.
func (c *Credential) HasScope(scope string) bool {
	return c != nil && slices.Contains(c.Scopes, scope)
}

// Expired reports whether the access token is expired at now.
// A zero Expiry never expires.
func (c *Credential) Expired(now time.Time) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return c.Expiry.Round(0).Add(-expiryDelta).Before(now)
}

// Valid reports whether the credential carries a usable access token at now.
func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.AccessToken != "" && !c.Expired(now)
}

// Token converts the credential to an oauth2 token.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// Clone returns a deep copy.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Scopes = slices.Clone(c.Scopes)
	return &clone
}

// supersedes reports whether a stored credential should be kept instead of
// next: it expires later and already carries every scope next grants.
func (c *Credential) supersedes(next *Credential) bool {
	if c == nil || next == nil || !c.Expiry.After(next.Expiry) {
		return false
	}
	for _, scope := range next.Scopes {
		if !c.HasScope(scope) {
			return false
		}
	}
	return true
}

// credentialFromToken builds a Credential from a token endpoint response.
// Google reports granted scopes in the "scope" field; requested is used when
// the response omits it.
func credentialFromToken(token *oauth2.Token, requested []string) *Credential {
	scopes := slices.Clone(requested)
	if granted, ok := token.Extra("scope").(string); ok && strings.TrimSpace(granted) != "" {
		scopes = strings.Fields(granted)
	}

	return &Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		Scopes:       scopes,
	}
}
