// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package racetime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/raceroom/internal/logging"
	"github.com/tomtom215/raceroom/internal/metrics"
)

// Credential is a bearer token issued by the client-credentials grant.
// A zero ExpiresAt means the server did not report a lifetime.
type Credential struct {
	AccessToken string
	TokenType   string
	Scope       string
	ExpiresAt   time.Time
}

// Valid reports whether the credential can be used at now.
func (c Credential) Valid(now time.Time) bool {
	if c.AccessToken == "" {
		return false
	}
	return c.ExpiresAt.IsZero() || now.Before(c.ExpiresAt)
}

// CredentialManager owns the client's single credential and refreshes it
// lazily on the calling path.
type CredentialManager struct {
	oauth   clientcredentials.Config
	http    *http.Client
	now     func() time.Time
	onError func(error)

	mu   sync.RWMutex
	cred Credential

	flight singleflight.Group
}

// NewCredentialManager creates a manager exchanging against {baseURL}/o/token.
// onError, when set, is called with every *AuthError.
func NewCredentialManager(baseURL, clientID, clientSecret string, scopes []string, hc *http.Client, now func() time.Time, onError func(error)) *CredentialManager {
	if hc == nil {
		hc = http.DefaultClient
	}
	if now == nil {
		now = time.Now
	}
	return &CredentialManager{
		oauth: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     strings.TrimRight(baseURL, "/") + "/o/token",
			Scopes:       scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		http:    hc,
		now:     now,
		onError: onError,
	}
}

// Current returns the stored credential without refreshing it.
func (m *CredentialManager) Current() Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred
}

// Invalidate forces the next EnsureValid call to exchange.
func (m *CredentialManager) Invalidate() {
	m.mu.Lock()
	m.cred = Credential{}
	m.mu.Unlock()
}

// EnsureValid returns a credential that is valid now, exchanging for a new
// one when the stored credential has expired. Concurrent callers share one
// exchange; each waits on its own ctx, and the exchange itself is not
// cancelled when a waiting caller gives up.
func (m *CredentialManager) EnsureValid(ctx context.Context) (Credential, error) {
	if cred := m.Current(); cred.Valid(m.now()) {
		return cred, nil
	}

	ch := m.flight.DoChan("token", func() (any, error) {
		// A flight that finished just before this one may have stored a token.
		if cred := m.Current(); cred.Valid(m.now()) {
			return cred, nil
		}
		shared, cancel := detach(ctx, m.http.Timeout)
		defer cancel()
		return m.exchange(shared)
	})

	select {
	case <-ctx.Done():
		return Credential{}, fmt.Errorf("waiting for token exchange: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	}
}

func (m *CredentialManager) exchange(ctx context.Context) (Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.http)

	tok, err := m.oauth.Token(ctx)
	metrics.RecordTokenExchange(err)
	if err != nil && isContextErr(err) {
		// Nothing answered, so nothing was rejected.
		logging.Warn().Err(err).Msg("Token exchange abandoned")
		return Credential{}, fmt.Errorf("token exchange: %w", err)
	}
	if err != nil {
		authErr := &AuthError{Err: err}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			if retrieveErr.Response != nil {
				authErr.StatusCode = retrieveErr.Response.StatusCode
			}
			authErr.Body = string(retrieveErr.Body)
		}
		logging.Warn().Err(err).Int("status", authErr.StatusCode).Msg("Token exchange failed")
		if m.onError != nil {
			m.onError(authErr)
		}
		return Credential{}, authErr
	}

	cred := Credential{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		Scope:       strings.Join(m.oauth.Scopes, " "),
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		cred.Scope = scope
	}
	if !tok.Expiry.IsZero() {
		cred.ExpiresAt = m.now().Add(time.Until(tok.Expiry))
	}

	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()

	logging.Debug().Str("scope", cred.Scope).Time("expires_at", cred.ExpiresAt).Msg("Obtained access token")
	return cred, nil
}
