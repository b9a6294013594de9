package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoCredential is returned by [TokenStore.Load] when no credential file exists.
var ErrNoCredential = errors.New("no stored credential")

// Credential is the persisted OAuth token.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope,omitempty"`
}

// Token converts the credential into an [oauth2.Token].
func (c Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
		TokenType:    c.TokenType,
	}
}

// ValidAt reports whether the access token is still usable at now, keeping skew in reserve.
func (c Credential) ValidAt(now time.Time, skew time.Duration) bool {
	return c.AccessToken != "" && now.Before(c.Expiry.Add(-skew))
}

// CredentialFromToken captures tok, including the granted scope when the token endpoint reported one.
func CredentialFromToken(tok *oauth2.Token) Credential {
	c := Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		TokenType:    tok.Type(),
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		c.Scope = scope
	}
	return c
}

// TokenStore reads and writes the credential file.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store backed by the file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the credential file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the credential. A missing file yields [ErrNoCredential].
func (s *TokenStore) Load() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}

	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse credential: %w", err)
	}
	if c.AccessToken == "" {
		return nil, fmt.Errorf("failed to parse credential: missing access_token")
	}
	return &c, nil
}

// Save writes c atomically: the JSON goes to a temporary file in the same directory which then replaces the
// credential file. The file is readable by the owner only.
func (s *TokenStore) Save(c Credential) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary credential file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict credential file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credential: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync credential: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credential file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	return nil
}

// Delete removes the credential file. Deleting a missing file is not an error.
func (s *TokenStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// Inspect classifies the credential in store at now without touching the network. An unreadable file counts as
// no credential, matching [Manager.Authenticate].
func Inspect(store *TokenStore, now time.Time) (State, *Credential) {
	cred, err := store.Load()
	if err != nil {
		return NoCredential, nil
	}
	if cred.ValidAt(now, ExpirySkew) {
		return HaveValidCredential, cred
	}
	return HaveExpiredOrMissingCredential, cred
}
