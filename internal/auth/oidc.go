package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/pinjam-app/pinjam/internal/config"
	"github.com/pinjam-app/pinjam/internal/store"
)

// ErrMissingSubject is returned for an ID token without a usable subject or email.
var ErrMissingSubject = errors.New("id token lacks subject or email")

// Provider is the school's identity provider: discovery, the PKCE code
// flow, ID token verification, and mapping claims onto a catalog account.
type Provider struct {
	verifier    *gooidc.IDTokenVerifier
	oauth2      oauth2.Config
	groupsClaim string
	classClaim  string
	adminGroups []string
}

// NewProvider performs OIDC discovery against cfg.OIDC.Issuer.
func NewProvider(ctx context.Context, cfg *config.Config) (*Provider, error) {
	discovered, err := gooidc.NewProvider(ctx, cfg.OIDC.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", cfg.OIDC.Issuer, err)
	}

	return &Provider{
		verifier: discovered.Verifier(&gooidc.Config{ClientID: cfg.OIDC.ClientID}),
		oauth2: oauth2.Config{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
			Endpoint:     discovered.Endpoint(),
			Scopes:       []string{gooidc.ScopeOpenID, "profile", "email"},
		},
		groupsClaim: cfg.OIDC.GroupsClaim,
		classClaim:  cfg.OIDC.ClassClaim,
		adminGroups: cfg.OIDC.AdminGroups,
	}, nil
}

// AuthCodeURL returns the provider's sign-in URL for state and an S256 challenge.
func (p *Provider) AuthCodeURL(state, codeChallenge string) string {
	return p.oauth2.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// Identify redeems code and returns the verified identity it belongs to.
func (p *Provider) Identify(ctx context.Context, code, codeVerifier string) (store.OIDCIdentity, error) {
	token, err := p.oauth2.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return store.OIDCIdentity{}, fmt.Errorf("token exchange: %w", err)
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok {
		return store.OIDCIdentity{}, errors.New("no id_token in token response")
	}
	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return store.OIDCIdentity{}, fmt.Errorf("id_token verification: %w", err)
	}

	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return store.OIDCIdentity{}, fmt.Errorf("id_token claims: %w", err)
	}
	return p.identity(idToken.Issuer, idToken.Subject, claims)
}

func (p *Provider) identity(issuer, subject string, claims map[string]any) (store.OIDCIdentity, error) {
	id := store.OIDCIdentity{
		Provider:    issuer,
		Subject:     subject,
		Email:       strings.TrimSpace(stringClaim(claims, "email")),
		DisplayName: strings.TrimSpace(stringClaim(claims, "name")),
	}
	if id.Subject == "" || id.Email == "" {
		return store.OIDCIdentity{}, ErrMissingSubject
	}
	if id.DisplayName == "" {
		id.DisplayName = id.Email
	}
	if p.classClaim != "" {
		id.ClassTag = strings.TrimSpace(stringClaim(claims, p.classClaim))
	}
	if p.groupsClaim != "" {
		for _, g := range listClaim(claims, p.groupsClaim) {
			if slices.Contains(p.adminGroups, g) {
				id.Admin = true
				break
			}
		}
	}
	return id, nil
}

func stringClaim(claims map[string]any, name string) string {
	s, _ := claims[name].(string)
	return s
}

// listClaim reads a claim that providers send either as a JSON array or as
// one space-separated string.
func listClaim(claims map[string]any, name string) []string {
	switch v := claims[name].(type) {
	case string:
		return strings.Fields(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// GenerateState returns a random state value for the authorization request.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GeneratePKCE returns a PKCE verifier and its S256 challenge.
func GeneratePKCE() (verifier, challenge string, err error) {
	b := make([]byte, 64)
	if _, err = rand.Read(b); err != nil {
		return
	}
	verifier = base64.RawURLEncoding.EncodeToString(b)
	challenge = PKCEChallenge(verifier)
	return
}

// PKCEChallenge derives the S256 code challenge for verifier.
func PKCEChallenge(verifier string) string {
	h := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
