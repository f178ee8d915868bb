// Package session decides whether a request holds a valid admin session.
// The guard returns an outcome value; callers decide how to act on it
// (middleware answers 401, it never performs navigation itself).
package session

import (
	"context"
	"log"

	"estate-admin/internal/auth"
	"estate-admin/internal/credstore"
	"estate-admin/internal/model"
)

type Outcome int

const (
	Unauthenticated Outcome = iota
	Authenticated
)

type Result struct {
	Outcome     Outcome
	Reason      string
	UserID      string
	Credentials credstore.Credentials
}

// Backend is the subset of the upstream client the guard needs.
type Backend interface {
	VerifyToken(ctx context.Context, token string) (bool, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
}

type Guard struct {
	store   *credstore.Store
	tokens  auth.TokenConfig
	backend Backend

	// Strict additionally round-trips the upstream access token through the
	// backend's verify endpoint on every check. Any ambiguous answer from
	// that endpoint fails closed.
	Strict bool
}

func NewGuard(store *credstore.Store, tokens auth.TokenConfig, backend Backend, strict bool) *Guard {
	return &Guard{store: store, tokens: tokens, backend: backend, Strict: strict}
}

func unauthenticated(reason string) Result {
	return Result{Outcome: Unauthenticated, Reason: reason}
}

// Check evaluates the gateway token and the stored credential triple.
// requiredRole of "" means any authenticated role; OWNER always passes.
func (g *Guard) Check(ctx context.Context, gatewayToken string, requiredRole model.Role) Result {
	claims, err := auth.VerifyToken(gatewayToken, g.tokens)
	if err != nil {
		return unauthenticated("invalid token")
	}

	creds, ok := g.store.Get(claims.UserID)
	if !ok {
		return unauthenticated("no session")
	}

	role := creds.User.Role
	if requiredRole != "" && role != requiredRole && role != model.RoleOwner {
		// Indistinguishable from unauthenticated on purpose.
		return unauthenticated("invalid token")
	}

	if g.Strict {
		valid, err := g.backend.VerifyToken(ctx, creds.AccessToken)
		if err != nil {
			log.Printf("session guard: verify failed for %s: %v", claims.UserID, err)
		}
		if err != nil || !valid {
			g.store.Clear(claims.UserID)
			return unauthenticated("invalid token")
		}
	}

	return Result{Outcome: Authenticated, UserID: claims.UserID, Credentials: creds}
}

// Refresh exchanges the stored refresh token for a new pair. On any failure
// the session is destroyed rather than left half-updated.
func (g *Guard) Refresh(ctx context.Context, userID string) error {
	creds, ok := g.store.Get(userID)
	if !ok {
		return ErrNoSession
	}

	accessToken, refreshToken, err := g.backend.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		g.store.Clear(userID)
		return err
	}
	if !g.store.UpdateTokens(userID, accessToken, refreshToken) {
		g.store.Clear(userID)
		return ErrNoSession
	}
	return nil
}

// Logout destroys the session; watchers on the store take care of telling
// sibling connections.
func (g *Guard) Logout(userID string) {
	g.store.Clear(userID)
}
