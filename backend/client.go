// Package backend wraps the Supabase project: auth delegation, meal rows
// and thumbnail storage.
package backend

import (
	"fmt"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// New returns a client handle bound only to the project's anon key.
// Good for sign-in and refresh calls; data access wants WithSession.
func New(projectURL, anonKey string) (*supabase.Client, error) {
	client, err := supabase.NewClient(projectURL, anonKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return client, nil
}

// WithSession returns a second handle to the same project with the
// session's token pair already applied.
func WithSession(projectURL, anonKey string, session types.Session) (*supabase.Client, error) {
	client, err := New(projectURL, anonKey)
	if err != nil {
		return nil, err
	}
	client.UpdateAuthSession(session)
	return client, nil
}

// SyncSession copies a session's access/refresh token pair onto additional
// client handles so all of them observe the same authenticated user. The
// handle the session came from is left untouched.
func SyncSession(session types.Session, clients ...*supabase.Client) {
	for _, c := range clients {
		if c == nil {
			continue
		}
		c.UpdateAuthSession(session)
	}
}

// SignIn exchanges email/password credentials for a token pair.
func SignIn(client *supabase.Client, email, password string) (types.Session, error) {
	session, err := client.SignInWithEmailPassword(email, password)
	if err != nil {
		return types.Session{}, fmt.Errorf("signing in: %w", err)
	}
	return session, nil
}

// Refresh trades a refresh token for a fresh token pair.
func Refresh(client *supabase.Client, refreshToken string) (types.Session, error) {
	session, err := client.RefreshToken(refreshToken)
	if err != nil {
		return types.Session{}, fmt.Errorf("refreshing session: %w", err)
	}
	return session, nil
}

// SessionFromTokens rebuilds a session value out of a stored token pair.
func SessionFromTokens(accessToken, refreshToken string) types.Session {
	return types.Session{
		TokenType:    "bearer",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}
