package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"

	"github.com/mealsnap/mealsnap/backend"
	"github.com/mealsnap/mealsnap/gateway"
)

// Auth keeps the Supabase token pair inside a cookie session and hands out
// client handles bound to it.
type Auth struct {
	Store *sessions.CookieStore

	url     string
	anonKey string
}

func Make(cfg *gateway.Config) (*Auth, error) {
	store := sessions.NewCookieStore([]byte(cfg.CookieSecret))
	return &Auth{Store: store, url: cfg.Supabase.URL, anonKey: cfg.Supabase.AnonKey}, nil
}

func (a *Auth) CreateInitialSession(ctx context.Context, email, password string) (types.Session, error) {
	client, err := backend.New(a.url, a.anonKey)
	if err != nil {
		return types.Session{}, err
	}

	session, err := backend.SignIn(client, email, password)
	if err != nil {
		return types.Session{}, fmt.Errorf("invalid email or password")
	}

	return session, nil
}

func (a *Auth) RefreshSession(ctx context.Context, refreshToken string) (types.Session, error) {
	client, err := backend.New(a.url, a.anonKey)
	if err != nil {
		return types.Session{}, err
	}

	return backend.Refresh(client, refreshToken)
}

func (a *Auth) StoreSession(r *http.Request, w http.ResponseWriter, session types.Session) error {
	expiresIn := time.Duration(session.ExpiresIn) * time.Second
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	clientSession, _ := a.Store.Get(r, gateway.SessionName)
	clientSession.Values[gateway.SessionEmail] = session.User.Email
	clientSession.Values[gateway.SessionUserID] = session.User.ID.String()
	clientSession.Values[gateway.SessionAccessToken] = session.AccessToken
	clientSession.Values[gateway.SessionRefreshToken] = session.RefreshToken
	clientSession.Values[gateway.SessionExpiry] = time.Now().Add(expiresIn).Format(gateway.TimeLayout)
	clientSession.Values[gateway.SessionAuthenticated] = true
	return clientSession.Save(r, w)
}

func (a *Auth) ClearSession(r *http.Request, w http.ResponseWriter) error {
	clientSession, _ := a.Store.Get(r, gateway.SessionName)
	clientSession.Values[gateway.SessionAuthenticated] = false
	clientSession.Options.MaxAge = -1
	return clientSession.Save(r, w)
}

// AuthorizedClient rebuilds a data handle out of the token pair in the
// cookie session.
func (a *Auth) AuthorizedClient(r *http.Request) (*supabase.Client, error) {
	clientSession, err := a.Store.Get(r, gateway.SessionName)
	if err != nil || clientSession.IsNew {
		return nil, fmt.Errorf("no session")
	}

	accessToken, _ := clientSession.Values[gateway.SessionAccessToken].(string)
	refreshToken, _ := clientSession.Values[gateway.SessionRefreshToken].(string)
	if accessToken == "" {
		return nil, fmt.Errorf("no session")
	}

	return backend.WithSession(a.url, a.anonKey, backend.SessionFromTokens(accessToken, refreshToken))
}

func (a *Auth) GetSession(r *http.Request) (*sessions.Session, error) {
	return a.Store.Get(r, gateway.SessionName)
}

func (a *Auth) GetUserID(r *http.Request) string {
	clientSession, _ := a.Store.Get(r, gateway.SessionName)
	userID, _ := clientSession.Values[gateway.SessionUserID].(string)
	return userID
}

func (a *Auth) GetEmail(r *http.Request) string {
	clientSession, _ := a.Store.Get(r, gateway.SessionName)
	email, _ := clientSession.Values[gateway.SessionEmail].(string)
	return email
}
