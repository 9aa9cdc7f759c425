package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/mealsnap/mealsnap/gateway"
)

type Middleware func(http.Handler) http.Handler

// AuthMiddleware requires a logged-in cookie session and refreshes the
// Supabase token pair once it is past its expiry.
func AuthMiddleware(s *Server) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, _ := s.auth.Store.Get(r, gateway.SessionName)
			authorized, ok := session.Values[gateway.SessionAuthenticated].(bool)
			if !ok || !authorized {
				writeError(w, "not logged in", http.StatusUnauthorized)
				return
			}

			// refresh if past expiry
			expiryStr, _ := session.Values[gateway.SessionExpiry].(string)
			expiry, err := time.Parse(gateway.TimeLayout, expiryStr)
			if err != nil {
				s.l.Error("invalid expiry time in session", "error", err)
				writeError(w, "not logged in", http.StatusUnauthorized)
				return
			}

			if time.Now().After(expiry) {
				s.l.Info("token expired, refreshing")

				refreshToken, _ := session.Values[gateway.SessionRefreshToken].(string)
				freshSession, err := s.auth.RefreshSession(r.Context(), refreshToken)
				if err != nil {
					s.l.Error("failed to refresh session", "error", err)
					writeError(w, "session expired", http.StatusUnauthorized)
					return
				}

				if err := s.auth.StoreSession(r, w, freshSession); err != nil {
					s.l.Error("failed to store refreshed session", "error", err)
					writeError(w, "session expired", http.StatusUnauthorized)
					return
				}

				s.l.Info("successfully refreshed token", "user", freshSession.User.ID)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// VerifySignature guards the device upload path with an HMAC over
// method, path and timestamp.
func (s *Server) VerifySignature(next http.Handler) http.Handler {
	if s.cfg.Dev {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature := r.Header.Get("X-Signature")
		if signature == "" || !s.verifyHMAC(signature, r) {
			writeError(w, "signature verification failed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) verifyHMAC(signature string, r *http.Request) bool {
	secret := s.cfg.DeviceSecret
	if secret == "" {
		return false
	}

	timestamp := r.Header.Get("X-Timestamp")
	if timestamp == "" {
		return false
	}

	// Verify that the timestamp is not older than a minute
	reqTime, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return false
	}
	if time.Since(reqTime) > time.Minute {
		return false
	}

	message := r.Method + r.URL.Path + timestamp

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	expectedMAC := mac.Sum(nil)

	signatureBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(signatureBytes, expectedMAC)
}
