package gateway

import "time"

const (
	SessionName          = "mealsnap-session"
	SessionEmail         = "email"
	SessionUserID        = "userId"
	SessionAccessToken   = "accessToken"
	SessionRefreshToken  = "refreshToken"
	SessionExpiry        = "expiry"
	SessionAuthenticated = "authenticated"
	TimeLayout           = time.RFC3339
)
