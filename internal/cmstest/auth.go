package cmstest

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/directus-ops/cmsctl/pkg/directus"
)

var signingKey = []byte("cmstest-secret")

// session makes login and refresh hand out short-lived JWT access tokens.
type session struct {
	ttl       time.Duration
	expires   time.Time
	issued    int
	refreshes int
}

func (s *session) expired() bool {
	return !time.Now().Before(s.expires)
}

// ExpireTokensAfter makes /auth/login and /auth/refresh issue signed access
// tokens that are rejected once ttl has passed. A negative ttl issues tokens
// that are already expired.
func (s *Server) ExpireTokensAfter(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &session{ttl: ttl}
}

// Refreshes counts the successful calls to /auth/refresh since
// ExpireTokensAfter.
func (s *Server) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return 0
	}
	return s.session.refreshes
}

// issue returns the token pair for a login or refresh. Without a session
// the fixed AdminToken is used. Caller holds mu.
func (s *Server) issue() directus.AuthTokens {
	if s.session == nil {
		return directus.AuthTokens{AccessToken: s.token, RefreshToken: "refresh-" + s.token, Expires: 900000}
	}

	s.session.issued++
	s.session.expires = time.Now().Add(s.session.ttl)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  AdminUserID,
		"exp": s.session.expires.Unix(),
		"jti": strconv.Itoa(s.session.issued),
	}).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	s.token = token
	return directus.AuthTokens{AccessToken: token, RefreshToken: "refresh-" + token, Expires: s.session.ttl.Milliseconds()}
}
