// internal/httpserver/session.go
//
// Device sessions.
// A device is one client (one browser) and owns exactly one game record.
// Its id is a UUID carried in a signed HS256 JWT, read from the
// Authorization header or the device cookie. Missing or invalid tokens get a
// fresh device id; the new token is set as a cookie and echoed in the
// X-Device-Token header for clients without a cookie jar.

package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
)

const (
	deviceTokenHeader = "X-Device-Token"
	deviceTTL         = 180 * 24 * time.Hour
)

// deviceID resolves the calling device, issuing a new identity if needed.
func (s *Server) deviceID(w http.ResponseWriter, r *http.Request) string {
	if tok := s.bearerOrCookie(r); tok != "" {
		id, err := s.parseDeviceToken(tok)
		if err == nil {
			return id
		}
		hlog.FromRequest(r).Debug().Err(err).Msg("discarding device token")
	}

	id := uuid.NewString()
	tok, exp, err := s.signDeviceToken(id)
	if err != nil {
		// Still playable for this request; the device just won't be remembered.
		hlog.FromRequest(r).Warn().Err(err).Msg("sign device token")
		return id
	}
	s.setDeviceCookie(w, tok, exp)
	w.Header().Set(deviceTokenHeader, tok)
	return id
}

// signDeviceToken creates an HS256 JWT with the device id as subject.
func (s *Server) signDeviceToken(id string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(deviceTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString([]byte(s.opts.JWTSecret))
	return ss, exp, err
}

// parseDeviceToken verifies tok and returns the device id it carries.
func (s *Server) parseDeviceToken(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !t.Valid {
		return "", errors.New("invalid token")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errors.New("invalid device id")
	}
	return claims.Subject, nil
}

// setDeviceCookie writes the device cookie with appropriate security attributes.
func (s *Server) setDeviceCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.opts.Secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from the Authorization header or the device cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}
