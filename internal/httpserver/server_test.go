package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/phase"
	"github.com/robalobadob/wordduel/internal/store"
	"github.com/robalobadob/wordduel/internal/validate"
	"github.com/robalobadob/wordduel/internal/words"
)

const testSecret = "test-secret"

// client replays the device cookie like a browser would.
type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func newTestServer(t *testing.T, rule validate.Rule) (*Server, store.Slot) {
	t.Helper()
	slot := store.NewMemorySlot()
	s := New(Options{
		Slot:      slot,
		Rule:      rule,
		Words:     words.New([]string{"alpha", "beta"}),
		JWTSecret: testSecret,
	})
	return s, slot
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == "wordduel_device" {
			c.cookie = ck
		}
	}
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	c := &client{t: t, h: s.Router()}

	rr := c.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())

	rr = c.do(http.MethodGet, "/debug/words", "")
	assert.JSONEq(t, `{"words":2}`, rr.Body.String())

	rr = c.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"not_found"}`, rr.Body.String())
}

func TestGameFlow(t *testing.T) {
	s, _ := newTestServer(t, nil)
	c := &client{t: t, h: s.Router()}

	rr := c.do(http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, c.cookie, "device cookie issued")
	assert.NotEmpty(t, rr.Header().Get(deviceTokenHeader))
	st := decode[stateRes](t, rr)
	assert.Equal(t, "/", st.Route)
	assert.Equal(t, game.Default(), st.State)

	rr = c.do(http.MethodPost, "/start", "")
	assert.Equal(t, "/choose-word/p1", decode[phaseRes](t, rr).Route)

	rr = c.do(http.MethodPost, "/choose-word/p1", `{"word":"alpha"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "/choose-word/p2", decode[phaseRes](t, rr).Route)

	rr = c.do(http.MethodPost, "/choose-word/p2", `{"word":"beta"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, phase.GuessFor(game.P1), decode[phaseRes](t, rr).Phase)

	rr = c.do(http.MethodPost, "/guess/p1", `{"guess":"bets"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	g := decode[guessRes](t, rr)
	assert.Equal(t, "/guess/p2", g.Route)
	assert.Equal(t, []game.Mark{game.MarkHit, game.MarkHit, game.MarkHit, game.MarkMiss}, g.Marks)

	rr = c.do(http.MethodPost, "/guess/p1", `{"guess":"again"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error":"wrong_phase"}`, rr.Body.String())

	rr = c.do(http.MethodPost, "/guess/p2", `{"guess":"alpha"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/won/p2", decode[guessRes](t, rr).Route)

	rr = c.do(http.MethodGet, "/state", "")
	st = decode[stateRes](t, rr)
	assert.Equal(t, "/won/p2", st.Route)
	assert.Equal(t, []string{"bets"}, st.State.Users[game.P1].Guesses)
	assert.Len(t, st.Marks[game.P2], 1)

	rr = c.do(http.MethodPost, "/reset", "")
	assert.Equal(t, "/", decode[phaseRes](t, rr).Route)
	st = decode[stateRes](t, c.do(http.MethodGet, "/state", ""))
	assert.Equal(t, game.Default(), st.State)
}

func TestChooseWordErrors(t *testing.T) {
	s, slot := newTestServer(t, nil)
	c := &client{t: t, h: s.Router()}

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"empty word", "/choose-word/p1", `{"word":""}`, http.StatusBadRequest, "empty_word"},
		{"bad json", "/choose-word/p1", `{`, http.StatusBadRequest, "bad_json"},
		{"tampered player", "/choose-word/p3", `{"word":"x"}`, http.StatusNotFound, "unknown_player"},
		{"guess before words", "/guess/p1", `{"guess":"x"}`, http.StatusConflict, "wrong_phase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := c.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.JSONEq(t, `{"error":"`+tt.code+`"}`, rr.Body.String())
		})
	}

	rr := c.do(http.MethodPost, "/choose-word/p1", `{"word":"alpha"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = c.do(http.MethodPost, "/choose-word/p1", `{"word":"omega"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error":"word_already_set"}`, rr.Body.String())

	// Only the accepted word reached the slot.
	b, ok, err := slot.Get(context.Background(), "state:"+c.deviceFromCookie(t, s))
	require.NoError(t, err)
	require.True(t, ok)
	st, err := store.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "alpha", st.Users[game.P1].Secret())
}

func TestGuessRejectedByRule(t *testing.T) {
	s, _ := newTestServer(t, validate.MatchLength{})
	c := &client{t: t, h: s.Router()}

	c.do(http.MethodPost, "/choose-word/p1", `{"word":"alpha"}`)
	c.do(http.MethodPost, "/choose-word/p2", `{"word":"beta"}`)

	rr := c.do(http.MethodPost, "/guess/p1", `{"guess":"toolong"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"error":"guess_rejected"}`, rr.Body.String())

	rr = c.do(http.MethodPost, "/guess/p1", `{"guess":"four"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDevicesAreIsolated(t *testing.T) {
	s, _ := newTestServer(t, nil)
	a := &client{t: t, h: s.Router()}
	b := &client{t: t, h: s.Router()}

	a.do(http.MethodPost, "/choose-word/p1", `{"word":"alpha"}`)
	st := decode[stateRes](t, b.do(http.MethodGet, "/state", ""))
	assert.False(t, st.State.Users[game.P1].HasWord())

	st = decode[stateRes](t, a.do(http.MethodGet, "/state", ""))
	assert.Equal(t, "alpha", st.State.Users[game.P1].Secret())
}

func TestBearerToken(t *testing.T) {
	s, _ := newTestServer(t, nil)
	c := &client{t: t, h: s.Router()}
	rr := c.do(http.MethodPost, "/choose-word/p1", `{"word":"alpha"}`)
	tok := rr.Header().Get(deviceTokenHeader)
	require.NotEmpty(t, tok)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get(deviceTokenHeader), "known device, no new token")
	st := decode[stateRes](t, rr)
	assert.Equal(t, "alpha", st.State.Users[game.P1].Secret())
}

func TestForgedTokenGetsNewDevice(t *testing.T) {
	s, _ := newTestServer(t, nil)
	other := New(Options{Slot: store.NewMemorySlot(), JWTSecret: "other"})
	tok, _, err := other.signDeviceToken("4f9f2a8e-7d7e-4b4f-9f59-0d6c1b0a5a11")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(deviceTokenHeader))
}

func TestCORSPreflight(t *testing.T) {
	s := New(Options{Slot: store.NewMemorySlot(), JWTSecret: testSecret, ClientOrigin: "http://example.test"})
	req := httptest.NewRequest(http.MethodOptions, "/guess/p1", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://example.test", rr.Header().Get("Access-Control-Allow-Origin"))
}

// deviceFromCookie reads the device id out of the client's cookie.
func (c *client) deviceFromCookie(t *testing.T, s *Server) string {
	t.Helper()
	require.NotNil(t, c.cookie)
	id, err := s.parseDeviceToken(c.cookie.Value)
	require.NoError(t, err)
	return id
}

func TestReadsDoNotCacheControllers(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Router()

	for i := 0; i < 200; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/state", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Empty(t, s.controllers)

	c := &client{t: t, h: h}
	c.do(http.MethodPost, "/choose-word/p1", `{"word":"alpha"}`)
	c.do(http.MethodGet, "/state", "")
	assert.Len(t, s.controllers, 1)
}

func TestIdleControllersAreSwept(t *testing.T) {
	s, _ := newTestServer(t, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	a := &client{t: t, h: s.Router()}
	a.do(http.MethodPost, "/choose-word/p1", `{"word":"alpha"}`)
	require.Len(t, s.controllers, 1)
	idle := a.deviceFromCookie(t, s)

	now = now.Add(deviceIdleTTL + time.Minute)
	b := &client{t: t, h: s.Router()}
	b.do(http.MethodPost, "/choose-word/p1", `{"word":"beta"}`)
	require.Len(t, s.controllers, 1)
	assert.NotContains(t, s.controllers, idle)

	// The swept device still finds its record in the slot.
	st := decode[stateRes](t, a.do(http.MethodGet, "/state", ""))
	assert.Equal(t, "alpha", st.State.Users[game.P1].Secret())
}
