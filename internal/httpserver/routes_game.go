// internal/httpserver/routes_game.go
//
// HTTP routes for playing a game on the calling device:
//   - GET  /state                → record, current phase and per-guess marks
//   - POST /start                → leave Home
//   - POST /choose-word/{userId} → pick a secret word
//   - POST /guess/{userId}       → guess the opponent's word
//   - POST /reset                → wipe the record, back to Home
//
// {userId} must be "p1" or "p2"; anything else is a 404 (tampered route).

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/phase"
)

// mountGame registers the game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Get("/state", s.handleState)
	r.Post("/start", s.handleStart)
	r.Post("/choose-word/{userId}", s.handleChooseWord)
	r.Post("/guess/{userId}", s.handleGuess)
	r.Post("/reset", s.handleReset)
}

// phaseRes tells the client where to navigate.
type phaseRes struct {
	Phase phase.Phase `json:"phase"`
	Route string      `json:"route"`
}

func newPhaseRes(p phase.Phase) phaseRes { return phaseRes{Phase: p, Route: p.Route()} }

// stateRes is the full view of a device's game.
// Marks holds, per player, the marks of each guess (newest first) against the
// opponent's secret.
type stateRes struct {
	phaseRes
	State game.State                      `json:"state"`
	Marks map[game.PlayerID][][]game.Mark `json:"marks"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	c := s.controllerFor(r, s.deviceID(w, r), false)
	st, cur := c.Current(r.Context())

	marks := make(map[game.PlayerID][][]game.Mark, len(game.Players))
	for _, id := range game.Players {
		p := st.Users[id]
		opp := st.Users[id.Opponent()]
		rows := make([][]game.Mark, 0, len(p.Guesses))
		if opp.HasWord() {
			for _, g := range p.Guesses {
				rows = append(rows, game.Score(opp.Secret(), g))
			}
		}
		marks[id] = rows
	}
	_ = json.NewEncoder(w).Encode(stateRes{phaseRes: newPhaseRes(cur), State: st, Marks: marks})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	c := s.controllerFor(r, s.deviceID(w, r), false)
	_ = json.NewEncoder(w).Encode(newPhaseRes(c.Start(r.Context())))
}

type chooseWordReq struct {
	Word string `json:"word"`
}

func (s *Server) handleChooseWord(w http.ResponseWriter, r *http.Request) {
	id, ok := playerParam(w, r)
	if !ok {
		return
	}
	var req chooseWordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	c := s.controllerFor(r, s.deviceID(w, r), true)
	next, err := c.ChooseWord(r.Context(), id, req.Word)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(newPhaseRes(next))
}

type guessReq struct {
	Guess string `json:"guess"`
}

type guessRes struct {
	phaseRes
	Marks []game.Mark `json:"marks"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	id, ok := playerParam(w, r)
	if !ok {
		return
	}
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	c := s.controllerFor(r, s.deviceID(w, r), true)
	next, marks, err := c.SubmitGuess(r.Context(), id, req.Guess)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(guessRes{phaseRes: newPhaseRes(next), Marks: marks})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	c := s.controllerFor(r, s.deviceID(w, r), false)
	next, err := c.Reset(r.Context())
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(newPhaseRes(next))
}

// playerParam parses {userId}; unknown ids get a 404.
func playerParam(w http.ResponseWriter, r *http.Request) (game.PlayerID, bool) {
	id, err := game.ParsePlayerID(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_player")
		return "", false
	}
	return id, true
}

// writeGameError maps controller/store errors to HTTP statuses.
func writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrUnknownPlayer):
		writeError(w, http.StatusNotFound, "unknown_player")
	case errors.Is(err, game.ErrEmptyWord):
		writeError(w, http.StatusBadRequest, "empty_word")
	case errors.Is(err, game.ErrWordAlreadySet):
		writeError(w, http.StatusConflict, "word_already_set")
	case errors.Is(err, phase.ErrWrongPhase):
		writeError(w, http.StatusConflict, "wrong_phase")
	case errors.Is(err, game.ErrGuessRejected):
		writeError(w, http.StatusUnprocessableEntity, "guess_rejected")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("game action failed")
		writeError(w, http.StatusInternalServerError, "save_failed")
	}
}
