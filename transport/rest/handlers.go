package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
)

const playerIDHeader = "X-Player-ID"

type movePayload struct {
	Cell int `json:"cell"`
}

type jumpPayload struct {
	Index int `json:"index"`
}

type modePayload struct {
	Mode string `json:"mode"`
}

type responsePayload struct {
	PlayerID string                `json:"player_id"`
	State    *service.SessionState `json:"state,omitempty"`
	RoomCode string                `json:"room_code,omitempty"`
	Error    string                `json:"error,omitempty"`
}

func (that *Server) handleState(w http.ResponseWriter, r *http.Request) {
	playerID, session := that.session(r)
	that.writeState(w, playerID, session, "")
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	playerID, session := that.session(r)

	var payload movePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Gameplay rejections are advisory, not transport failures.
	if err := session.SubmitMove(r.Context(), payload.Cell); err != nil {
		that.writeState(w, playerID, session, err.Error())
		return
	}

	that.writeState(w, playerID, session, "")
}

func (that *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	playerID, session := that.session(r)

	if err := session.Reset(r.Context()); err != nil {
		that.writeState(w, playerID, session, err.Error())
		return
	}

	that.writeState(w, playerID, session, "")
}

func (that *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	playerID, session := that.session(r)

	var payload jumpPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := session.JumpToMove(payload.Index); err != nil {
		that.writeState(w, playerID, session, err.Error())
		return
	}

	that.writeState(w, playerID, session, "")
}

func (that *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	playerID, session := that.session(r)

	var payload modePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := session.SetMode(r.Context(), payload.Mode); err != nil {
		that.writeState(w, playerID, session, err.Error())
		return
	}

	that.writeState(w, playerID, session, "")
}

func (that *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	playerID, session := that.session(r)

	code, err := session.CreateRoom(r.Context())
	if err != nil {
		that.writeState(w, playerID, session, err.Error())
		return
	}

	state := session.Snapshot()
	that.writeJSON(w, responsePayload{PlayerID: playerID, State: &state, RoomCode: code})
}

func (that *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	playerID, session := that.session(r)
	code := chi.URLParam(r, "code")

	if err := session.JoinRoom(r.Context(), code); err != nil {
		that.writeState(w, playerID, session, err.Error())
		return
	}

	state := session.Snapshot()
	that.writeJSON(w, responsePayload{PlayerID: playerID, State: &state, RoomCode: code})
}

func (that *Server) session(r *http.Request) (string, *service.GameSession) {
	playerID := that.manager.GetOrCreatePlayerID(r.Header.Get(playerIDHeader))
	return playerID, that.manager.GetOrCreateSession(playerID)
}

func (that *Server) writeState(w http.ResponseWriter, playerID string, session *service.GameSession, errMsg string) {
	state := session.Snapshot()
	that.writeJSON(w, responsePayload{PlayerID: playerID, State: &state, Error: errMsg})
}

func (that *Server) writeJSON(w http.ResponseWriter, payload responsePayload) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}
