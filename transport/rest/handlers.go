package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gridclash/gridclash-backend/internal/apperror"
	"github.com/gridclash/gridclash-backend/internal/entity"
)

// Rule violations come back as {"ok": false} with 200: they are ordinary
// outcomes of optimistic play, not HTTP errors. Lobby errors are the only
// user-visible failures and map to 4xx with a message.

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snapshot := that.session.Snapshot()

	writeJSON(w, http.StatusOK, struct {
		PlayerID string        `json:"player_id"`
		Lobby    *entity.Lobby `json:"lobby,omitempty"`
		Game     *entity.Game  `json:"game,omitempty"`
	}{
		PlayerID: that.session.PlayerID(),
		Lobby:    snapshot.Lobby,
		Game:     snapshot.Game,
	})
}

func (that *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	code, err := that.session.CreateLobby(r.Context(), req.Name)
	if err != nil {
		that.logger.Error("failed to create lobby", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not create lobby"})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Code     string `json:"code"`
		PlayerID string `json:"player_id"`
	}{Code: code, PlayerID: that.session.PlayerID()})
}

func (that *Server) handleJoinLobby(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	err := that.session.JoinLobby(r.Context(), req.Code, req.Name)
	switch {
	case errors.Is(err, apperror.ErrLobbyNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "lobby not found"})
	case errors.Is(err, apperror.ErrLobbyFull):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "lobby is full"})
	case err != nil:
		that.logger.Error("failed to join lobby", "code", req.Code, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not join lobby"})
	default:
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func (that *Server) handleToggleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{OK: that.session.ToggleReady(r.Context())})
}

func (that *Server) handleChangeFaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Faction entity.Faction `json:"faction"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: that.session.ChangeFaction(r.Context(), req.Faction)})
}

func (that *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	if err := that.session.StartGame(r.Context()); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "no lobby to start"})
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (that *Server) handleClaimTile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X        int     `json:"x"`
		Y        int     `json:"y"`
		GoldCost float64 `json:"gold_cost"`
		UnitCost float64 `json:"unit_cost"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	ok := that.session.ClaimTile(r.Context(), req.X, req.Y, req.GoldCost, req.UnitCost)
	writeJSON(w, http.StatusOK, okResponse{OK: ok})
}

func (that *Server) handleBuildConstruct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X             int                  `json:"x"`
		Y             int                  `json:"y"`
		ConstructType entity.ConstructType `json:"construct_type"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	ok := that.session.BuildConstruct(r.Context(), req.X, req.Y, req.ConstructType)
	writeJSON(w, http.StatusOK, okResponse{OK: ok})
}

func (that *Server) handleDemolishConstruct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	ok := that.session.DemolishConstruct(r.Context(), req.X, req.Y)
	writeJSON(w, http.StatusOK, okResponse{OK: ok})
}

func (that *Server) handleResetGame(w http.ResponseWriter, r *http.Request) {
	if err := that.session.ResetGame(r.Context()); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "no lobby to reset"})
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func readJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
