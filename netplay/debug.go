package netplay

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/HeatXD/rollnet/rollnet"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type stateResponse struct {
	Session     string       `json:"session"`
	State       string       `json:"state"`
	Frame       int64        `json:"frame"`
	FramesAhead int64        `json:"framesAhead"`
	SkipFrames  int64        `json:"skipFrames"`
	Positions   []Position   `json:"positions"`
	Checksum    ChecksumInfo `json:"checksum"`
	Periodic    ChecksumInfo `json:"periodicChecksum"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Routes serves a read only view of the host for debugging.
func (h *Host) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/state", h.GetState)
	r.Get("/players", h.GetPlayers)
	r.Get("/stats/{handle}", h.GetStats)
	return r
}

// GetState handles GET /state
func (h *Host) GetState(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, err := rollnet.ID(h.Session)
	if err != nil {
		h.respondError(w, http.StatusGone, "session_closed", err.Error())
		return
	}
	state, _ := rollnet.GetCurrentState(h.Session)
	ahead, _ := rollnet.GetFramesAhead(h.Session)
	numPlayers := h.NGS.NumPlayers
	if numPlayers > rollapi.MAX_PLAYERS {
		numPlayers = rollapi.MAX_PLAYERS
	}
	h.respondJSON(w, http.StatusOK, stateResponse{
		Session:     id,
		State:       state.String(),
		Frame:       h.Game.Frame,
		FramesAhead: ahead,
		SkipFrames:  h.SkipFrames,
		Positions:   append([]Position(nil), h.Game.Positions[:numPlayers]...),
		Checksum:    h.NGS.Now,
		Periodic:    h.NGS.Periodic,
	})
}

// GetPlayers handles GET /players
func (h *Host) GetPlayers(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.respondJSON(w, http.StatusOK, h.NGS.Players)
}

// GetStats handles GET /stats/{handle}
func (h *Host) GetStats(w http.ResponseWriter, r *http.Request) {
	handle, err := strconv.ParseInt(chi.URLParam(r, "handle"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_handle", err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	stats, err := rollnet.GetNetworkStats(h.Session, rollapi.PlayerHandle(handle))
	switch {
	case err == nil:
		h.respondJSON(w, http.StatusOK, stats)
	case errors.Is(err, rollapi.ErrInvalidPlayerHandle):
		h.respondError(w, http.StatusNotFound, "invalid_handle", err.Error())
	case errors.Is(err, rollapi.ErrNotSynchronized):
		h.respondError(w, http.StatusServiceUnavailable, "not_synchronized", err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "stats_failed", err.Error())
	}
}

// respondJSON sends a JSON response
func (h *Host) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Log.WithError(err).Warn("cannot write debug response")
	}
}

func (h *Host) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, errorResponse{Error: code, Message: message})
}
