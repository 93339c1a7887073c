// Package netplay is an example host driving a rollnet session with a toy
// game: it owns the game state and its snapshots and performs the actions
// the session asks for.
package netplay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/HeatXD/rollnet/rollnet"
	"github.com/HeatXD/rollnet/rollnet/platform"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/sirupsen/logrus"
)

// InputSource returns the buttons of a local player for a frame.
type InputSource func(handle rollapi.PlayerHandle, frame int64) uint32

type Config struct {
	Session    *rollnet.Session
	NumPlayers int64
	Players    []rollapi.Player
	Inputs     InputSource
	Clock      platform.Clock
	Log        *logrus.Entry
}

// Host runs one rollnet session. Every method is safe to call from the
// debug server while the game loop ticks.
type Host struct {
	mu         sync.Mutex
	Session    *rollnet.Session
	Game       *Game
	States     StateStore
	NGS        NonGameState
	Inputs     InputSource
	Clock      platform.Clock
	Log        *logrus.Entry
	SkipFrames int64
	Running    bool
}

func NewHost(cfg Config) *Host {
	h := &Host{
		Session: cfg.Session,
		Game:    NewGame(cfg.NumPlayers),
		Inputs:  cfg.Inputs,
		Clock:   cfg.Clock,
		Log:     cfg.Log,
	}
	if h.Clock == nil {
		h.Clock = platform.SystemClock{}
	}
	if h.Log == nil {
		h.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if h.Inputs == nil {
		h.Inputs = func(rollapi.PlayerHandle, int64) uint32 { return 0 }
	}
	h.States.Init()
	h.NGS.Init(cfg.NumPlayers, cfg.Players)
	for _, p := range h.NGS.Players {
		if p.Type != rollapi.PLAYERTYPE_LOCAL {
			h.NGS.SetConnectState(p.Handle, Connecting)
		}
	}
	return h
}

// Tick polls the network and runs one frame.
func (h *Host) Tick() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.idle(); err != nil {
		return err
	}
	return h.runFrame()
}

func (h *Host) idle() error {
	if err := rollnet.PollRemoteClients(h.Session); err != nil {
		return err
	}
	events, err := rollnet.GetEvents(h.Session)
	if err != nil {
		return err
	}
	for _, e := range events {
		h.OnEvent(e)
	}
	state, err := rollnet.GetCurrentState(h.Session)
	if err != nil {
		return err
	}
	switch {
	case state == rollapi.SESSIONSTATE_RUNNING && !h.Running:
		h.Log.Info("session running")
		h.NGS.SetAllConnectState(Running)
		h.Running = true
	case state != rollapi.SESSIONSTATE_RUNNING && h.Running:
		// a peer restarted its handshake, inputs are refused until it is done
		h.Log.Info("session synchronizing again")
		h.Running = false
	}
	return nil
}

func (h *Host) runFrame() error {
	if !h.Running {
		return nil
	}
	if h.SkipFrames > 0 {
		h.SkipFrames--
		return nil
	}
	for _, handle := range h.NGS.LocalPlayerHandles {
		if err := rollnet.AddLocalInput(h.Session, handle, h.Inputs(handle, h.Game.Frame)); err != nil {
			return fmt.Errorf("adding input for player %d: %w", handle, err)
		}
	}
	result, err := rollnet.AdvanceFrame(h.Session)
	if err != nil {
		if errors.Is(err, rollapi.ErrAdvanceFrame) {
			h.Log.WithError(err).Debug("frame not advanced")
			return nil
		}
		return err
	}
	if result.SkipFrame {
		return nil
	}
	return h.Perform(result.Actions)
}

// Frame is the next frame the game simulates.
func (h *Host) Frame() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Game.Frame
}

// DisconnectPlayer drops a remote player or spectator.
func (h *Host) DisconnectPlayer(handle rollapi.PlayerHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := rollnet.DisconnectPlayer(h.Session, handle); err != nil {
		h.Log.WithError(err).Errorf("cannot disconnect player %d", handle)
		return err
	}
	h.Log.Infof("disconnected player %d", handle)
	return nil
}

func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return rollnet.CleanSession(h.Session)
}
