package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/HeatXD/rollnet/delay"
	"github.com/HeatXD/rollnet/netplay"
	"github.com/HeatXD/rollnet/ping"
	"github.com/HeatXD/rollnet/rollnet"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/HeatXD/rollnet/rollnet/rolllog"
	"github.com/HeatXD/rollnet/settings"
	"github.com/sirupsen/logrus"
)

// ./rollnet -players local,127.0.0.1:8090 -port 8089
// ./rollnet -players 127.0.0.1:8089,local -port 8090

func main() {
	settingsPath := flag.String("settings", "rollnet.json", "Path to the settings file")
	printSchema := flag.Bool("schema", false, "Print the JSON Schema of the settings file and exit")
	mode := flag.String("mode", "", "Session mode: p2p, spectator or synctest")
	port := flag.Uint("port", 0, "Local UDP port")
	players := flag.String("players", "", "Comma separated players: local or host:port of the peer")
	host := flag.String("host", "", "host:port of the peer to spectate")
	inputDelay := flag.Int64("delay", -2, "Frames of input delay, -1 derives it from the ping")
	frames := flag.Int64("frames", -1, "Frames to run, 0 runs until interrupted")
	debugAddr := flag.String("debug", "", "Listen address of the HTTP debug server")
	verbose := flag.Bool("v", false, "Verbose logs")
	flag.Parse()

	if *printSchema {
		schema, err := settings.Schema()
		if err != nil {
			log.Fatalln("Cannot build settings schema:", err)
		}
		fmt.Println(string(schema))
		return
	}

	if err := settings.Load(*settingsPath); err != nil {
		log.Println("[Settings]: Loading failed:", err)
		log.Println("[Settings]: Using default settings")
	}
	s := &settings.Current
	if *mode != "" {
		s.Mode = *mode
	}
	if *port != 0 {
		s.LocalPort = uint16(*port)
	}
	if *players != "" {
		s.Players = strings.Split(*players, ",")
	}
	if *host != "" {
		s.Host = *host
	}
	if *inputDelay >= -1 {
		s.InputDelay = *inputDelay
	}
	if *frames >= 0 {
		s.Frames = *frames
	}
	if *debugAddr != "" {
		s.DebugAddr = *debugAddr
	}
	s.Verbose = s.Verbose || *verbose

	level := logrus.InfoLevel
	if s.Verbose {
		level = logrus.DebugLevel
	}
	closer, err := rolllog.Setup(rolllog.Options{Dir: s.LogDir, Level: level, Console: os.Stdout})
	if err != nil {
		log.Fatalln("Cannot set up logging:", err)
	}
	defer closer.Close()

	if err := run(*s); err != nil {
		logrus.WithError(err).Error("host stopped")
		closer.Close()
		os.Exit(1)
	}
}

func run(s settings.Settings) error {
	if s.InputDelay < 0 && s.Mode != "synctest" {
		s.InputDelay = autoDelay(s.PingTarget, s.Fps)
	}
	info, err := buildSessionInfo(s)
	if err != nil {
		return err
	}
	session, err := rollnet.CreateSession(info)
	if err != nil {
		return err
	}
	h := netplay.NewHost(netplay.Config{
		Session:    session,
		NumPlayers: info.NumPlayers(),
		Players:    info.Players(),
		Inputs:     demoInputs,
		Log:        session.Log,
	})
	defer h.Close()

	if s.DebugAddr != "" {
		srv := &http.Server{Addr: s.DebugAddr, Handler: h.Routes()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				session.Log.WithError(err).Error("debug server stopped")
			}
		}()
		defer srv.Close()
		session.Log.Infof("debug server listening on %s", s.DebugAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ticker := time.NewTicker(time.Second / time.Duration(s.Fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			session.Log.Info("interrupted")
			return nil
		case <-ticker.C:
			if err := h.Tick(); err != nil {
				return err
			}
			if s.Frames > 0 && h.Frame() >= s.Frames {
				session.Log.Infof("ran %d frames", s.Frames)
				return nil
			}
		}
	}
}

// autoDelay covers half the ping to target with input delay. It falls back
// to no delay when target cannot be pinged.
func autoDelay(target string, fps int64) int64 {
	rtt, err := ping.GetAvgPing(target, 3, 2*time.Second)
	if err != nil {
		logrus.WithError(err).Warn("cannot measure ping, using no input delay")
		return 0
	}
	d := delay.FromPing(rtt, fps)
	logrus.Infof("ping to %s is %s, input delay %d", target, rtt, d)
	return d
}

func buildSessionInfo(s settings.Settings) (*rollnet.SessionInfo, error) {
	info := rollnet.NewSessionInfo()
	if err := info.SetNumPlayers(int64(len(s.Players))); err != nil {
		return nil, err
	}
	if err := info.SetSparseSaving(s.SparseSaving); err != nil {
		return nil, err
	}
	if err := info.SetDisconnectTimeout(s.DisconnectTimeout); err != nil {
		return nil, err
	}
	if err := info.SetDisconnectNotifyStart(s.DisconnectNotifyStart); err != nil {
		return nil, err
	}

	switch s.Mode {
	case "p2p":
		if err := info.SetupP2PSession(s.LocalPort, s.Fps, s.InputDelay, s.MaxPredictionFrames); err != nil {
			return nil, err
		}
		for i, p := range s.Players {
			player := rollapi.Player{Handle: rollapi.PlayerHandle(i), Type: rollapi.PLAYERTYPE_REMOTE, Address: p}
			if p == "local" {
				player = rollapi.Player{Handle: rollapi.PlayerHandle(i), Type: rollapi.PLAYERTYPE_LOCAL}
			}
			if err := info.AddPlayer(player); err != nil {
				return nil, fmt.Errorf("player %d (%s): %w", i, p, err)
			}
		}
		for i, addr := range s.Spectators {
			handle := rollapi.PlayerHandle(len(s.Players) + i)
			if err := info.AddPlayer(rollapi.Player{Handle: handle, Type: rollapi.PLAYERTYPE_SPECTATOR, Address: addr}); err != nil {
				return nil, fmt.Errorf("spectator %s: %w", addr, err)
			}
		}
	case "spectator":
		if err := info.SetupSpectatorSession(s.LocalPort, s.Host, s.MaxFramesBehind, s.CatchupSpeed); err != nil {
			return nil, err
		}
	case "synctest":
		inputDelay := s.InputDelay
		if inputDelay < 0 {
			inputDelay = 0
		}
		if err := info.SetupSyncTestSession(s.CheckDistance, inputDelay); err != nil {
			return nil, err
		}
		for i := range s.Players {
			if err := info.AddPlayer(rollapi.Player{Handle: rollapi.PlayerHandle(i), Type: rollapi.PLAYERTYPE_LOCAL}); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", rollapi.ErrInvalidSessionType, s.Mode)
	}
	return info, nil
}

// demoInputs walks every player around a square, each one a few frames
// after the previous.
func demoInputs(handle rollapi.PlayerHandle, frame int64) uint32 {
	sides := []uint32{netplay.ButtonRight, netplay.ButtonDown, netplay.ButtonLeft, netplay.ButtonUp}
	return sides[((frame+int64(handle)*15)/60)%int64(len(sides))]
}
