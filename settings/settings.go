// Package settings loads the example host configuration from a JSON file.
package settings

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/invopop/jsonschema"
)

// Settings is the content of the host settings file. Command line flags
// override it.
type Settings struct {
	Mode                  string   `json:"mode" jsonschema:"title=Session mode,enum=p2p,enum=spectator,enum=synctest"`
	LocalPort             uint16   `json:"localPort" jsonschema:"title=Local UDP port,minimum=1,maximum=65535"`
	Players               []string `json:"players" jsonschema:"description=One entry per player handle: local or the host:port of the peer playing it"`
	Spectators            []string `json:"spectators,omitempty" jsonschema:"description=host:port of every spectator, handles follow the players"`
	Host                  string   `json:"host,omitempty" jsonschema:"description=host:port of the peer to spectate"`
	Fps                   int64    `json:"fps" jsonschema:"minimum=1,maximum=1000"`
	InputDelay            int64    `json:"inputDelay" jsonschema:"description=Frames of local input delay; -1 derives it from the ping to pingTarget,minimum=-1,maximum=16"`
	MaxPredictionFrames   int64    `json:"maxPredictionFrames" jsonschema:"minimum=1,maximum=32"`
	SparseSaving          bool     `json:"sparseSaving"`
	MaxFramesBehind       int64    `json:"maxFramesBehind" jsonschema:"minimum=1"`
	CatchupSpeed          int64    `json:"catchupSpeed" jsonschema:"minimum=1"`
	CheckDistance         int64    `json:"checkDistance" jsonschema:"minimum=0,maximum=32"`
	DisconnectTimeout     uint64   `json:"disconnectTimeout" jsonschema:"description=Milliseconds of silence before a peer is dropped; 0 never drops"`
	DisconnectNotifyStart uint64   `json:"disconnectNotifyStart" jsonschema:"description=Milliseconds of silence before the network is reported interrupted"`
	PingTarget            string   `json:"pingTarget" jsonschema:"description=Address pinged to derive the input delay"`
	DebugAddr             string   `json:"debugAddr,omitempty" jsonschema:"description=Listen address of the HTTP debug server; empty disables it"`
	Frames                int64    `json:"frames" jsonschema:"description=Frames to run before exiting; 0 runs until interrupted,minimum=0"`
	LogDir                string   `json:"logDir" jsonschema:"description=Directory of the log files; empty logs to the console only"`
	Verbose               bool     `json:"verbose"`
}

// Current holds the loaded settings.
var Current = Defaults()

func Defaults() Settings {
	return Settings{
		Mode:                  "p2p",
		LocalPort:             rollapi.DEFAULT_LOCAL_PORT,
		Players:               []string{"local", "127.0.0.1:1235"},
		Fps:                   rollapi.DEFAULT_FPS,
		InputDelay:            -1,
		MaxPredictionFrames:   rollapi.DEFAULT_MAX_PREDICTION_FRAMES,
		MaxFramesBehind:       rollapi.DEFAULT_MAX_FRAMES_BEHIND,
		CatchupSpeed:          rollapi.DEFAULT_CATCHUP_SPEED,
		CheckDistance:         rollapi.DEFAULT_CHECK_DISTANCE,
		DisconnectTimeout:     rollapi.DEFAULT_DISCONNECT_TIMEOUT,
		DisconnectNotifyStart: rollapi.DEFAULT_DISCONNECT_NOTIFY_START,
		PingTarget:            "8.8.8.8",
		LogDir:                "logs",
	}
}

// Load reads path over the defaults into Current. Current keeps the
// defaults when the file is missing or invalid.
func Load(path string) error {
	s, err := Read(path)
	if err != nil {
		Current = Defaults()
		return err
	}
	Current = s
	return nil
}

// Read returns the settings in path; fields the file omits keep their
// default value.
func Read(path string) (Settings, error) {
	s := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading settings: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("decoding settings %s: %w", path, err)
	}
	return s, nil
}

// Schema describes the settings file as a JSON Schema.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(Settings))
	schema.Title = "rollnet host settings"
	schema.Description = "Configuration of the rollnet example host"
	return json.MarshalIndent(schema, "", "  ")
}
