package netplay

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/sirupsen/logrus"
)

// Buttons of the example game, one bit each in a player's input.
const (
	ButtonUp uint32 = 1 << iota
	ButtonDown
	ButtonLeft
	ButtonRight
)

const ARENA_SIZE = 1024

type Position struct {
	X int32
	Y int32
}

// Game is a deterministic toy simulation: every player moves a point around
// a wrapping arena. Its state has a fixed size so it serializes with
// encoding/binary.
type Game struct {
	Frame     int64
	Positions [rollapi.MAX_PLAYERS]Position
}

func NewGame(numPlayers int64) *Game {
	g := new(Game)
	for i := int64(0); i < numPlayers && i < rollapi.MAX_PLAYERS; i++ {
		g.Positions[i] = Position{X: int32(i * 64), Y: ARENA_SIZE / 2}
	}
	return g
}

func wrap(v int32) int32 {
	return ((v % ARENA_SIZE) + ARENA_SIZE) % ARENA_SIZE
}

// Advance simulates one frame. Disconnected players stand still.
func (g *Game) Advance(inputs []rollapi.Input) {
	for i, input := range inputs {
		if i >= len(g.Positions) || input.Status == rollapi.INPUTSTATUS_DISCONNECTED {
			continue
		}
		p := &g.Positions[i]
		if input.Bits&ButtonUp != 0 {
			p.Y--
		}
		if input.Bits&ButtonDown != 0 {
			p.Y++
		}
		if input.Bits&ButtonLeft != 0 {
			p.X--
		}
		if input.Bits&ButtonRight != 0 {
			p.X++
		}
		p.X = wrap(p.X)
		p.Y = wrap(p.Y)
	}
	g.Frame++
}

func (g *Game) Save() []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, g); err != nil {
		logrus.Panic(fmt.Sprintf("cannot serialize game state: %v", err))
	}
	return buf.Bytes()
}

func (g *Game) Load(data []byte) error {
	var loaded Game
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &loaded); err != nil {
		return fmt.Errorf("loading game state: %w", err)
	}
	*g = loaded
	return nil
}

func Checksum(data []byte) uint64 {
	return uint64(crc32.ChecksumIEEE(data))
}
