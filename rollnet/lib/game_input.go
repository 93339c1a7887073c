package lib

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	GAMEINPUT_MAX_WORDS = 16
	NULL_FRAME          = -1
)

// GameInput is one frame worth of input. A player queue holds one word per
// frame; the feed sent to spectators holds one word per player.
type GameInput struct {
	Frame int64
	Bits  []uint32
}

func (g *GameInput) Init(iframe int64, ibits []uint32, width int64) {
	if width > GAMEINPUT_MAX_WORDS || width <= 0 {
		logrus.Panic(fmt.Sprintf("Size Error, width = %d", width))
	}
	g.Frame = iframe
	g.Bits = make([]uint32, width)
	copy(g.Bits, ibits)
}

func (g *GameInput) SimpleInit(iframe int64, bits uint32) {
	g.Init(iframe, []uint32{bits}, 1)
}

func (g *GameInput) Width() int64 {
	return int64(len(g.Bits))
}

// Word returns the first word, the player input of a single-player input.
func (g *GameInput) Word() uint32 {
	if len(g.Bits) == 0 {
		return 0
	}
	return g.Bits[0]
}

func (g GameInput) Clone() GameInput {
	c := GameInput{Frame: g.Frame, Bits: make([]uint32, len(g.Bits))}
	copy(c.Bits, g.Bits)
	return c
}

func (g *GameInput) Equal(other GameInput, bitsonly bool) bool {
	if !bitsonly && g.Frame != other.Frame {
		return false
	}
	if len(g.Bits) != len(other.Bits) {
		return false
	}
	for i := range g.Bits {
		if g.Bits[i] != other.Bits[i] {
			return false
		}
	}
	return true
}

func (g *GameInput) Set(i int64) {
	g.Bits[i/32] |= 1 << uint(i%32)
}

func (g *GameInput) Clear(i int64) {
	g.Bits[i/32] &^= 1 << uint(i%32)
}

func (g *GameInput) Erase() {
	for i := range g.Bits {
		g.Bits[i] = 0
	}
}

func (g *GameInput) Value(i int64) bool {
	return g.Bits[i/32]&(1<<uint(i%32)) != 0
}

func (g GameInput) String() string {
	words := make([]string, len(g.Bits))
	for i, w := range g.Bits {
		words[i] = fmt.Sprintf("%08x", w)
	}
	return fmt.Sprintf("(frame:%d bits:%s)", g.Frame, strings.Join(words, " "))
}

func MIN(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func MAX(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
