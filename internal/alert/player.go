package alert

import (
	"io"
	"sync"

	"feedsync/internal/domain"
)

// Player renders the audio cue.
type Player interface {
	Play(volume float64) error
	Pause()
	Rewind()
}

// BellPlayer rings the terminal bell. A zero volume plays nothing and
// succeeds, so unlocking is immediate on a terminal.
type BellPlayer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewBellPlayer(out io.Writer) *BellPlayer {
	return &BellPlayer{out: out}
}

func (p *BellPlayer) Play(volume float64) error {
	if p.out == nil {
		return domain.ErrPlaybackUnavailable
	}
	if volume <= 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.out, "\a")
	return err
}

func (p *BellPlayer) Pause() {}

func (p *BellPlayer) Rewind() {}

// NopPlayer accepts every request and produces nothing.
type NopPlayer struct{}

func (NopPlayer) Play(float64) error { return nil }

func (NopPlayer) Pause() {}

func (NopPlayer) Rewind() {}

var (
	_ Player = (*BellPlayer)(nil)
	_ Player = NopPlayer{}
)
