package alert

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type scriptedPlayer struct {
	mu      sync.Mutex
	fail    bool
	volumes []float64
	pauses  int
	rewinds int
}

func (p *scriptedPlayer) Play(volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volumes = append(p.volumes, volume)
	if p.fail {
		return errors.New("blocked")
	}
	return nil
}

func (p *scriptedPlayer) Pause() {
	p.mu.Lock()
	p.pauses++
	p.mu.Unlock()
}

func (p *scriptedPlayer) Rewind() {
	p.mu.Lock()
	p.rewinds++
	p.mu.Unlock()
}

func (p *scriptedPlayer) setFail(fail bool) {
	p.mu.Lock()
	p.fail = fail
	p.mu.Unlock()
}

func TestController_PlayBeforeUnlockIsDropped(t *testing.T) {
	player := &scriptedPlayer{}
	c := NewController(player, nil, nil)

	c.Play()

	require.Empty(t, player.volumes)
	require.False(t, c.Unlocked())
}

func TestController_InputUnlocksOnceAndDetaches(t *testing.T) {
	player := &scriptedPlayer{}
	bus := NewInputBus()
	c := NewController(player, nil, nil)

	c.BindInput(bus)
	require.Equal(t, 1, bus.Listeners(InputClick))
	require.Equal(t, 1, bus.Listeners(InputTouch))
	require.Equal(t, 1, bus.Listeners(InputKey))

	bus.Emit(InputKey)

	require.True(t, c.Unlocked())
	require.Equal(t, []float64{0}, player.volumes)
	require.Equal(t, 1, player.pauses)
	require.Equal(t, 1, player.rewinds)
	for _, kind := range []InputKind{InputClick, InputTouch, InputKey} {
		assert.Zero(t, bus.Listeners(kind), string(kind))
	}

	bus.Emit(InputClick)
	require.Equal(t, []float64{0}, player.volumes)
}

func TestController_FailedProbeRetriesOnNextInput(t *testing.T) {
	player := &scriptedPlayer{fail: true}
	bus := NewInputBus()
	c := NewController(player, nil, nil)
	c.BindInput(bus)

	bus.Emit(InputClick)
	require.False(t, c.Unlocked())
	require.Equal(t, 1, bus.Listeners(InputClick))

	player.setFail(false)
	bus.Emit(InputTouch)
	require.True(t, c.Unlocked())
	require.Zero(t, bus.Listeners(InputClick))
}

func TestController_PlayUsesDefaultVolume(t *testing.T) {
	player := &scriptedPlayer{}
	c := NewController(player, nil, nil)
	require.True(t, c.Probe())

	c.Play()

	require.Equal(t, []float64{0, 0.5}, player.volumes)
}

func TestController_DisabledSuppressesPlay(t *testing.T) {
	player := &scriptedPlayer{}
	c := NewController(player, nil, nil, WithEnabled(false))
	require.True(t, c.Probe())

	c.Play()
	require.Equal(t, []float64{0}, player.volumes)

	require.True(t, c.Toggle())
	c.Play()
	require.Equal(t, []float64{0, 0.5}, player.volumes)

	c.SetEnabled(false)
	require.False(t, c.Enabled())
}

func TestController_PlayFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	player := &scriptedPlayer{}
	c := NewController(player, nil, zap.New(core))
	require.True(t, c.Probe())
	player.setFail(true)

	require.NotPanics(t, c.Play)
	failures := logs.FilterMessage("failed to play notification sound").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zapcore.DebugLevel, failures[0].Level)
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestController_BellRingsAfterProbe(t *testing.T) {
	var buf bytes.Buffer
	c := NewController(NewBellPlayer(&buf), nil, nil)
	c.BindInput(NewInputBus())
	c.Play()
	require.Zero(t, buf.Len())

	require.True(t, c.Probe())
	c.Play()
	c.Play()
	require.Equal(t, "\a\a", buf.String())
}

func TestBellPlayer(t *testing.T) {
	var buf bytes.Buffer
	p := NewBellPlayer(&buf)

	require.NoError(t, p.Play(0))
	require.Zero(t, buf.Len())
	require.NoError(t, p.Play(0.5))
	require.Equal(t, "\a", buf.String())

	require.Error(t, NewBellPlayer(nil).Play(0))
}
