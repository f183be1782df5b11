package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	blockFor time.Duration
	events   *[]string
}

func (f *fakeComponent) Start(context.Context) error {
	*f.events = append(*f.events, "start "+f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	*f.events = append(*f.events, "stop "+f.name)
	if f.blockFor > 0 {
		select {
		case <-time.After(f.blockFor):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.stopErr
}

func (f *fakeComponent) Name() string { return f.name }

func TestManager_StartsDependenciesFirst(t *testing.T) {
	var events []string
	tracing := &fakeComponent{name: "tracing", events: &events}
	console := &fakeComponent{name: "console", events: &events}
	other := &fakeComponent{name: "other", events: &events}

	m := NewManager()
	require.NoError(t, m.Register(tracing))
	require.NoError(t, m.Register(other))
	require.NoError(t, m.Register(console, tracing))

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.IsRunning(console))

	require.NoError(t, m.Stop(context.Background()))
	assert.False(t, m.IsRunning(console))

	assert.Equal(t, []string{
		"start tracing", "start other", "start console",
		"stop console", "stop other", "stop tracing",
	}, events)
}

func TestManager_RegisterValidation(t *testing.T) {
	var events []string
	a := &fakeComponent{name: "a", events: &events}
	b := &fakeComponent{name: "b", events: &events}

	m := NewManager()
	assert.Error(t, m.Register(nil))
	assert.Error(t, m.Register(&fakeComponent{events: &events}), "empty name")
	assert.Error(t, m.Register(a, b), "unregistered dependency")
	require.NoError(t, m.Register(a))
	assert.Error(t, m.Register(a), "duplicate")
}

func TestManager_RollbackOnStartFailure(t *testing.T) {
	var events []string
	a := &fakeComponent{name: "a", events: &events}
	b := &fakeComponent{name: "b", events: &events, startErr: errors.New("port in use")}

	m := NewManager()
	require.NoError(t, m.Register(a))
	require.NoError(t, m.Register(b, a))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port in use")
	assert.Equal(t, []string{"start a", "start b", "stop a"}, events)
	assert.False(t, m.IsRunning(a))
}

func TestManager_StopTimeout(t *testing.T) {
	var events []string
	slow := &fakeComponent{name: "slow", events: &events, blockFor: time.Minute}

	m := NewManager()
	m.SetShutdownTimeout(10 * time.Millisecond)
	require.NoError(t, m.Register(slow))
	require.NoError(t, m.Start(context.Background()))

	err := m.Stop(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_Run(t *testing.T) {
	var events []string
	a := &fakeComponent{name: "a", events: &events}

	m := NewManager()
	require.NoError(t, m.Register(a))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, m.Run(ctx))
	assert.Equal(t, []string{"start a", "stop a"}, events)
}
