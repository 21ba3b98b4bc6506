package outbound

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
)

type write struct {
	cmd    byte
	locked bool
	at     time.Time
}

type recordingWriter struct {
	mu     sync.Mutex
	writes []write
	err    error
}

func (w *recordingWriter) WriteFrame(_ context.Context, f *iohc.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, write{cmd: f.Command(), locked: f.Lock, at: time.Now()})
	return w.err
}

func (w *recordingWriter) all() []write {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]write(nil), w.writes...)
}

func startPacer(t *testing.T, w FrameWriter) *Pacer {
	t.Helper()
	p := NewPacer(w, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return p
}

func waitIdle(t *testing.T, p *Pacer) {
	t.Helper()
	require.Eventually(t, p.Idle, 2*time.Second, 5*time.Millisecond)
}

func TestPacer_RepeatAndLock(t *testing.T) {
	w := &recordingWriter{}
	p := startPacer(t, w)

	f := mustForge(t, 0x20)
	f.Repeat = 2
	f.RepeatInterval = time.Millisecond
	require.NoError(t, p.Send(context.Background(), Burst{ID: "b1", Frames: []iohc.Frame{f}}))
	waitIdle(t, p)

	got := w.all()
	require.Len(t, got, 3)
	for _, wr := range got {
		assert.True(t, wr.locked, "lock must be held during the write")
	}
	assert.Equal(t, int64(3), p.Stats()["written"])
}

func TestPacer_HonorsDelay(t *testing.T) {
	w := &recordingWriter{}
	p := startPacer(t, w)

	a := mustForge(t, 0x01)
	b := mustForge(t, 0x02)
	b.Delay = 40 * time.Millisecond
	require.NoError(t, p.Send(context.Background(), Burst{ID: "b1", Frames: []iohc.Frame{a, b}}))
	waitIdle(t, p)

	got := w.all()
	require.Len(t, got, 2)
	assert.Equal(t, byte(0x01), got[0].cmd)
	assert.Equal(t, byte(0x02), got[1].cmd)
	assert.GreaterOrEqual(t, got[1].at.Sub(got[0].at), 40*time.Millisecond)
}

func TestPacer_NewBurstReplacesUnsent(t *testing.T) {
	w := &recordingWriter{}
	p := startPacer(t, w)

	slow := make([]iohc.Frame, 5)
	for i := range slow {
		slow[i] = mustForge(t, 0x28)
		slow[i].Delay = 500 * time.Millisecond
	}
	require.NoError(t, p.Send(context.Background(), Burst{ID: "old", Frames: slow}))
	require.NoError(t, p.Send(context.Background(), Burst{ID: "new", Frames: []iohc.Frame{mustForge(t, 0x33)}}))
	waitIdle(t, p)

	got := w.all()
	require.Len(t, got, 1)
	assert.Equal(t, byte(0x33), got[0].cmd)
	assert.Equal(t, int64(5), p.Stats()["dropped"])
}

func TestPacer_WriteErrorContinues(t *testing.T) {
	w := &recordingWriter{err: errors.New("radio busy")}
	p := startPacer(t, w)

	frames := []iohc.Frame{mustForge(t, 0x01), mustForge(t, 0x02)}
	require.NoError(t, p.Send(context.Background(), Burst{ID: "b", Frames: frames}))
	waitIdle(t, p)

	assert.Len(t, w.all(), 2)
	assert.Equal(t, int64(2), p.Stats()["failed"])
}
