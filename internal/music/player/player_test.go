package player

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"tunesmith/internal/music/track"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu          sync.Mutex
	disconnects int
	send        chan []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{send: make(chan []byte, 64)}
}

func (c *fakeConn) Speaking(on bool) error { return nil }

func (c *fakeConn) Send() chan<- []byte { return c.send }

func (c *fakeConn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	return nil
}

func (c *fakeConn) Disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

// testHarness wires a session to a controllable fake pipeline. Each
// track's pump blocks until the test releases it or the session stops
// it, and reports the audio locator it was started with.
type testHarness struct {
	conn    *fakeConn
	started chan string
	release chan struct{}
}

func newTestHarness() *testHarness {
	return &testHarness{
		conn:    newFakeConn(),
		started: make(chan string, 16),
		release: make(chan struct{}, 16),
	}
}

func (h *testHarness) deps() Deps {
	return Deps{
		Dial: func(guildID, channelID string) (Connection, error) {
			return h.conn, nil
		},
		OpenStream: func(locator string) (io.ReadCloser, func(), error) {
			return io.NopCloser(strings.NewReader(locator)), nil, nil
		},
		Pump: func(pcm io.ReadCloser, stop <-chan struct{}, conn Connection) error {
			b, _ := io.ReadAll(pcm)
			h.started <- string(b)
			select {
			case <-stop:
			case <-h.release:
			}
			return nil
		},
	}
}

func (h *testHarness) waitStarted(t *testing.T) string {
	t.Helper()
	select {
	case loc := <-h.started:
		return loc
	case <-time.After(2 * time.Second):
		t.Fatal("no track started streaming")
		return ""
	}
}

func mkTrack(id string) track.Track {
	return track.Track{SourceID: id, Title: "Track " + id, AudioURL: "audio://" + id}
}

func TestEnqueueJoinsAndStreams(t *testing.T) {
	h := newTestHarness()
	s := NewSession("g1", h.deps())

	require.NoError(t, s.Enqueue(mkTrack("a"), "user1", "chan1"))

	assert.Equal(t, "audio://a", h.waitStarted(t))
	assert.Equal(t, StateStreaming, s.State())

	qt, ok := s.NowPlaying()
	require.True(t, ok)
	assert.Equal(t, "a", qt.Track.SourceID)
	assert.Equal(t, "user1", qt.RequestedBy)
}

func TestQueueOrderAndAdvancement(t *testing.T) {
	h := newTestHarness()
	s := NewSession("g1", h.deps())

	require.NoError(t, s.Enqueue(mkTrack("a"), "u1", "chan1"))
	h.waitStarted(t)
	require.NoError(t, s.Enqueue(mkTrack("b"), "u2", ""))
	require.NoError(t, s.Enqueue(mkTrack("c"), "u3", ""))

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "a", snap[0].Track.SourceID)
	assert.Equal(t, "b", snap[1].Track.SourceID)
	assert.Equal(t, "c", snap[2].Track.SourceID)

	// Finish the first track; the engine should advance to the next
	// and drop the finished one from the queue.
	h.release <- struct{}{}
	assert.Equal(t, "audio://b", h.waitStarted(t))

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return len(snap) == 2 && snap[0].Track.SourceID == "b"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueDrainGoesIdle(t *testing.T) {
	h := newTestHarness()
	s := NewSession("g1", h.deps())

	require.NoError(t, s.Enqueue(mkTrack("a"), "u1", "chan1"))
	h.waitStarted(t)
	h.release <- struct{}{}

	require.Eventually(t, func() bool {
		return s.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, s.Snapshot())

	_, ok := s.NowPlaying()
	assert.False(t, ok)
}

func TestSkipAdvancesToNextTrack(t *testing.T) {
	h := newTestHarness()
	s := NewSession("g1", h.deps())

	require.NoError(t, s.Enqueue(mkTrack("a"), "u1", "chan1"))
	h.waitStarted(t)
	require.NoError(t, s.Enqueue(mkTrack("b"), "u1", ""))

	require.NoError(t, s.Skip())
	assert.Equal(t, "audio://b", h.waitStarted(t))
}

func TestSkipWithNothingPlaying(t *testing.T) {
	h := newTestHarness()
	s := NewSession("g1", h.deps())

	err := s.Skip()
	assert.ErrorIs(t, err, ErrNothingPlaying)

	// Connected but idle behaves the same.
	require.NoError(t, s.Join("chan1"))
	err = s.Skip()
	assert.ErrorIs(t, err, ErrNothingPlaying)
}

func TestLeaveNowStopsAndClears(t *testing.T) {
	h := newTestHarness()
	s := NewSession("g1", h.deps())

	require.NoError(t, s.Enqueue(mkTrack("a"), "u1", "chan1"))
	h.waitStarted(t)
	require.NoError(t, s.Enqueue(mkTrack("b"), "u1", ""))

	require.NoError(t, s.LeaveNow())

	assert.Equal(t, StateDisconnected, s.State())
	assert.Empty(t, s.Snapshot())
	assert.Equal(t, 1, h.conn.Disconnects())

	// Idempotent on a disconnected session.
	require.NoError(t, s.LeaveNow())
	assert.Equal(t, 1, h.conn.Disconnects())
}

func TestEnqueueAfterLeaveReconnects(t *testing.T) {
	h := newTestHarness()
	s := NewSession("g1", h.deps())

	require.NoError(t, s.Enqueue(mkTrack("a"), "u1", "chan1"))
	h.waitStarted(t)
	require.NoError(t, s.LeaveNow())

	require.NoError(t, s.Enqueue(mkTrack("b"), "u1", "chan1"))
	assert.Equal(t, "audio://b", h.waitStarted(t))
	assert.Equal(t, StateStreaming, s.State())
}

func TestDialFailureSurfacesConnectError(t *testing.T) {
	deps := Deps{
		Dial: func(guildID, channelID string) (Connection, error) {
			return nil, errors.New("udp discovery failed")
		},
	}
	s := NewSession("g1", deps)

	err := s.Enqueue(mkTrack("a"), "u1", "chan1")
	var connErr *VoiceConnectError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, StateDisconnected, s.State())
}

func TestJoinWithoutChannel(t *testing.T) {
	h := newTestHarness()
	s := NewSession("g1", h.deps())

	err := s.Join("")
	var connErr *VoiceConnectError
	require.ErrorAs(t, err, &connErr)
}

func TestConsecutiveFailuresAbort(t *testing.T) {
	h := newTestHarness()
	deps := h.deps()

	gate := make(chan struct{})
	deps.OpenStream = func(locator string) (io.ReadCloser, func(), error) {
		<-gate
		return nil, nil, errors.New("stream unavailable")
	}
	s := NewSession("g1", deps)

	require.NoError(t, s.Enqueue(mkTrack("a"), "u1", "chan1"))
	require.NoError(t, s.Enqueue(mkTrack("b"), "u1", ""))
	require.NoError(t, s.Enqueue(mkTrack("c"), "u1", ""))
	require.NoError(t, s.Enqueue(mkTrack("d"), "u1", ""))
	close(gate)

	require.Eventually(t, func() bool {
		return s.State() == StateDisconnected
	}, 2*time.Second, 10*time.Millisecond)

	assert.Empty(t, s.Snapshot())
	assert.Equal(t, 1, h.conn.Disconnects())

	var failed, aborted, left int
	for {
		select {
		case status := <-s.Status():
			switch status {
			case StatusTrackFailed:
				failed++
			case StatusAborted:
				aborted++
			case StatusLeft:
				left++
			}
			continue
		default:
		}
		break
	}
	assert.Equal(t, 3, failed)
	assert.Equal(t, 1, aborted)
	assert.Equal(t, 1, left)
}

func TestFailStreakResetsOnSuccess(t *testing.T) {
	h := newTestHarness()
	deps := h.deps()

	failing := map[string]bool{"audio://a": true, "audio://b": true, "audio://d": true, "audio://e": true}
	deps.OpenStream = func(locator string) (io.ReadCloser, func(), error) {
		if failing[locator] {
			return nil, nil, errors.New("stream unavailable")
		}
		return io.NopCloser(strings.NewReader(locator)), nil, nil
	}
	s := NewSession("g1", deps)

	// Two failures, one success, two more failures: the streak never
	// reaches three, so the session stays connected.
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.Enqueue(mkTrack(id), "u1", "chan1"))
	}

	assert.Equal(t, "audio://c", h.waitStarted(t))
	h.release <- struct{}{}

	require.Eventually(t, func() bool {
		return s.State() == StateConnected && len(s.Snapshot()) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, h.conn.Disconnects())
}

func TestLazyAudioResolution(t *testing.T) {
	h := newTestHarness()
	deps := h.deps()

	var resolved []string
	var mu sync.Mutex
	deps.ResolveAudio = func(ctx context.Context, t track.Track) (string, error) {
		mu.Lock()
		resolved = append(resolved, t.SourceID)
		mu.Unlock()
		return "resolved://" + t.SourceID, nil
	}
	s := NewSession("g1", deps)

	bare := track.Track{SourceID: "x", Title: "Track x"} // no locator yet
	require.NoError(t, s.Enqueue(bare, "u1", "chan1"))

	assert.Equal(t, "resolved://x", h.waitStarted(t))
	mu.Lock()
	assert.Equal(t, []string{"x"}, resolved)
	mu.Unlock()
}

func TestIdleExceeded(t *testing.T) {
	h := newTestHarness()
	s := NewSession("g1", h.deps())

	assert.False(t, s.IdleExceeded(0), "disconnected session is not idle")

	require.NoError(t, s.Join("chan1"))
	require.Eventually(t, func() bool {
		return s.IdleExceeded(time.Millisecond)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Enqueue(mkTrack("a"), "u1", ""))
	h.waitStarted(t)
	assert.False(t, s.IdleExceeded(0), "streaming session is not idle")
}
