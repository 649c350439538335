package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tunesmith/internal/suno"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI scripts Get responses per poll: the n-th poll for an id
// returns the n-th response, sticking on the last one.
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string][]*suno.Generation
	getCalls  atomic.Int64
	submitErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{responses: make(map[string][]*suno.Generation)}
}

func (f *fakeAPI) script(id string, gens ...*suno.Generation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[id] = gens
}

func (f *fakeAPI) Submit(ctx context.Context, prompt, style string) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "gen-1", nil
}

func (f *fakeAPI) Get(ctx context.Context, id string) (*suno.Generation, error) {
	f.getCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	gens, ok := f.responses[id]
	if !ok || len(gens) == 0 {
		return nil, errors.New("unexpected poll")
	}
	gen := gens[0]
	if len(gens) > 1 {
		f.responses[id] = gens[1:]
	}
	return gen, nil
}

func fastOptions() Options {
	return Options{
		BackoffMin: 5 * time.Millisecond,
		BackoffMax: 20 * time.Millisecond,
		MaxWait:    time.Second,
	}
}

func TestSubmitRejectedSurfacesError(t *testing.T) {
	api := newFakeAPI()
	api.submitErr = errors.New("quota exceeded")
	p := NewPoller(api, fastOptions())

	_, err := p.Submit(context.Background(), "a song", "")
	require.ErrorContains(t, err, "quota exceeded")
}

func TestAwaitCompletionReady(t *testing.T) {
	api := newFakeAPI()
	api.script("gen-1",
		&suno.Generation{ID: "gen-1", Status: suno.StatusPending},
		&suno.Generation{ID: "gen-1", Status: suno.StatusProcessing},
		&suno.Generation{ID: "gen-1", Prompt: "a song", Status: suno.StatusCompleted, Duration: 30, AudioURL: "https://cdn/audio.mp3"},
	)
	p := NewPoller(api, fastOptions())

	job, err := p.Submit(context.Background(), "a song", "")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, job.Status())

	trk, err := p.AwaitCompletion(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, "gen-1", trk.SourceID)
	assert.Equal(t, "a song", trk.Title)
	assert.Equal(t, 30*time.Second, trk.Duration)
	assert.Equal(t, "https://cdn/audio.mp3", trk.AudioURL)
	assert.Equal(t, StatusReady, job.Status())
	assert.False(t, job.LastPolledAt().IsZero())
}

func TestAwaitCompletionFailed(t *testing.T) {
	api := newFakeAPI()
	api.script("gen-1",
		&suno.Generation{ID: "gen-1", Status: suno.StatusFailed, Error: "content policy"},
	)
	p := NewPoller(api, fastOptions())

	job, err := p.Submit(context.Background(), "a song", "")
	require.NoError(t, err)

	_, err = p.AwaitCompletion(context.Background(), job)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "content policy", genErr.Reason)
	assert.Equal(t, StatusFailed, job.Status())
}

func TestAwaitCompletionTimeout(t *testing.T) {
	api := newFakeAPI()
	api.script("gen-1", &suno.Generation{ID: "gen-1", Status: suno.StatusProcessing})
	opts := fastOptions()
	opts.MaxWait = 50 * time.Millisecond
	p := NewPoller(api, opts)

	job, err := p.Submit(context.Background(), "a song", "")
	require.NoError(t, err)

	start := time.Now()
	_, err = p.AwaitCompletion(context.Background(), job)
	require.ErrorIs(t, err, ErrGenerationTimeout)
	assert.Equal(t, StatusTimedOut, job.Status())
	assert.Less(t, time.Since(start), time.Second, "timeout must be bounded")
}

// blockingAPI hangs every Get until the poll context expires, the way a
// stalled upstream does when the deadline fires mid-request.
type blockingAPI struct {
	getCalls atomic.Int64
}

func (b *blockingAPI) Submit(ctx context.Context, prompt, style string) (string, error) {
	return "gen-1", nil
}

func (b *blockingAPI) Get(ctx context.Context, id string) (*suno.Generation, error) {
	b.getCalls.Add(1)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDeadlineMidPollIsTimeout(t *testing.T) {
	api := &blockingAPI{}
	opts := fastOptions()
	opts.MaxWait = 50 * time.Millisecond
	p := NewPoller(api, opts)

	job, err := p.Submit(context.Background(), "a song", "")
	require.NoError(t, err)

	_, err = p.AwaitCompletion(context.Background(), job)
	require.ErrorIs(t, err, ErrGenerationTimeout)
	assert.Equal(t, StatusTimedOut, job.Status())
}

func TestTerminalJobIsNotRepolled(t *testing.T) {
	api := newFakeAPI()
	api.script("gen-1", &suno.Generation{ID: "gen-1", Status: suno.StatusProcessing})
	opts := fastOptions()
	opts.MaxWait = 50 * time.Millisecond
	p := NewPoller(api, opts)

	job, err := p.Submit(context.Background(), "a song", "")
	require.NoError(t, err)

	_, err = p.AwaitCompletion(context.Background(), job)
	require.ErrorIs(t, err, ErrGenerationTimeout)
	polled := api.getCalls.Load()

	// Awaiting the finished job again returns the recorded outcome
	// without starting another poll loop.
	start := time.Now()
	_, err = p.AwaitCompletion(context.Background(), job)
	require.ErrorIs(t, err, ErrGenerationTimeout)
	assert.Equal(t, polled, api.getCalls.Load())
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestTerminalReadyJobReturnsResultAgain(t *testing.T) {
	api := newFakeAPI()
	api.script("gen-1",
		&suno.Generation{ID: "gen-1", Prompt: "a song", Status: suno.StatusCompleted, AudioURL: "https://cdn/audio.mp3"},
	)
	p := NewPoller(api, fastOptions())

	job, err := p.Submit(context.Background(), "a song", "")
	require.NoError(t, err)

	first, err := p.AwaitCompletion(context.Background(), job)
	require.NoError(t, err)
	polled := api.getCalls.Load()

	second, err := p.AwaitCompletion(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, polled, api.getCalls.Load())
}

func TestAwaitCompletionCallerCancel(t *testing.T) {
	api := newFakeAPI()
	api.script("gen-1", &suno.Generation{ID: "gen-1", Status: suno.StatusProcessing})
	p := NewPoller(api, fastOptions())

	job, err := p.Submit(context.Background(), "a song", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.AwaitCompletion(ctx, job)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentAwaitSharesOnePoll(t *testing.T) {
	api := newFakeAPI()
	api.script("gen-1",
		&suno.Generation{ID: "gen-1", Status: suno.StatusProcessing},
		&suno.Generation{ID: "gen-1", Prompt: "a song", Status: suno.StatusCompleted, AudioURL: "https://cdn/audio.mp3"},
	)
	p := NewPoller(api, fastOptions())

	job, err := p.Submit(context.Background(), "a song", "")
	require.NoError(t, err)

	const waiters = 8
	results := make([]string, waiters)
	errs := make([]error, waiters)

	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			trk, err := p.AwaitCompletion(context.Background(), job)
			results[i], errs[i] = trk.AudioURL, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < waiters; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "https://cdn/audio.mp3", results[i])
	}
	// All waiters share the scripted two-poll run.
	assert.Equal(t, int64(2), api.getCalls.Load())
}

func TestPollErrorMarksJobFailed(t *testing.T) {
	api := newFakeAPI()
	p := NewPoller(api, fastOptions())

	job, err := p.Submit(context.Background(), "a song", "")
	require.NoError(t, err)

	// No scripted responses: Get errors immediately.
	_, err = p.AwaitCompletion(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, job.Status())
}
