package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"tunesmith/internal/music/track"
	"tunesmith/internal/suno"
)

// API is the slice of the generation service the poller needs.
type API interface {
	Submit(ctx context.Context, prompt, style string) (string, error)
	Get(ctx context.Context, id string) (*suno.Generation, error)
}

// Options bounds the polling loop.
type Options struct {
	BackoffMin time.Duration // first poll interval
	BackoffMax time.Duration // interval ceiling
	MaxWait    time.Duration // total wait before ErrGenerationTimeout
}

// DefaultOptions returns the polling bounds used when an Options field
// is left zero.
func DefaultOptions() Options {
	return Options{
		BackoffMin: 2 * time.Second,
		BackoffMax: 15 * time.Second,
		MaxWait:    5 * time.Minute,
	}
}

// Poller submits generation jobs and tracks them until a terminal
// state. A job is polled by exactly one goroutine no matter how many
// callers await it; awaiting callers share the in-flight poll.
type Poller struct {
	api  API
	opts Options

	mu       sync.Mutex
	inflight map[string]*pollState
}

type pollState struct {
	done chan struct{}
	trk  track.Track
	err  error
}

// NewPoller creates a Poller over api.
func NewPoller(api API, opts Options) *Poller {
	def := DefaultOptions()
	if opts.BackoffMin <= 0 {
		opts.BackoffMin = def.BackoffMin
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = def.BackoffMax
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = def.MaxWait
	}
	return &Poller{
		api:      api,
		opts:     opts,
		inflight: make(map[string]*pollState),
	}
}

// Submit sends the prompt to the generation service and returns the
// tracking job. A rejected submission (bad prompt, quota) surfaces the
// service error directly.
func (p *Poller) Submit(ctx context.Context, prompt, style string) (*Job, error) {
	id, err := p.api.Submit(ctx, prompt, style)
	if err != nil {
		log.Printf("[Jobs] Submission rejected for prompt %q: %v", prompt, err)
		return nil, err
	}

	job := &Job{ID: id, Prompt: prompt}
	job.mu.Lock()
	job.status = StatusSubmitted
	job.createdAt = time.Now()
	job.mu.Unlock()

	log.Printf("[Jobs] Submitted generation job %s for prompt %q", id, prompt)
	return job, nil
}

// AwaitCompletion blocks until the job reaches a terminal state and
// returns the resulting track, or the terminal error. The wait is
// bounded by MaxWait plus at most one backoff interval. Canceling ctx
// abandons the wait for this caller only; the shared poll keeps running
// for any other caller of the same job.
func (p *Poller) AwaitCompletion(ctx context.Context, job *Job) (track.Track, error) {
	state := p.pollStateFor(job)

	select {
	case <-state.done:
		return state.trk, state.err
	case <-ctx.Done():
		return track.Track{}, ctx.Err()
	}
}

// pollStateFor returns the in-flight poll for the job, starting one if
// none is running. Jobs that already reached a terminal state are never
// re-polled; callers get the recorded outcome.
func (p *Poller) pollStateFor(job *Job) *pollState {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state, ok := p.inflight[job.ID]; ok {
		return state
	}

	if trk, err, done := job.terminal(); done {
		state := &pollState{done: make(chan struct{}), err: err}
		if trk != nil {
			state.trk = *trk
		}
		close(state.done)
		return state
	}

	state := &pollState{done: make(chan struct{})}
	p.inflight[job.ID] = state

	go p.poll(job, state)
	return state
}

// poll drives one job to a terminal state on an exponential backoff
// schedule. The loop always terminates: either the API reports a
// terminal status or the MaxWait deadline fires.
func (p *Poller) poll(job *Job, state *pollState) {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.MaxWait)
	defer cancel()

	defer func() {
		p.mu.Lock()
		delete(p.inflight, job.ID)
		p.mu.Unlock()
		close(state.done)
	}()

	interval := p.opts.BackoffMin

	for {
		select {
		case <-ctx.Done():
			job.finish(StatusTimedOut, nil, ErrGenerationTimeout)
			state.err = ErrGenerationTimeout
			log.Printf("[Jobs] Job %s timed out after %v", job.ID, p.opts.MaxWait)
			return
		case <-time.After(interval):
		}

		gen, err := p.api.Get(ctx, job.ID)
		if err != nil {
			// The deadline firing mid-poll is a timeout, not a service
			// failure.
			if ctx.Err() != nil {
				job.finish(StatusTimedOut, nil, ErrGenerationTimeout)
				state.err = ErrGenerationTimeout
				log.Printf("[Jobs] Job %s timed out after %v", job.ID, p.opts.MaxWait)
				return
			}
			// The client already retried transient failures.
			job.finish(StatusFailed, nil, err)
			state.err = err
			log.Printf("[Jobs] Polling job %s failed: %v", job.ID, err)
			return
		}

		job.setPolled(time.Now())

		switch gen.Status {
		case suno.StatusCompleted:
			trk := trackFromGeneration(gen)
			job.finish(StatusReady, &trk, nil)
			state.trk = trk
			log.Printf("[Jobs] Job %s ready: %q", job.ID, trk.Title)
			return
		case suno.StatusFailed:
			genErr := &GenerationError{Reason: gen.Error}
			job.finish(StatusFailed, nil, genErr)
			state.err = genErr
			log.Printf("[Jobs] Job %s failed: %s", job.ID, gen.Error)
			return
		}

		interval *= 2
		if interval > p.opts.BackoffMax {
			interval = p.opts.BackoffMax
		}
	}
}

func trackFromGeneration(gen *suno.Generation) track.Track {
	title := gen.Prompt
	if title == "" {
		title = "Untitled generation"
	}
	return track.Track{
		SourceID: gen.ID,
		Title:    title,
		Duration: time.Duration(gen.Duration * float64(time.Second)),
		AudioURL: gen.AudioURL,
	}
}
