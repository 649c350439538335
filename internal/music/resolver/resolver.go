package resolver

import (
	"context"
	"log"
	"time"

	"tunesmith/internal/music/jobs"
	"tunesmith/internal/music/track"
	"tunesmith/internal/suno"
)

// API is the slice of the library/search service the resolver needs.
type API interface {
	Get(ctx context.Context, id string) (*suno.Generation, error)
	Search(ctx context.Context, query string, limit int) ([]suno.Generation, error)
}

// Submitter turns a prompt into a finished generation.
type Submitter interface {
	Submit(ctx context.Context, prompt, style string) (*jobs.Job, error)
	AwaitCompletion(ctx context.Context, job *jobs.Job) (track.Track, error)
}

// Resolver turns user requests into playable tracks.
type Resolver struct {
	api         API
	poller      Submitter
	searchLimit int
}

// New creates a Resolver. searchLimit caps every search, regardless of
// what the service would return.
func New(api API, poller Submitter, searchLimit int) *Resolver {
	if searchLimit <= 0 {
		searchLimit = 10
	}
	return &Resolver{api: api, poller: poller, searchLimit: searchLimit}
}

// ResolveGenerate submits the prompt and blocks until the generated
// track is ready or the job fails or times out.
func (r *Resolver) ResolveGenerate(ctx context.Context, prompt, style string) (track.Track, error) {
	job, err := r.poller.Submit(ctx, prompt, style)
	if err != nil {
		return track.Track{}, err
	}
	return r.poller.AwaitCompletion(ctx, job)
}

// ResolvePlay looks up an existing generation by id. Missing ids
// surface as suno.ErrNotFound.
func (r *Resolver) ResolvePlay(ctx context.Context, id string) (track.Track, error) {
	gen, err := r.api.Get(ctx, id)
	if err != nil {
		return track.Track{}, err
	}

	title := gen.Prompt
	if title == "" {
		title = "Untitled generation"
	}
	return track.Track{
		SourceID: gen.ID,
		Title:    title,
		Duration: time.Duration(gen.Duration * float64(time.Second)),
		AudioURL: gen.AudioURL,
	}, nil
}

// ResolveSearch queries the library and returns a cursor over at most
// searchLimit matches. No matches yields an empty cursor, not an error.
func (r *Resolver) ResolveSearch(ctx context.Context, query string) (*SearchResults, error) {
	gens, err := r.api.Search(ctx, query, r.searchLimit)
	if err != nil {
		return nil, err
	}

	if len(gens) > r.searchLimit {
		gens = gens[:r.searchLimit]
	}
	log.Printf("[Resolver] Search %q returned %d result(s)", query, len(gens))
	return &SearchResults{gens: gens}, nil
}

// SearchResults is a finite, non-restartable cursor over search
// matches. Not safe for concurrent use.
type SearchResults struct {
	gens []suno.Generation
	pos  int
}

// Next returns the next matching track, or ok=false once the cursor is
// exhausted.
func (s *SearchResults) Next() (track.Track, bool) {
	if s.pos >= len(s.gens) {
		return track.Track{}, false
	}
	gen := s.gens[s.pos]
	s.pos++

	title := gen.Prompt
	if title == "" {
		title = "Untitled generation"
	}
	return track.Track{
		SourceID: gen.ID,
		Title:    title,
		Duration: time.Duration(gen.Duration * float64(time.Second)),
		AudioURL: gen.AudioURL,
	}, true
}

// Remaining reports how many results the cursor has left to yield.
func (s *SearchResults) Remaining() int {
	return len(s.gens) - s.pos
}
