package track

import "time"

// Track is a resolved, playable audio reference. The audio locator is
// filled in lazily when the track reaches the queue head, so a freshly
// resolved track may carry an empty AudioURL.
type Track struct {
	SourceID string
	Title    string
	Duration time.Duration
	AudioURL string
}
