package suno

// Generation wire statuses. The API reports lowercase strings; anything
// not listed here is treated as still in progress.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Generation is one generation record as the API returns it.
type Generation struct {
	ID       string  `json:"id"`
	Prompt   string  `json:"prompt"`
	Status   string  `json:"status"`
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"duration,omitempty"` // seconds, best-effort
	AudioURL string  `json:"audio_url,omitempty"`
}
