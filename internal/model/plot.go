package model

// Plot.Version counts successful rollbacks and starts at 0 ("no rollbacks
// yet"). Section.Version counts content edits and starts at 1 ("initial
// content"). The two counters live on different axes and are never compared.
type Plot struct {
	ID           string   `json:"id"`
	OwnerID      string   `json:"owner_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	IsPaused     int      `json:"is_paused"`
	PauseReason  string   `json:"pause_reason"`
	Version      int      `json:"version"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Ctime        int64    `json:"ctime"`
	Mtime        int64    `json:"mtime"`
}
