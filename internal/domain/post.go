package domain

import "time"

// Post is a published generation. Posts are immutable once created;
// UserName is a free-text author label, not a reference to a User.
type Post struct {
	ID        int64
	UserName  string
	Prompt    string
	Photo     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GeneratedImage is the transient result of one inference call. It lives
// only inside a request/response cycle and is never persisted; publishing
// re-submits the payload through the upload workflow.
type GeneratedImage struct {
	Prompt    string
	DataURI   string
	CreatedAt time.Time
}
