package view

import "time"

// CommitInfo describes the most recent commit touching a path.
type CommitInfo struct {
	Hash    string    `json:"hash"`
	Author  string    `json:"author"`
	Email   string    `json:"email,omitempty"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// FileMeta holds the metadata the dispatcher and strategies work from.
// Path is never empty; MIMEType is meaningful whenever IsBinary is set.
type FileMeta struct {
	Path       string     `json:"path"`
	IsBinary   bool       `json:"isBinary"`
	MIMEType   string     `json:"mimetype"`
	Size       int64      `json:"size"`
	LastCommit CommitInfo `json:"lastCommit"`
}
