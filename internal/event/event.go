package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	PhaseStarted Type = iota + 1
	FileUploaded
	FileSkipped
	FileFailed
	FileDeleted
	DeleteSkipped
	DeleteFailed
	EntryPublished
)

var typeNames = [...]string{
	PhaseStarted:   "PhaseStarted",
	FileUploaded:   "FileUploaded",
	FileSkipped:    "FileSkipped",
	FileFailed:     "FileFailed",
	FileDeleted:    "FileDeleted",
	DeleteSkipped:  "DeleteSkipped",
	DeleteFailed:   "DeleteFailed",
	EntryPublished: "EntryPublished",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the deploy engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Phase     string // PhaseStarted only
	Path      string // remote-relative path
	Size      int64
	Error     error
}
