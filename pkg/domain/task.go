package domain

import "time"

type Origin string

const (
	OriginText  Origin = "text"
	OriginImage Origin = "image"
)

// Submitter is the Telegram identity behind a task.
type Submitter struct {
	ExternalID int64
	ChatID     int64
	Username   string
	FirstName  string
}

// Task is a single homework submission. It lives only for the duration of one pipeline run.
type Task struct {
	Origin         Origin
	Text           string
	ImageFileID    string
	Image          []byte
	NormalizedText string
	Submitter      Submitter
	CreatedAt      time.Time
}

func NewTextTask(submitter Submitter, text string) *Task {
	return &Task{
		Origin:    OriginText,
		Text:      text,
		Submitter: submitter,
		CreatedAt: time.Now(),
	}
}

func NewImageTask(submitter Submitter, fileID string) *Task {
	return &Task{
		Origin:      OriginImage,
		ImageFileID: fileID,
		Submitter:   submitter,
		CreatedAt:   time.Now(),
	}
}
