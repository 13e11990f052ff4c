package recorder

import "time"

// UploadEvent records one spreadsheet import.
type UploadEvent struct {
	Filename string
	Sheets   int
	Total    int
}

// ExitEvent records a closed position.
type ExitEvent struct {
	Ticker        string
	Entry         string
	ExitValue     string
	ReturnPercent string
	Notes         string
}

// DeletionEvent records a removed record.
type DeletionEvent struct {
	Ticker string
	Status string
}

// Snapshot is a periodic dump of the record collection.
type Snapshot struct {
	Taken  time.Time
	Open   int
	Closed int
	// Records is the JSON encoded collection.
	Records []byte
}

// Recorder persists history for later analysis. Failures never block the
// operation that produced the event.
type Recorder interface {
	RecordUpload(evt *UploadEvent) error
	RecordExit(evt *ExitEvent) error
	RecordDeletion(evt *DeletionEvent) error
	RecordSnapshot(snap *Snapshot) error
	Close() error
}
