package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordUpload(_ *UploadEvent) error     { return nil }
func (n *NoopRecorder) RecordExit(_ *ExitEvent) error         { return nil }
func (n *NoopRecorder) RecordDeletion(_ *DeletionEvent) error { return nil }
func (n *NoopRecorder) RecordSnapshot(_ *Snapshot) error      { return nil }
func (n *NoopRecorder) Close() error                          { return nil }
