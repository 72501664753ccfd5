package storage

// NewStorage creates the configured storage backend. An empty data
// directory selects the in-memory no-op backend, which keeps the seen
// window process-local.
func NewStorage(dataDir string) (Storage, error) {
	if dataDir == "" {
		return NewNoop(), nil
	}
	return NewSQLiteStorage(dataDir)
}
