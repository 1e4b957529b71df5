package domain

import "time"

// SyncState tracks the progress of pulling a pack from a remote server.
type SyncState struct {
	// PackID is the pack being pulled.
	PackID string

	// Server is the base URL of the remote server.
	Server string

	// Cursor is the last acknowledged download cursor.
	// Empty means the next pull starts from the beginning.
	Cursor string

	// Pulled is the number of chunks stored during the current session.
	Pulled int

	// LastSync is when the last complete pull finished.
	LastSync time.Time
}

// Key returns the state key, unique per server and pack.
func (s *SyncState) Key() string {
	return SyncKey(s.Server, s.PackID)
}

// SyncKey builds the sync state key for a server and pack.
func SyncKey(server, packID string) string {
	return server + "#" + packID
}
