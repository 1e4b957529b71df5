package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// timeLayout is fixed-width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// dbFile is the database file name inside the data directory.
const dbFile = "packs.db"

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.zerosignal/data/packs.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".zerosignal", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// WAL lets readers page through a pack while an ingest writes to it
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if _, err := migrations.Apply(context.Background(), db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VectorStore returns a VectorStore backed by this store. The returned
// value also implements driven.VectorSearcher.
func (s *Store) VectorStore() *VectorStore {
	return &VectorStore{store: s}
}

// RegistryStore returns a RegistryStore interface backed by this store.
func (s *Store) RegistryStore() driven.RegistryStore {
	return &registryStore{store: s}
}

// IngestRunStore returns an IngestRunStore interface backed by this store.
func (s *Store) IngestRunStore() driven.IngestRunStore {
	return &ingestRunStore{store: s}
}

// SyncStateStore returns a SyncStateStore interface backed by this store.
func (s *Store) SyncStateStore() driven.SyncStateStore {
	return &syncStateStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// ==================== Registry Store ====================

// registryStore implements driven.RegistryStore.
type registryStore struct {
	store *Store
}

var _ driven.RegistryStore = (*registryStore)(nil)

// Save stores or replaces an entry.
func (s *registryStore) Save(ctx context.Context, entry domain.RegistryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling registry entry: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO pack_registry (pack_id, entry, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(pack_id) DO UPDATE SET
			entry = excluded.entry,
			updated_at = excluded.updated_at
	`, entry.PackID, string(data), formatTime(time.Now()))
	if err != nil {
		return storeError("saving registry entry", err)
	}
	return nil
}

// Get retrieves the entry for a pack.
func (s *registryStore) Get(ctx context.Context, packID string) (*domain.RegistryEntry, error) {
	var data string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT entry FROM pack_registry WHERE pack_id = ?", packID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pack %s: %w", packID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeError("reading registry entry", err)
	}
	return decodeEntry(data)
}

// List returns every entry ordered by pack id.
func (s *registryStore) List(ctx context.Context) ([]domain.RegistryEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT entry FROM pack_registry ORDER BY pack_id")
	if err != nil {
		return nil, storeError("querying registry", err)
	}
	defer rows.Close()

	entries := make([]domain.RegistryEntry, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning registry entry: %w", err)
		}
		entry, err := decodeEntry(data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating registry: %w", err)
	}
	return entries, nil
}

// Delete removes the entry for a pack.
func (s *registryStore) Delete(ctx context.Context, packID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM pack_registry WHERE pack_id = ?", packID)
	if err != nil {
		return storeError("deleting registry entry", err)
	}
	return nil
}

func decodeEntry(data string) (*domain.RegistryEntry, error) {
	var entry domain.RegistryEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("unmarshalling registry entry: %w", err)
	}
	return &entry, nil
}

// ==================== Ingest Run Store ====================

// ingestRunStore implements driven.IngestRunStore.
type ingestRunStore struct {
	store *Store
}

var _ driven.IngestRunStore = (*ingestRunStore)(nil)

// SaveRun stores or updates a run.
func (s *ingestRunStore) SaveRun(ctx context.Context, run domain.IngestRun) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, pack_id, started_at, finished_at, chunks, stored, batches, failed_batches, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			chunks = excluded.chunks,
			stored = excluded.stored,
			batches = excluded.batches,
			failed_batches = excluded.failed_batches,
			status = excluded.status,
			error = excluded.error
	`, run.ID, run.PackID, formatTime(run.StartedAt), formatNullableTime(run.FinishedAt),
		run.Chunks, run.Stored, run.Batches, run.FailedBatches, string(run.Status), nullString(run.Error))
	if err != nil {
		return storeError("saving ingest run", err)
	}
	return nil
}

// ListRuns returns recent runs for a pack, most recent first.
// A non-positive limit returns every run.
func (s *ingestRunStore) ListRuns(ctx context.Context, packID string, limit int) ([]domain.IngestRun, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, pack_id, started_at, finished_at, chunks, stored, batches, failed_batches, status, error
		FROM ingest_runs
		WHERE pack_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, packID, limit)
	if err != nil {
		return nil, storeError("querying ingest runs", err)
	}
	defer rows.Close()

	runs := make([]domain.IngestRun, 0)
	for rows.Next() {
		var run domain.IngestRun
		var startedAt string
		var finishedAt, errMsg sql.NullString
		var status string
		if err := rows.Scan(&run.ID, &run.PackID, &startedAt, &finishedAt,
			&run.Chunks, &run.Stored, &run.Batches, &run.FailedBatches, &status, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning ingest run: %w", err)
		}
		run.StartedAt = parseTime(startedAt)
		run.FinishedAt = parseNullableTime(finishedAt)
		run.Status = domain.IngestStatus(status)
		run.Error = errMsg.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingest runs: %w", err)
	}
	return runs, nil
}

// ==================== Sync State Store ====================

// syncStateStore implements driven.SyncStateStore.
type syncStateStore struct {
	store *Store
}

var _ driven.SyncStateStore = (*syncStateStore)(nil)

// Save stores or updates sync state.
func (s *syncStateStore) Save(ctx context.Context, state domain.SyncState) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_states (key, pack_id, server, cursor, pulled, last_sync)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			cursor = excluded.cursor,
			pulled = excluded.pulled,
			last_sync = excluded.last_sync
	`, state.Key(), state.PackID, state.Server, state.Cursor, state.Pulled, formatNullableTime(state.LastSync))
	if err != nil {
		return storeError("saving sync state", err)
	}
	return nil
}

// Get retrieves sync state, or nil when none exists.
func (s *syncStateStore) Get(ctx context.Context, key string) (*domain.SyncState, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT pack_id, server, cursor, pulled, last_sync
		FROM sync_states WHERE key = ?
	`, key)

	var state domain.SyncState
	var lastSync sql.NullString
	if err := row.Scan(&state.PackID, &state.Server, &state.Cursor, &state.Pulled, &lastSync); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning sync state: %w", err)
	}
	state.LastSync = parseNullableTime(lastSync)
	return &state, nil
}

// Delete removes sync state.
func (s *syncStateStore) Delete(ctx context.Context, key string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM sync_states WHERE key = ?", key)
	if err != nil {
		return storeError("deleting sync state", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// storeError marks a database failure as a store outage. Context errors
// pass through unchanged.
func storeError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by the scheduler use RFC3339
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

// formatNullableTime stores the zero time as NULL.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	return parseTime(s.String)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
