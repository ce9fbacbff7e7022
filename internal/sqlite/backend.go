package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cardboxapp/cardbox/pkg/types"
)

// DBFileName is the database file inside a document's working directory
// (and at the root of the packed archive).
const DBFileName = "cards.db"

// Backend is the schema store for one open document. All engine operations
// (catalog reads, type edits, card and arrangement mutations) go through a
// Backend; mutating operations run as single transactions.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	sinkMu sync.Mutex
	sinks  []types.EventSink
}

// NewBackend creates an unattached backend. Call Attach with a Config to
// open or create the document database.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database file in the configured working directory,
// creating the directory and the schema when the file is new. Returns
// ErrAlreadyAttached if already attached and ErrValidation when the
// document's schema version is newer than this build supports.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrValidation, err)
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return storagef("create work dir", err)
	}

	dbPath := filepath.Join(config.WorkDir, DBFileName)
	_, statErr := os.Stat(dbPath)
	fresh := os.IsNotExist(statErr)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return storagef("open database", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return storagef("enable foreign keys", err)
	}

	if fresh {
		if err := initSchema(db); err != nil {
			db.Close()
			_ = os.Remove(dbPath)
			return err
		}
	} else {
		if err := checkSchemaVersion(db); err != nil {
			db.Close()
			return err
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the database. Idempotent; after Detach all operations
// return ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return storagef("close database", err)
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// Vacuum compacts the database file. Called before the document is packed
// back into its archive.
func (b *Backend) Vacuum() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	if _, err := b.db.Exec("VACUUM"); err != nil {
		return storagef("vacuum", err)
	}
	return nil
}

// WorkDir returns the working directory of the attached document.
func (b *Backend) WorkDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.WorkDir
}

// Subscribe registers an event sink. Sinks run after the owning operation
// commits and must not call back into the backend.
func (b *Backend) Subscribe(sink types.EventSink) {
	b.sinkMu.Lock()
	defer b.sinkMu.Unlock()
	b.sinks = append(b.sinks, sink)
}

// emit delivers an event to every registered sink.
func (b *Backend) emit(e types.Event) {
	b.sinkMu.Lock()
	sinks := make([]types.EventSink, len(b.sinks))
	copy(sinks, b.sinks)
	b.sinkMu.Unlock()

	for _, sink := range sinks {
		sink(e)
	}
}

// ReferencedAssets returns the asset filenames referenced by live image
// fields. The archive writer prunes everything else before packing.
func (b *Backend) ReferencedAssets() (map[string]bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	rows, err := b.db.Query("SELECT asset FROM image_values WHERE asset != ''")
	if err != nil {
		return nil, storagef("reading referenced assets", err)
	}
	defer rows.Close()

	refs := make(map[string]bool)
	for rows.Next() {
		var asset string
		if err := rows.Scan(&asset); err != nil {
			return nil, storagef("scanning asset", err)
		}
		refs[asset] = true
	}
	return refs, rows.Err()
}

// initSchema creates all tables and indexes and writes the schema version.
func initSchema(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return storagef("create table", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			return storagef("create index", err)
		}
	}
	if _, err := db.Exec("INSERT INTO schema_info (version) VALUES (?)", schemaVersion); err != nil {
		return storagef("write schema version", err)
	}
	return nil
}

// checkSchemaVersion rejects documents written by a newer build.
func checkSchemaVersion(db *sql.DB) error {
	var v int
	if err := db.QueryRow("SELECT version FROM schema_info").Scan(&v); err != nil {
		return fmt.Errorf("%w: missing schema version: %v", types.ErrCorruptState, err)
	}
	if v > schemaVersion {
		return fmt.Errorf("%w: document schema version %d is newer than supported %d",
			types.ErrValidation, v, schemaVersion)
	}
	return nil
}

// newUUID generates a UUID v7 string, falling back to v4 if v7 fails.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
