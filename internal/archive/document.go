package archive

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cardboxapp/cardbox/internal/assets"
	"github.com/cardboxapp/cardbox/internal/sqlite"
	"github.com/cardboxapp/cardbox/pkg/types"
)

// seedTypeName is the standalone type every fresh document starts with.
const seedTypeName = "Note"

// Document is one open cardbox file: the backend over its extracted
// database plus the asset store, bound to the archive they came from.
// Mutations happen in the scratch working directory; Save packs them back.
type Document struct {
	Backend *sqlite.Backend
	Assets  *assets.Store

	path    string
	workDir string
}

// Create makes a fresh document at path, seeded with a root Note type, and
// leaves it open. Fails if the file already exists.
func Create(path, scratchDir string) (*Document, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s already exists", types.ErrValidation, path)
	}

	d, err := attach(path, scratchDir)
	if err != nil {
		return nil, err
	}
	if _, err := d.Backend.NewCardType(seedTypeName, nil); err != nil {
		d.Close()
		return nil, err
	}
	if err := d.Save(); err != nil {
		d.Close()
		return nil, err
	}
	slog.Info("created document", "path", path)
	return d, nil
}

// Open extracts an existing document into a scratch directory and attaches
// the backend to it.
func Open(path, scratchDir string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("document %s: %w", path, types.ErrNotFound)
	}

	workDir, err := os.MkdirTemp(scratchDir, "cardbox-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating scratch dir: %v", types.ErrStorage, err)
	}
	if err := Extract(path, workDir); err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}

	d, err := attachTo(path, workDir)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}
	slog.Info("opened document", "path", path)
	return d, nil
}

// attach creates a fresh working directory and backend for a new document.
func attach(path, scratchDir string) (*Document, error) {
	workDir, err := os.MkdirTemp(scratchDir, "cardbox-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating scratch dir: %v", types.ErrStorage, err)
	}
	d, err := attachTo(path, workDir)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}
	return d, nil
}

func attachTo(path, workDir string) (*Document, error) {
	b := sqlite.NewBackend()
	if err := b.Attach(types.Config{WorkDir: workDir}); err != nil {
		return nil, err
	}
	store, err := assets.NewStore(workDir)
	if err != nil {
		b.Detach()
		return nil, err
	}
	return &Document{Backend: b, Assets: store, path: path, workDir: workDir}, nil
}

// Path returns the archive file path.
func (d *Document) Path() string { return d.path }

// WorkDir returns the scratch directory holding the extracted contents.
func (d *Document) WorkDir() string { return d.workDir }

// Save compacts the database, prunes assets no image field references
// anymore, and repacks the working directory over the archive atomically.
func (d *Document) Save() error {
	if err := d.Backend.Vacuum(); err != nil {
		return err
	}
	refs, err := d.Backend.ReferencedAssets()
	if err != nil {
		return err
	}
	pruned, err := d.Assets.Prune(refs)
	if err != nil {
		return err
	}
	if pruned > 0 {
		slog.Debug("pruned assets", "count", pruned)
	}
	return Pack(d.workDir, d.path)
}

// Close detaches the backend and removes the scratch directory. Unsaved
// changes are discarded.
func (d *Document) Close() error {
	if err := d.Backend.Detach(); err != nil {
		return err
	}
	if err := os.RemoveAll(d.workDir); err != nil {
		return fmt.Errorf("%w: removing scratch dir: %v", types.ErrStorage, err)
	}
	return nil
}
