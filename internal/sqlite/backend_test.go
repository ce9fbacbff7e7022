package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardboxapp/cardbox/pkg/types"
)

// newTestBackend creates an attached backend over a scratch directory and
// detaches it when the test ends.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{WorkDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	err := b.Attach(types.Config{WorkDir: tmpDir})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	// Verify database file created
	dbPath := filepath.Join(tmpDir, DBFileName)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("%s not created", DBFileName)
	}

	// Verify double attach fails
	err = b.Attach(types.Config{WorkDir: tmpDir})
	if err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{WorkDir: t.TempDir()}))

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	// Verify idempotent
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}

	// Verify operations fail after detach
	_, err := b.Types()
	if err != types.ErrDetached {
		t.Errorf("expected ErrDetached, got %v", err)
	}
}

func TestBackend_AttachEmptyWorkDir(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{})
	require.ErrorIs(t, err, types.ErrValidation)
}

func TestBackend_Reattach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{WorkDir: tmpDir}))
	ct, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	// A second backend over the same directory sees the saved type.
	b2 := NewBackend()
	require.NoError(t, b2.Attach(types.Config{WorkDir: tmpDir}))
	defer b2.Detach()

	got, err := b2.GetType(ct.TypeID)
	require.NoError(t, err)
	require.Equal(t, "Note", got.Name)
}

func TestBackend_RejectsNewerSchema(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{WorkDir: tmpDir}))
	_, err := b.db.Exec("UPDATE schema_info SET version = ?", schemaVersion+1)
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	err = b2.Attach(types.Config{WorkDir: tmpDir})
	require.ErrorIs(t, err, types.ErrValidation)
}

func TestBackend_Subscribe(t *testing.T) {
	b := newTestBackend(t)

	var events []types.Event
	b.Subscribe(func(e types.Event) { events = append(events, e) })

	ct, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	_, err = b.NewCard(ct.TypeID)
	require.NoError(t, err)

	require.Len(t, events, 2)
	require.Equal(t, types.EventTypeChanged, events[0].Kind)
	require.Equal(t, types.EventCardAdded, events[1].Kind)
}

func TestBackend_ReferencedAssets(t *testing.T) {
	b := newTestBackend(t)

	ct, err := b.NewCardType("Photo", nil)
	require.NoError(t, err)
	img := addFieldOfKind(t, b, ct.TypeID, "Picture", types.FieldImage)

	card, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)
	require.NoError(t, b.SetImageField(card.CardID, img.FieldID, "abc123.png"))

	refs, err := b.ReferencedAssets()
	require.NoError(t, err)
	require.True(t, refs["abc123.png"])
	require.Len(t, refs, 1)
}

func TestBackend_Vacuum(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Vacuum())
}
