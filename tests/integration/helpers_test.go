// Package integration exercises the full document stack: archive packing,
// the SQLite backend, and the asset store working together.
package integration

import (
	"path/filepath"
	"testing"

	"github.com/cardboxapp/cardbox/internal/archive"
	"github.com/cardboxapp/cardbox/pkg/types"
)

// newDocument creates a fresh document in a temp location and closes it
// when the test ends.
func newDocument(t *testing.T) *archive.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+archive.Extension)
	d, err := archive.Create(path, t.TempDir())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// mustType creates a card type or fails the test.
func mustType(t *testing.T, d *archive.Document, name string, parentID *string) *types.CardType {
	t.Helper()
	ct, err := d.Backend.NewCardType(name, parentID)
	if err != nil {
		t.Fatalf("NewCardType(%q): %v", name, err)
	}
	return ct
}

// mustField adds a field and retypes it to kind, returning the field.
func mustField(t *testing.T, d *archive.Document, typeID, name, kind string) *types.CardTypeField {
	t.Helper()
	ct, err := d.Backend.ApplyChange(typeID, types.AddField{Name: name})
	if err != nil {
		t.Fatalf("AddField(%q): %v", name, err)
	}
	f := ct.FieldByName(name)
	if kind != types.FieldText {
		ct, err = d.Backend.ApplyChange(typeID, types.RetypeField{FieldID: f.FieldID, NewKind: kind})
		if err != nil {
			t.Fatalf("RetypeField(%q -> %s): %v", name, kind, err)
		}
		f = ct.FieldByID(f.FieldID)
	}
	return f
}

// mustCard creates a card or fails the test.
func mustCard(t *testing.T, d *archive.Document, typeID string) *types.Card {
	t.Helper()
	card, err := d.Backend.NewCard(typeID)
	if err != nil {
		t.Fatalf("NewCard: %v", err)
	}
	return card
}
