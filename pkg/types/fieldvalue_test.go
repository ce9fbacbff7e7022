package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValue(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		wantErr  error
		wantKind string
	}{
		{name: "text", kind: FieldText, wantKind: FieldText},
		{name: "card", kind: FieldCard, wantKind: FieldCard},
		{name: "list", kind: FieldList, wantKind: FieldList},
		{name: "image", kind: FieldImage, wantKind: FieldImage},
		{name: "checkbox", kind: FieldCheckBox, wantKind: FieldCheckBox},
		{name: "unknown kind rejected", kind: "blob", wantErr: ErrInvalidFieldKind},
		{name: "empty kind rejected", kind: "", wantErr: ErrInvalidFieldKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ZeroValue(tt.kind)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, v.Kind())
		})
	}
}

func TestZeroValueDefaults(t *testing.T) {
	text, err := ZeroValue(FieldText)
	require.NoError(t, err)
	assert.Equal(t, TextValue{}, text)

	ref, err := ZeroValue(FieldCard)
	require.NoError(t, err)
	assert.Nil(t, ref.(CardRefValue).Ref)

	list, err := ZeroValue(FieldList)
	require.NoError(t, err)
	assert.Empty(t, list.(ListValue).Items)

	check, err := ZeroValue(FieldCheckBox)
	require.NoError(t, err)
	assert.False(t, check.(CheckBoxValue).Checked)
}

func TestIsValidFieldKind(t *testing.T) {
	for _, kind := range []string{FieldText, FieldCard, FieldList, FieldImage, FieldCheckBox} {
		assert.True(t, IsValidFieldKind(kind), kind)
	}
	assert.False(t, IsValidFieldKind("number"))
	assert.False(t, IsValidFieldKind(""))
}
