package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID    int64
	Label string
	Tags  []string
	Dirty bool // not persisted
}

func widgetFields() []Field[widget] {
	return []Field[widget]{
		{
			Name: "id",
			Get:  func(w *widget) any { return w.ID },
			Set:  func(w *widget, v any) { w.ID = v.(int64) },
		},
		{
			Name: "label",
			Get:  func(w *widget) any { return w.Label },
			Set:  func(w *widget, v any) { w.Label = v.(string) },
		},
		{
			Name: "tags",
			Get:  func(w *widget) any { return w.Tags },
			Set:  func(w *widget, v any) { w.Tags = v.([]string) },
			Clone: func(v any) any {
				tags := v.([]string)
				out := make([]string, len(tags))
				copy(out, tags)
				return out
			},
		},
		{
			Name:      "dirty",
			Get:       func(w *widget) any { return w.Dirty },
			Transient: true,
		},
	}
}

func TestNewSchema(t *testing.T) {
	s, err := New[widget]("widget", widgetFields(), []string{"id"}, WithIdentity[widget]())
	require.NoError(t, err)

	assert.Equal(t, "widget", s.Name())
	assert.True(t, s.Identity())
	assert.Equal(t, []string{"id"}, s.KeyNames())

	// Transient fields are excluded from the persisted list.
	persisted := s.Persisted()
	require.Len(t, persisted, 3)
	assert.Equal(t, "id", persisted[0].Name)
	assert.Equal(t, "label", persisted[1].Name)
	assert.Equal(t, "tags", persisted[2].Name)
}

func TestNewSchemaCompositeKey(t *testing.T) {
	s, err := New[widget]("widget", widgetFields(), []string{"label", "id"})
	require.NoError(t, err)

	w := &widget{ID: 3, Label: "bolt"}
	assert.Equal(t, []any{"bolt", int64(3)}, s.KeyValues(w))
}

func TestFieldLookup(t *testing.T) {
	s, err := New[widget]("widget", widgetFields(), []string{"id"})
	require.NoError(t, err)

	f, ok := s.Field("label")
	require.True(t, ok)
	assert.Equal(t, "label", f.Name)

	_, ok = s.Field("nope")
	assert.False(t, ok)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field[widget]
		key     []string
		opts    []Option[widget]
		wantErr string
	}{
		{
			name:    "no fields",
			fields:  nil,
			key:     []string{"id"},
			wantErr: "at least one field",
		},
		{
			name: "duplicate field",
			fields: []Field[widget]{
				{Name: "id", Get: func(w *widget) any { return w.ID }, Set: func(w *widget, v any) {}},
				{Name: "id", Get: func(w *widget) any { return w.ID }, Set: func(w *widget, v any) {}},
			},
			key:     []string{"id"},
			wantErr: "duplicate field",
		},
		{
			name: "persisted field without Set",
			fields: []Field[widget]{
				{Name: "id", Get: func(w *widget) any { return w.ID }},
			},
			key:     []string{"id"},
			wantErr: "no Set accessor",
		},
		{
			name:    "no key fields",
			fields:  widgetFields(),
			key:     nil,
			wantErr: "no key fields",
		},
		{
			name:    "unknown key field",
			fields:  widgetFields(),
			key:     []string{"serial"},
			wantErr: "not declared",
		},
		{
			name:    "transient key field",
			fields:  widgetFields(),
			key:     []string{"dirty"},
			wantErr: "transient",
		},
		{
			name:    "identity with composite key",
			fields:  widgetFields(),
			key:     []string{"id", "label"},
			opts:    []Option[widget]{WithIdentity[widget]()},
			wantErr: "exactly one key field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[widget]("widget", tt.fields, tt.key, tt.opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFieldEqualDefault(t *testing.T) {
	f := &Field[widget]{Name: "tags"}
	assert.True(t, f.EqualValues([]string{"a"}, []string{"a"}))
	assert.False(t, f.EqualValues([]string{"a"}, []string{"b"}))
}

func TestFieldCloneDefaultIsAssignment(t *testing.T) {
	f := &Field[widget]{Name: "label"}
	assert.Equal(t, "x", f.CloneValue("x"))
}
