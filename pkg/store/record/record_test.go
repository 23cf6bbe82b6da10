package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"pdf", KindPdf},
		{"PDF", KindPdf},
		{".docx", KindDocx},
		{" xls ", KindXls},
		{"txt", KindTxt},
		{"csv", KindCsv},
		{"pptx", KindPptx},
		{"jpeg", KindJpg},
		{"png", KindPng},
		{"unknown", KindUnknown},
		{"heic", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKind(tt.input))
		})
	}
}

func TestKindFallback(t *testing.T) {
	var zero Kind
	assert.Equal(t, KindUnknown, zero)
	assert.Equal(t, "unknown", Kind(99).String())
	assert.Equal(t, KindUnknown, Kind(99).Normalize())
	assert.False(t, KindUnknown.Known())
	assert.True(t, KindPng.Known())
	assert.Len(t, Kinds(), 9)
}

func TestKindJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Kind Kind `json:"kind"`
	}{KindPptx})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"pptx"}`, string(data))

	var decoded struct {
		Kind Kind `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"mystery"}`), &decoded))
	assert.Equal(t, KindUnknown, decoded.Kind)
}

func TestRecordApplyKeepsIdentityFields(t *testing.T) {
	rec := &Record{ID: 3, Name: "a", Kind: KindTxt, Size: 1, Description: "d", Owner: "alice"}
	created := rec.CreatedAt

	rec.Apply(Fields{Name: "b", Kind: KindCsv, Size: 2, Description: "e"})

	assert.Equal(t, ID(3), rec.ID)
	assert.Equal(t, Identity("alice"), rec.Owner)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, "b", rec.Name)
	assert.Equal(t, KindCsv, rec.Kind)
	assert.Equal(t, uint64(2), rec.Size)
	assert.Equal(t, "e", rec.Description)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, ID(^uint64(0)), id)

	_, err = ParseID("-1")
	assert.True(t, HasCode(err, ErrInvalidArgument))
}

func TestStoreErrorMessages(t *testing.T) {
	err := NewNotFoundError(12)
	assert.Equal(t, "record not found: record 12", err.Error())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(nil))
	assert.Equal(t, "NotFound", ErrNotFound.String())
}
