package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeTreatsFullWidthSpaceAsSeparator(t *testing.T) {
	ascii := Tokenize("PC200 done")
	fullWidth := Tokenize("PC200　done")

	assert.Equal(t, []string{"PC200", "done"}, ascii)
	assert.Equal(t, ascii, fullWidth)
	assert.Equal(t, []string{"a", "b", "c"}, Tokenize("  a\t　b \n c　"))
}

func TestTokenizeBlankQuery(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize(" 　\t "))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	require.NoError(t, err)
	assert.True(t, d.Equal(NewDate(2024, time.June, 1)))
	assert.Equal(t, "2024-06-01", d.String())

	for _, raw := range []string{"", "2024/06/01", "2024-13-01", "yesterday", "2024-06-01T10:00:00Z"} {
		_, err := ParseDate(raw)
		require.Error(t, err, raw)
		assert.True(t, IsValidation(err), raw)
	}
}

func TestRecordDateJSON(t *testing.T) {
	d := NewDate(2024, time.January, 1)
	rec := Record{ID: 3, Date: &d}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"category":null,"date":"2024-01-01","model_name":null,"serial_number":null,"content":null}`, string(data))

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.Date)
	assert.True(t, back.Date.Equal(d))

	var undated Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"date":null}`), &undated))
	assert.Nil(t, undated.Date)
}

func TestErrorKinds(t *testing.T) {
	storage := &StorageError{Op: "create record", Err: assert.AnError}
	assert.True(t, IsStorage(storage))
	assert.ErrorIs(t, storage, assert.AnError)
	assert.False(t, IsNotFound(storage))

	assert.True(t, IsNotFound(&NotFoundError{ID: 9}))
	assert.Equal(t, "record 9 not found", (&NotFoundError{ID: 9}).Error())
	assert.True(t, IsTransport(&TransportError{Op: "GET /records/", Err: assert.AnError}))
}
