package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshot_Compacts(t *testing.T) {
	a, err := ParseSnapshot([]byte("{ \"elements\" : [ 1, 2 ] }\n"))
	require.NoError(t, err)
	b, err := ParseSnapshot([]byte(`{"elements":[1,2]}`))
	require.NoError(t, err)

	assert.Equal(t, `{"elements":[1,2]}`, string(a))
	assert.True(t, a.Equal(b))
}

func TestParseSnapshot_Invalid(t *testing.T) {
	_, err := ParseSnapshot(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseSnapshot([]byte(`{"elements":`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewSnapshot(t *testing.T) {
	s, err := NewSnapshot(map[string]any{"elements": []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, `{"elements":["a"]}`, string(s))
}

func TestSnapshot_EqualIsByteEquality(t *testing.T) {
	a := Snapshot(`{"a":1,"b":2}`)
	b := Snapshot(`{"b":2,"a":1}`)
	assert.False(t, a.Equal(b))
	assert.True(t, Snapshot(nil).Equal(Snapshot{}))
}

func TestSnapshot_JSONEmbedding(t *testing.T) {
	payload := UpdatePayload{Snapshot: Snapshot(`{"elements":[]}`)}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Equal(t, `{"snapshot":{"elements":[]}}`, string(data))

	var decoded UpdatePayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, payload.Snapshot.Equal(decoded.Snapshot))
}

func TestSnapshot_NullRoundTrip(t *testing.T) {
	var s Snapshot
	require.NoError(t, json.Unmarshal([]byte("null"), &s))
	assert.True(t, s.IsEmpty())

	data, err := json.Marshal(struct {
		S Snapshot `json:"s"`
	}{})
	require.NoError(t, err)
	assert.Equal(t, `{"s":null}`, string(data))
}

func TestParseFingerprint(t *testing.T) {
	hexStr := strings.Repeat("ab", 32)
	f, err := ParseFingerprint(hexStr)
	require.NoError(t, err)
	assert.Equal(t, hexStr, f.String())
	assert.False(t, f.IsZero())

	_, err = ParseFingerprint("abcd")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseFingerprint("zz")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.True(t, Fingerprint{}.IsZero())
}
