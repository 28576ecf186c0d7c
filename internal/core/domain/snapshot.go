package domain

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Snapshot is the serialized visual state of one board: its element list,
// view state and auxiliary resources. The engine never looks inside it; it
// only compares whole snapshots for byte equality.
//
// Snapshots are always compact JSON so that two renderings of the same state
// compare equal regardless of the whitespace the editor produced.
type Snapshot []byte

// NewSnapshot serializes v into a Snapshot.
func NewSnapshot(v any) (Snapshot, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling snapshot: %w", err)
	}
	return ParseSnapshot(data)
}

// ParseSnapshot validates raw JSON and returns it as a compacted Snapshot.
func ParseSnapshot(data []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", ErrInvalidInput)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, fmt.Errorf("%w: snapshot is not valid JSON: %v", ErrInvalidInput, err)
	}
	return Snapshot(buf.Bytes()), nil
}

// Equal reports whether both snapshots serialize identically.
func (s Snapshot) Equal(other Snapshot) bool {
	return bytes.Equal(s, other)
}

// IsEmpty reports whether the snapshot carries no data.
func (s Snapshot) IsEmpty() bool {
	return len(s) == 0
}

// MarshalJSON embeds the snapshot as raw JSON rather than base64.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return s, nil
}

// UnmarshalJSON stores the raw JSON value.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("snapshot: UnmarshalJSON on nil pointer")
	}
	if string(data) == "null" {
		*s = nil
		return nil
	}
	*s = append((*s)[:0], data...)
	return nil
}

// Fingerprint is a fixed-size digest of a Snapshot. The applied-snapshot
// cache keeps fingerprints instead of whole boards.
type Fingerprint [32]byte

// String returns the hex encoding of the fingerprint.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// ParseFingerprint decodes a hex-encoded fingerprint.
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	raw, err := hex.DecodeString(s)
	if err != nil {
		return f, fmt.Errorf("%w: fingerprint: %v", ErrInvalidInput, err)
	}
	if len(raw) != len(f) {
		return f, fmt.Errorf("%w: fingerprint must be %d bytes, got %d", ErrInvalidInput, len(f), len(raw))
	}
	copy(f[:], raw)
	return f, nil
}
