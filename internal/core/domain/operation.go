package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OperationKind identifies the variant of a pending operation.
type OperationKind string

// Operation kinds. Each carries a different payload shape.
const (
	// OpUpdate carries a full board snapshot for an existing board.
	OpUpdate OperationKind = "update"
	// OpCreate carries a name and an initial snapshot for a new board.
	OpCreate OperationKind = "create"
	// OpDelete carries no payload.
	OpDelete OperationKind = "delete"
	// OpRename carries the new board name.
	OpRename OperationKind = "rename"
)

// IsValid reports whether k is one of the known kinds.
func (k OperationKind) IsValid() bool {
	switch k {
	case OpUpdate, OpCreate, OpDelete, OpRename:
		return true
	}
	return false
}

// PlaceholderPrefix marks board IDs generated locally for boards the remote
// store has not accepted yet.
const PlaceholderPrefix = "local-"

// IsPlaceholderID reports whether id is a locally generated board ID that
// still awaits its remote create.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

// Operation is the unit of pending work in the operation log.
//
// The JSON form is the persisted record layout:
// {id, type, targetId, data, timestamp, retries}.
type Operation struct {
	// ID is process-unique and never reused.
	ID string `json:"id"`

	// Kind selects the payload shape carried in Data.
	Kind OperationKind `json:"type"`

	// TargetID is the board the operation applies to. For creates it is
	// the placeholder ID that doubles as the idempotency key.
	TargetID string `json:"targetId"`

	// Data is the kind-specific payload.
	Data json.RawMessage `json:"data,omitempty"`

	// EnqueuedAt is when the operation entered the log.
	EnqueuedAt time.Time `json:"timestamp"`

	// Attempts counts failed remote applications.
	Attempts int `json:"retries"`

	// NotBefore delays the next periodic attempt when backoff is enabled.
	NotBefore *time.Time `json:"notBefore,omitempty"`
}

// UpdatePayload is the payload of an OpUpdate operation.
type UpdatePayload struct {
	Snapshot Snapshot `json:"snapshot"`
}

// CreatePayload is the payload of an OpCreate operation.
type CreatePayload struct {
	Name     string   `json:"name"`
	Snapshot Snapshot `json:"snapshot,omitempty"`
}

// RenamePayload is the payload of an OpRename operation.
type RenamePayload struct {
	Name string `json:"name"`
}

// NewUpdateOperation builds an update carrying snapshot for targetID.
func NewUpdateOperation(id, targetID string, snapshot Snapshot, at time.Time) (Operation, error) {
	return newOperation(id, OpUpdate, targetID, UpdatePayload{Snapshot: snapshot}, at)
}

// NewCreateOperation builds a create for the placeholder board placeholderID.
func NewCreateOperation(id, placeholderID, name string, snapshot Snapshot, at time.Time) (Operation, error) {
	return newOperation(id, OpCreate, placeholderID, CreatePayload{Name: name, Snapshot: snapshot}, at)
}

// NewRenameOperation builds a rename of targetID to name.
func NewRenameOperation(id, targetID, name string, at time.Time) (Operation, error) {
	return newOperation(id, OpRename, targetID, RenamePayload{Name: name}, at)
}

// NewDeleteOperation builds a delete of targetID.
func NewDeleteOperation(id, targetID string, at time.Time) (Operation, error) {
	return newOperation(id, OpDelete, targetID, nil, at)
}

func newOperation(id string, kind OperationKind, targetID string, payload any, at time.Time) (Operation, error) {
	op := Operation{
		ID:         id,
		Kind:       kind,
		TargetID:   targetID,
		EnqueuedAt: at,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Operation{}, fmt.Errorf("marshalling %s payload: %w", kind, err)
		}
		op.Data = data
	}
	if err := op.Validate(); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// Validate checks the operation's envelope and payload.
func (o Operation) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: operation id is required", ErrInvalidInput)
	}
	if !o.Kind.IsValid() {
		return fmt.Errorf("%w: unknown operation kind %q", ErrInvalidInput, o.Kind)
	}
	if o.TargetID == "" {
		return fmt.Errorf("%w: %s operation %s has no target", ErrInvalidInput, o.Kind, o.ID)
	}

	switch o.Kind {
	case OpUpdate:
		p, err := o.UpdatePayload()
		if err != nil {
			return err
		}
		if p.Snapshot.IsEmpty() {
			return fmt.Errorf("%w: update %s has no snapshot", ErrInvalidInput, o.ID)
		}
	case OpCreate:
		p, err := o.CreatePayload()
		if err != nil {
			return err
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: create %s has no name", ErrInvalidInput, o.ID)
		}
	case OpRename:
		p, err := o.RenamePayload()
		if err != nil {
			return err
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: rename %s has no name", ErrInvalidInput, o.ID)
		}
	case OpDelete:
	}
	return nil
}

// UpdatePayload decodes the payload of an update operation.
func (o Operation) UpdatePayload() (UpdatePayload, error) {
	var p UpdatePayload
	err := o.decode(OpUpdate, &p)
	return p, err
}

// CreatePayload decodes the payload of a create operation.
func (o Operation) CreatePayload() (CreatePayload, error) {
	var p CreatePayload
	err := o.decode(OpCreate, &p)
	return p, err
}

// RenamePayload decodes the payload of a rename operation.
func (o Operation) RenamePayload() (RenamePayload, error) {
	var p RenamePayload
	err := o.decode(OpRename, &p)
	return p, err
}

func (o Operation) decode(want OperationKind, into any) error {
	if o.Kind != want {
		return fmt.Errorf("%w: operation %s is %s, not %s", ErrInvalidInput, o.ID, o.Kind, want)
	}
	if len(o.Data) == 0 {
		return fmt.Errorf("%w: %s operation %s has no payload", ErrInvalidInput, o.Kind, o.ID)
	}
	if err := json.Unmarshal(o.Data, into); err != nil {
		return fmt.Errorf("%w: decoding %s payload: %v", ErrInvalidInput, o.Kind, err)
	}
	return nil
}

// DedupKey returns the (target, kind) pair under which at most one
// operation may be pending.
func (o Operation) DedupKey() string {
	return o.TargetID + "\x00" + string(o.Kind)
}

// Ready reports whether the operation may be attempted at now. Operations
// without a backoff deadline are always ready.
func (o Operation) Ready(now time.Time) bool {
	return o.NotBefore == nil || !now.Before(*o.NotBefore)
}

// MarshalOperationLog serializes the full log in its persisted layout.
func MarshalOperationLog(ops []Operation) ([]byte, error) {
	if ops == nil {
		ops = []Operation{}
	}
	data, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("marshalling operation log: %w", err)
	}
	return data, nil
}

// UnmarshalOperationLog parses a persisted log. Empty input yields an empty log.
// Records that fail validation are skipped and reported in the returned error
// alongside the valid records.
func UnmarshalOperationLog(data []byte) ([]Operation, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var ops []Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("unmarshalling operation log: %w", err)
	}

	valid := ops[:0]
	var skipped []string
	for _, op := range ops {
		if err := op.Validate(); err != nil {
			skipped = append(skipped, err.Error())
			continue
		}
		valid = append(valid, op)
	}
	if len(skipped) > 0 {
		return valid, fmt.Errorf("%w: skipped %d invalid records: %s",
			ErrInvalidInput, len(skipped), strings.Join(skipped, "; "))
	}
	return valid, nil
}
