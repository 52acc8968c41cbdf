package circulation

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrEmptyAuditEntity is returned when an audit entry names no entity.
	ErrEmptyAuditEntity = errors.New("audit entity must not be empty")

	// ErrEmptyAuditAction is returned when an audit entry names no action.
	ErrEmptyAuditAction = errors.New("audit action must not be empty")

	// ErrInvalidAuditDetailsJSON is returned when audit details are not valid JSON.
	ErrInvalidAuditDetailsJSON = errors.New("audit details json is not valid")
)

// AuditEntry records one state-changing operation for the audit trail.
// Entries are written inside the same transaction as the operation they
// describe, so a retried attempt never double-logs.
type AuditEntry struct {
	ID         uuid.UUID
	Entity     string          // Entity kind (e.g. "book_copy", "loan")
	EntityID   uuid.UUID       // The affected entity
	Action     string          // What happened (e.g. "checkout", "return")
	ActorID    uuid.UUID       // The user who performed the operation
	OccurredAt time.Time       // When the operation was committed
	Details    json.RawMessage // Operation payload as JSON
}

// Validate ensures the entry has valid data for storage.
func (e AuditEntry) Validate() error {
	if e.Entity == "" {
		return ErrEmptyAuditEntity
	}

	if e.Action == "" {
		return ErrEmptyAuditAction
	}

	if !jsoniter.ConfigFastest.Valid(e.Details) {
		return ErrInvalidAuditDetailsJSON
	}

	return nil
}

// BuildAuditEntry creates a new AuditEntry with validation.
// Details may be any jsoniter-marshalable value.
func BuildAuditEntry(
	entity string,
	entityID uuid.UUID,
	action string,
	actorID uuid.UUID,
	occurredAt time.Time,
	details any,
) (AuditEntry, error) {

	detailsJSON, marshalErr := jsoniter.ConfigFastest.Marshal(details)
	if marshalErr != nil {
		return AuditEntry{}, errors.Join(ErrInvalidAuditDetailsJSON, marshalErr)
	}

	entry := AuditEntry{
		ID:         uuid.New(),
		Entity:     entity,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		OccurredAt: occurredAt,
		Details:    detailsJSON,
	}

	if err := entry.Validate(); err != nil {
		return AuditEntry{}, err
	}

	return entry, nil
}
