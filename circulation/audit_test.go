package circulation_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/circulation"
)

func Test_BuildAuditEntry_MarshalsTheDetails(t *testing.T) {
	// arrange
	entityID := uuid.New()
	actorID := uuid.New()
	occurredAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// act
	entry, err := circulation.BuildAuditEntry(
		"loan",
		entityID,
		"checkout",
		actorID,
		occurredAt,
		map[string]string{"status": "ACTIVE"},
	)

	// assert
	assert.NoError(t, err, "error in building the audit entry")
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, "loan", entry.Entity)
	assert.Equal(t, entityID, entry.EntityID)
	assert.Equal(t, actorID, entry.ActorID)
	assert.Equal(t, occurredAt, entry.OccurredAt)
	assert.JSONEq(t, `{"status": "ACTIVE"}`, string(entry.Details))
}

func Test_BuildAuditEntry_When_Entity_Is_Empty(t *testing.T) {
	// act
	_, err := circulation.BuildAuditEntry("", uuid.New(), "checkout", uuid.New(), time.Now(), nil)

	// assert
	assert.ErrorIs(t, err, circulation.ErrEmptyAuditEntity)
}

func Test_BuildAuditEntry_When_Action_Is_Empty(t *testing.T) {
	// act
	_, err := circulation.BuildAuditEntry("loan", uuid.New(), "", uuid.New(), time.Now(), nil)

	// assert
	assert.ErrorIs(t, err, circulation.ErrEmptyAuditAction)
}

func Test_AuditEntry_Validate_RejectsInvalidDetailsJSON(t *testing.T) {
	// arrange
	entry := circulation.AuditEntry{
		ID:         uuid.New(),
		Entity:     "loan",
		EntityID:   uuid.New(),
		Action:     "checkout",
		ActorID:    uuid.New(),
		OccurredAt: time.Now(),
		Details:    json.RawMessage(`{"broken":`),
	}

	// act
	err := entry.Validate()

	// assert
	assert.ErrorIs(t, err, circulation.ErrInvalidAuditDetailsJSON)
}
