// Package checkpoint provides durable save/restore of pipeline state under a
// logical name, enabling run-from-step re-execution without recomputing
// earlier steps.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// SchemaVersion identifies the snapshot record layout. Snapshots written
// with a different version fail to load as corrupt.
const SchemaVersion = 1

// Snapshot is an explicit, versioned record of pipeline state at a point in
// time. The payload is opaque to the store: it is whatever the pipeline's
// state produced, checksummed so decoding failures surface as corruption
// instead of silently restoring garbage.
type Snapshot struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	StepCount     int       `json:"step_count"`
	Checksum      uint64    `json:"checksum"`
	Payload       []byte    `json:"payload"`
}

// New creates a snapshot with a generated ID and payload checksum.
func New(name string, stepCount int, payload []byte) Snapshot {
	return Snapshot{
		SchemaVersion: SchemaVersion,
		ID:            uuid.New().String(),
		Name:          name,
		CreatedAt:     time.Now().UTC(),
		StepCount:     stepCount,
		Checksum:      xxhash.Sum64(payload),
		Payload:       payload,
	}
}

// Validate checks schema version and payload integrity.
func (s Snapshot) Validate() error {
	if s.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema version %d, want %d", s.SchemaVersion, SchemaVersion)
	}
	if sum := xxhash.Sum64(s.Payload); sum != s.Checksum {
		return fmt.Errorf("payload checksum %#x, want %#x", sum, s.Checksum)
	}
	return nil
}

// Encode serializes the snapshot.
func (s Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Decode deserializes and validates a snapshot previously written under name.
// Any decoding or validation failure is reported as a corrupt checkpoint.
func Decode(name string, data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, NewCorruptError(name, err)
	}
	if err := s.Validate(); err != nil {
		return nil, NewCorruptError(name, err)
	}
	return &s, nil
}

// Info describes a stored checkpoint without its payload.
type Info struct {
	Name      string
	CreatedAt time.Time
	Size      int64
}

// ErrEmptyName is returned when a store operation is keyed by an empty name.
var ErrEmptyName = errors.New("checkpoint name cannot be empty")
