package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jamscout/jamscout/internal/jam"
)

// Stage denotes the milestone an Event represents for one jam.
type Stage string

// Supported progress stages.
const (
	// StageDiscovered fires when a listing walk first yields a jam ID.
	StageDiscovered Stage = "DISCOVERED"
	// StageCrawled fires after a jam is fetched, classified, and stored.
	StageCrawled Stage = "CRAWLED"
	// StageSkipped fires when an already-stored jam is left alone.
	StageSkipped Stage = "SKIPPED"
	// StageFailed fires when fetching, parsing, or storing a jam failed.
	StageFailed Stage = "FAILED"
)

// Event captures one milestone for one jam within a crawl run.
type Event struct {
	// RunID identifies the crawl run using the 16-byte UUID form.
	RunID [16]byte
	// At is the UTC timestamp recorded by the emitter.
	At time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// JamID is the jam the milestone refers to.
	JamID string
	// JamName is the jam title; required on StageCrawled events.
	JamName string
	// Category is the classification decided for StageCrawled events.
	Category jam.Category
	// Err carries the failure text for StageFailed events.
	Err string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.At.IsZero() {
		return errors.New("timestamp is required")
	}
	if e.JamID == "" {
		return errors.New("jam id is required")
	}
	switch e.Stage {
	case StageDiscovered, StageSkipped:
	case StageCrawled:
		if e.JamName == "" {
			return errors.New("crawled event requires jam name")
		}
		if !e.Category.Valid() {
			return fmt.Errorf("crawled event has invalid category %d", int(e.Category))
		}
	case StageFailed:
		if e.Err == "" {
			return errors.New("failed event requires error text")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for logging.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
