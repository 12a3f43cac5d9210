package postgresengine

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/MrKimHH/kledex-go/dispatch"
)

var (
	// ErrInvalidPayloadJSON is returned when payload JSON is malformed or invalid.
	ErrInvalidPayloadJSON = errors.New("payload json is not valid")

	// ErrInvalidMetadataJSON is returned when metadata JSON is malformed or invalid.
	ErrInvalidMetadataJSON = errors.New("metadata json is not valid")

	// ErrMappingStoredEventFailed is returned when a domain event cannot be mapped to a StoredEvent.
	ErrMappingStoredEventFailed = errors.New("mapping stored event from domain event failed")
)

// StoredEvents is an alias type for a slice of StoredEvent.
type StoredEvents = []StoredEvent

// StoredEvent is a DTO used by the engine to append domain events and read
// them back.
//
// It is built on scalars to be completely agnostic of the implementation of
// domain events in the client code. While its properties are exported, it
// should only be constructed with BuildStoredEvent or StoredEventFrom.
type StoredEvent struct {
	AggregateID   uuid.UUID
	AggregateType string
	Version       dispatch.AggregateVersionUint
	EventType     string
	OccurredAt    time.Time
	PayloadJSON   []byte
	MetadataJSON  []byte
}

// BuildStoredEvent is a factory method for StoredEvent.
//
// It populates the StoredEvent with the given scalar input.
// Returns an error if payloadJSON or metadataJSON are not valid JSON.
func BuildStoredEvent(
	aggregateID uuid.UUID,
	aggregateType string,
	version dispatch.AggregateVersionUint,
	eventType string,
	occurredAt time.Time,
	payloadJSON []byte,
	metadataJSON []byte,
) (StoredEvent, error) {

	if !json.Valid(payloadJSON) {
		return StoredEvent{}, ErrInvalidPayloadJSON
	}

	if !json.Valid(metadataJSON) {
		return StoredEvent{}, ErrInvalidMetadataJSON
	}

	return StoredEvent{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       version,
		EventType:     eventType,
		OccurredAt:    occurredAt,
		PayloadJSON:   payloadJSON,
		MetadataJSON:  metadataJSON,
	}, nil
}

// EventMetadata carries the message identity stored alongside every event's payload.
type EventMetadata struct {
	MessageID     string `json:"messageId"`
	CausationID   string `json:"causationId"`
	CorrelationID string `json:"correlationId"`
}

// occurredAtCarrier is the optional capability of a domain event to report
// when it occurred. Events without it are stored with the append time.
type occurredAtCarrier interface {
	HasOccurredAt() time.Time
}

// StoredEventFrom maps a stamped domain event to its StoredEvent form for the
// given aggregate version. The payload is the JSON serialization of the
// concrete event type; the metadata carries a fresh message id plus the
// causation and correlation ids the event was stamped with.
//
// An unstamped event fails with dispatch.ErrUnstampedEvent - persisting an
// event before it carries its originating command's identity would break the
// domain-event contract.
func StoredEventFrom(event dispatch.DomainEvent, version dispatch.AggregateVersionUint) (StoredEvent, error) {
	if !event.Stamped() {
		return StoredEvent{}, dispatch.ErrUnstampedEvent
	}

	payloadJSON, err := jsoniter.ConfigFastest.Marshal(event)
	if err != nil {
		return StoredEvent{}, errors.Join(ErrMappingStoredEventFailed, err)
	}

	metadata := EventMetadata{
		MessageID:     uuid.New().String(),
		CausationID:   event.CausationID().String(),
		CorrelationID: event.CorrelationID().String(),
	}

	metadataJSON, err := jsoniter.ConfigFastest.Marshal(metadata)
	if err != nil {
		return StoredEvent{}, errors.Join(ErrMappingStoredEventFailed, err)
	}

	occurredAt := time.Now().UTC()
	if carrier, ok := event.(occurredAtCarrier); ok {
		occurredAt = carrier.HasOccurredAt()
	}

	return BuildStoredEvent(
		event.AggregateRootID(),
		event.AggregateType(),
		version,
		event.EventType(),
		occurredAt,
		payloadJSON,
		metadataJSON,
	)
}

// EventMetadataFrom unmarshals the metadata stored with an event.
func EventMetadataFrom(storedEvent StoredEvent) (EventMetadata, error) {
	metadata := new(EventMetadata)

	if err := jsoniter.ConfigFastest.Unmarshal(storedEvent.MetadataJSON, metadata); err != nil {
		return EventMetadata{}, errors.Join(ErrMappingStoredEventFailed, err)
	}

	return *metadata, nil
}
