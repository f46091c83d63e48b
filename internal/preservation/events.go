package preservation

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EventLog is the append-only, PREMIS-style audit trail attached to each
// artifact. Events are never edited or removed.
type EventLog struct {
	store *ArtifactStore
}

// NewEventLog constructs an EventLog.
func NewEventLog(store *ArtifactStore) *EventLog {
	return &EventLog{store: store}
}

// LogEventParams describes one audit record to append.
type LogEventParams struct {
	EventType     EventType
	Outcome       EventOutcome
	Agent         string
	Detail        string
	RelatedObject string
}

// LogEvent constructs a timestamped record and appends it to the artifact's
// trail. Agent defaults to "system".
func (l *EventLog) LogEvent(ctx context.Context, artifactID string, p LogEventParams) (PreservationEvent, error) {
	if p.Agent == "" {
		p.Agent = "system"
	}

	ev := PreservationEvent{
		EventType:     p.EventType,
		Timestamp:     time.Now().UTC(),
		Agent:         p.Agent,
		Outcome:       p.Outcome,
		Detail:        p.Detail,
		RelatedObject: p.RelatedObject,
	}

	if err := l.store.AppendEvent(ctx, artifactID, ev); err != nil {
		return PreservationEvent{}, err
	}
	return ev, nil
}

// LogIngestion records an intake event referencing the storage path.
func (l *EventLog) LogIngestion(ctx context.Context, artifactID string, outcome EventOutcome, storagePath, agent string) (PreservationEvent, error) {
	return l.LogEvent(ctx, artifactID, LogEventParams{
		EventType:     EventIngestion,
		Outcome:       outcome,
		Agent:         agent,
		Detail:        fmt.Sprintf("Artifact ingested to storage path: %s", storagePath),
		RelatedObject: storagePath,
	})
}

// LogValidation records a validation event.
func (l *EventLog) LogValidation(ctx context.Context, artifactID string, outcome EventOutcome, validationType, detail string) (PreservationEvent, error) {
	full := fmt.Sprintf("Validation type: %s", validationType)
	if detail != "" {
		full += ". " + detail
	}
	return l.LogEvent(ctx, artifactID, LogEventParams{
		EventType: EventValidation,
		Outcome:   outcome,
		Detail:    full,
	})
}

// LogFixityCheck records a fixity verification event.
func (l *EventLog) LogFixityCheck(ctx context.Context, artifactID string, outcome EventOutcome, checksumsMatch bool, algorithms []Algorithm, agent string) (PreservationEvent, error) {
	names := make([]string, len(algorithms))
	for i, alg := range algorithms {
		names[i] = string(alg)
	}
	result := "checksum mismatch"
	if checksumsMatch {
		result = "checksums match"
	}
	return l.LogEvent(ctx, artifactID, LogEventParams{
		EventType: EventFixityCheck,
		Outcome:   outcome,
		Agent:     agent,
		Detail:    fmt.Sprintf("Fixity check using %s. Result: %s", strings.Join(names, ", "), result),
	})
}

// LogReplication records a cross-tier replication event.
func (l *EventLog) LogReplication(ctx context.Context, artifactID string, outcome EventOutcome, source, destination string) (PreservationEvent, error) {
	return l.LogEvent(ctx, artifactID, LogEventParams{
		EventType:     EventReplication,
		Outcome:       outcome,
		Detail:        fmt.Sprintf("Replicated from %s to %s", source, destination),
		RelatedObject: destination,
	})
}

// LogMetadataExtraction records an enrichment event.
func (l *EventLog) LogMetadataExtraction(ctx context.Context, artifactID string, outcome EventOutcome, extractionType, detail string) (PreservationEvent, error) {
	full := fmt.Sprintf("Metadata extraction type: %s", extractionType)
	if detail != "" {
		full += ". " + detail
	}
	return l.LogEvent(ctx, artifactID, LogEventParams{
		EventType: EventMetadataExtraction,
		Outcome:   outcome,
		Detail:    full,
	})
}

// Events returns the artifact's trail in storage order, optionally filtered
// by type. Pass an empty EventType for no filter.
func (l *EventLog) Events(ctx context.Context, artifactID string, typeFilter EventType) ([]PreservationEvent, error) {
	artifact, err := l.store.Get(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if typeFilter == "" {
		return artifact.PreservationEvents, nil
	}

	var filtered []PreservationEvent
	for _, ev := range artifact.PreservationEvents {
		if ev.EventType == typeFilter {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

// LatestEvent returns the event with the greatest timestamp among the given
// type, or nil when none exists. Equal timestamps resolve to the most
// recently appended event, so the tie-break is stable insertion order.
func (l *EventLog) LatestEvent(ctx context.Context, artifactID string, eventType EventType) (*PreservationEvent, error) {
	events, err := l.Events(ctx, artifactID, eventType)
	if err != nil {
		return nil, err
	}

	var latest *PreservationEvent
	for i := range events {
		if latest == nil || !events[i].Timestamp.Before(latest.Timestamp) {
			latest = &events[i]
		}
	}
	return latest, nil
}
