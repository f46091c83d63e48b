package preservation

import (
	"time"
)

// ArtifactStatus is the intake lifecycle state of an artifact.
type ArtifactStatus string

const (
	StatusUploading  ArtifactStatus = "uploading"
	StatusProcessing ArtifactStatus = "processing"
	StatusReady      ArtifactStatus = "ready"
	StatusFailed     ArtifactStatus = "failed"
	StatusArchived   ArtifactStatus = "archived"
)

// ParseArtifactStatus rejects status strings outside the closed set.
func ParseArtifactStatus(s string) (ArtifactStatus, error) {
	switch st := ArtifactStatus(s); st {
	case StatusUploading, StatusProcessing, StatusReady, StatusFailed, StatusArchived:
		return st, nil
	default:
		return "", Errf(KindValidation, "unknown artifact status %q", s)
	}
}

// StorageType identifies the tier a copy of the artifact's bytes lives in.
type StorageType string

const (
	StorageHot     StorageType = "hot"
	StorageArchive StorageType = "archive"
)

// ParseStorageType rejects tier strings outside the closed set.
func ParseStorageType(s string) (StorageType, error) {
	switch st := StorageType(s); st {
	case StorageHot, StorageArchive:
		return st, nil
	default:
		return "", Errf(KindValidation, "unknown storage type %q", s)
	}
}

// EventType is the PREMIS-style category of a preservation event.
type EventType string

const (
	EventIngestion          EventType = "ingestion"
	EventValidation         EventType = "validation"
	EventMetadataExtraction EventType = "metadata_extraction"
	EventReplication        EventType = "replication"
	EventFixityCheck        EventType = "fixity_check"
	EventFormatMigration    EventType = "format_migration"
	EventDeletion           EventType = "deletion"
	EventTranscription      EventType = "transcription"
	EventEnhancement        EventType = "enhancement"
)

// ParseEventType rejects event-type strings outside the closed set.
func ParseEventType(s string) (EventType, error) {
	switch et := EventType(s); et {
	case EventIngestion, EventValidation, EventMetadataExtraction,
		EventReplication, EventFixityCheck, EventFormatMigration,
		EventDeletion, EventTranscription, EventEnhancement:
		return et, nil
	default:
		return "", Errf(KindValidation, "unknown event type %q", s)
	}
}

// EventOutcome records how a preservation event ended.
type EventOutcome string

const (
	OutcomeSuccess EventOutcome = "success"
	OutcomeFailure EventOutcome = "failure"
	OutcomeWarning EventOutcome = "warning"
)

// ParseEventOutcome rejects outcome strings outside the closed set.
func ParseEventOutcome(s string) (EventOutcome, error) {
	switch o := EventOutcome(s); o {
	case OutcomeSuccess, OutcomeFailure, OutcomeWarning:
		return o, nil
	default:
		return "", Errf(KindValidation, "unknown event outcome %q", s)
	}
}

// Algorithm names a supported checksum algorithm.
type Algorithm string

const (
	AlgMD5    Algorithm = "md5"
	AlgSHA256 Algorithm = "sha256"
	AlgSHA512 Algorithm = "sha512"
)

// FixityInfo is the content-integrity fingerprint computed once per ingested
// byte stream. MD5 and SHA-256 are mandatory; SHA-512 is optional.
type FixityInfo struct {
	ChecksumMD5    string      `json:"checksum_md5"`
	ChecksumSHA256 string      `json:"checksum_sha256"`
	Algorithms     []Algorithm `json:"algorithms_used"`
	CalculatedAt   time.Time   `json:"calculated_at"`
	VerifiedAt     *time.Time  `json:"verified_at,omitempty"`
}

// StorageLocation is one durable copy of the artifact's bytes, exclusively
// owned by its artifact.
type StorageLocation struct {
	StorageType    StorageType `json:"storage_type"`
	Path           string      `json:"path"`
	Bucket         string      `json:"bucket,omitempty"`
	Endpoint       string      `json:"endpoint,omitempty"`
	SizeBytes      int64       `json:"size_bytes"`
	ChecksumMD5    string      `json:"checksum_md5"`
	ChecksumSHA256 string      `json:"checksum_sha256"`
	CreatedAt      time.Time   `json:"created_at"`
	VerifiedAt     *time.Time  `json:"verified_at,omitempty"`
}

// PreservationEvent is one immutable audit record. Events are strictly
// append-only; none is ever edited or removed.
type PreservationEvent struct {
	EventType     EventType    `json:"event_type"`
	Timestamp     time.Time    `json:"timestamp"`
	Agent         string       `json:"agent"`
	Outcome       EventOutcome `json:"outcome"`
	Detail        string       `json:"detail,omitempty"`
	RelatedObject string       `json:"related_object,omitempty"`
}

// ArchivalInfo carries the caller-supplied provenance of the original work.
type ArchivalInfo struct {
	CreationDate    string `json:"creation_date"`
	Checksum        string `json:"checksum,omitempty"`
	StorageLocation string `json:"storage_location,omitempty"`
}

// Artifact is the unit of preservation.
type Artifact struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description,omitempty"`
	RecordedDate       string              `json:"recorded_date,omitempty"`
	ArchivalInfo       ArchivalInfo        `json:"archival_info"`
	Status             ArtifactStatus      `json:"status"`
	Version            int                 `json:"version"`
	Fixity             *FixityInfo         `json:"fixity,omitempty"`
	StorageLocations   []StorageLocation   `json:"storage_locations"`
	PreservationEvents []PreservationEvent `json:"preservation_events"`
	ProcessingMetadata map[string]string   `json:"processing_metadata,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// IngestionMetadata is the caller-supplied descriptive metadata for intake.
type IngestionMetadata struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Creator      string `json:"creator"`
	CreationDate string `json:"creation_date"`
	Notes        string `json:"notes,omitempty"`
}

// Validate checks the mandatory descriptive fields.
func (m IngestionMetadata) Validate() error {
	if m.Title == "" {
		return Errf(KindValidation, "title is required")
	}
	if m.Creator == "" {
		return Errf(KindValidation, "creator is required")
	}
	if m.CreationDate == "" {
		return Errf(KindValidation, "creation_date is required")
	}
	return nil
}

// IngestionResult is returned to the caller after a successful intake.
type IngestionResult struct {
	ArtifactID  string         `json:"artifact_id"`
	Status      ArtifactStatus `json:"status"`
	Message     string         `json:"message"`
	StoragePath string         `json:"storage_path"`
	CreatedAt   time.Time      `json:"created_at"`
}

// StatusProjection is the read-only status view of an artifact.
type StatusProjection struct {
	ArtifactID         string            `json:"artifact_id"`
	Status             ArtifactStatus    `json:"status"`
	ProcessingMetadata map[string]string `json:"processing_metadata,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// ReplicationTicket acknowledges a queued hot-to-archive copy.
type ReplicationTicket struct {
	Status          string      `json:"status"`
	Message         string      `json:"message"`
	ArtifactID      string      `json:"artifact_id"`
	SourceType      StorageType `json:"source_type"`
	DestinationType StorageType `json:"destination_type"`
}
