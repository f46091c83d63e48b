package preservation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/preservd/pkg/storage/objectstore"
)

// Publisher sends intake notifications to the downstream enrichment
// pipeline. Satisfied by kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error
}

// Ingestor is the single entry point that turns an uploaded byte stream plus
// descriptive metadata into a durable, auditable artifact.
type Ingestor struct {
	store    *ArtifactStore
	registry *LocationRegistry
	events   *EventLog
	fixity   *FixityEngine
	objects  objectstore.Client
	producer Publisher
	logger   *zap.Logger

	bucket          string
	storageEndpoint string
	extractMetadata bool
}

// IngestorParams wires the orchestrator's collaborators.
type IngestorParams struct {
	Store    *ArtifactStore
	Registry *LocationRegistry
	Events   *EventLog
	Fixity   *FixityEngine
	Objects  objectstore.Client
	Producer Publisher
	Logger   *zap.Logger

	Bucket          string
	StorageEndpoint string

	// ExtractMetadata keeps freshly ingested artifacts in processing status
	// until the downstream extraction stage finishes.
	ExtractMetadata bool
}

// NewIngestor constructs an Ingestor.
func NewIngestor(p IngestorParams) *Ingestor {
	return &Ingestor{
		store:           p.Store,
		registry:        p.Registry,
		events:          p.Events,
		fixity:          p.Fixity,
		objects:         p.Objects,
		producer:        p.Producer,
		logger:          p.Logger,
		bucket:          p.Bucket,
		storageEndpoint: p.StorageEndpoint,
		extractMetadata: p.ExtractMetadata,
	}
}

// ArtifactIngested is published after a successful intake so enrichment
// workers can pick the artifact up.
type ArtifactIngested struct {
	ArtifactID     string         `json:"artifact_id"`
	Title          string         `json:"title"`
	StoragePath    string         `json:"storage_path"`
	ChecksumSHA256 string         `json:"checksum_sha256"`
	SizeBytes      int64          `json:"size_bytes"`
	Status         ArtifactStatus `json:"status"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// Ingest runs the full intake sequence: checksum, artifact record, hot-tier
// upload, location registration, audit event, terminal status. Every step's
// failure after the artifact record exists is handled exactly once here,
// leaving the artifact in failed status with a failure event before the
// wrapped error is returned. A failure before the record exists propagates
// directly with no partial state.
func (s *Ingestor) Ingest(ctx context.Context, upload io.Reader, filename string, meta IngestionMetadata, agent string) (*IngestionResult, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if agent == "" {
		agent = "api"
	}
	if filename == "" {
		filename = "artifact"
	}

	content, err := io.ReadAll(upload)
	if err != nil {
		return nil, Wrap(KindIO, err, "read upload")
	}

	checksums, err := s.fixity.ComputeChecksums(bytes.NewReader(content), DefaultAlgorithms)
	if err != nil {
		return nil, err
	}
	fixityInfo, err := s.fixity.BuildFixityInfo(checksums)
	if err != nil {
		return nil, err
	}

	artifactID, err := s.store.Insert(ctx, newIntakeArtifact(meta, fixityInfo))
	if err != nil {
		return nil, err
	}

	result, err := s.completeIntake(ctx, artifactID, content, filename, meta, checksums, agent)
	if err != nil {
		s.failIntake(ctx, artifactID, agent, err)
		return nil, Wrap(KindIngestion, err, "ingestion failed")
	}
	return result, nil
}

// completeIntake runs steps 3 onward; any error it returns is converted to
// the failure path by Ingest.
func (s *Ingestor) completeIntake(ctx context.Context, artifactID string, content []byte, filename string, meta IngestionMetadata, checksums map[Algorithm]string, agent string) (*IngestionResult, error) {
	storagePath := BuildStoragePath(artifactID, filename, StorageHot, time.Now().UTC())

	tags := map[string]string{
		"title":         meta.Title,
		"creator":       meta.Creator,
		"creation-date": meta.CreationDate,
	}
	if err := s.objects.Put(ctx, s.bucket, storagePath, bytes.NewReader(content), int64(len(content)), tags); err != nil {
		return nil, Wrap(KindPersistence, err, "upload to hot storage")
	}

	if _, err := s.registry.RegisterLocation(ctx, artifactID, RegisterLocationParams{
		StorageType:    StorageHot,
		Path:           storagePath,
		SizeBytes:      int64(len(content)),
		ChecksumMD5:    checksums[AlgMD5],
		ChecksumSHA256: checksums[AlgSHA256],
		Bucket:         s.bucket,
		Endpoint:       s.storageEndpoint,
	}); err != nil {
		return nil, err
	}

	if _, err := s.events.LogIngestion(ctx, artifactID, OutcomeSuccess, storagePath, agent); err != nil {
		return nil, err
	}

	finalStatus := StatusReady
	if s.extractMetadata {
		finalStatus = StatusProcessing
	}
	if err := s.store.SetStatus(ctx, artifactID, finalStatus); err != nil {
		return nil, err
	}

	s.publishIngested(ctx, ArtifactIngested{
		ArtifactID:     artifactID,
		Title:          meta.Title,
		StoragePath:    storagePath,
		ChecksumSHA256: checksums[AlgSHA256],
		SizeBytes:      int64(len(content)),
		Status:         finalStatus,
		OccurredAt:     time.Now().UTC(),
	})

	return &IngestionResult{
		ArtifactID:  artifactID,
		Status:      finalStatus,
		Message:     "Artifact ingested successfully to " + storagePath,
		StoragePath: storagePath,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// failIntake is the single failure path for an intake whose artifact record
// already exists: it appends the failure event and forces failed status. The
// audit writes themselves are best-effort; their errors are logged, never
// allowed to mask the root cause.
func (s *Ingestor) failIntake(ctx context.Context, artifactID, agent string, cause error) {
	if _, err := s.events.LogEvent(ctx, artifactID, LogEventParams{
		EventType: EventIngestion,
		Outcome:   OutcomeFailure,
		Agent:     agent,
		Detail:    "Ingestion failed: " + cause.Error(),
	}); err != nil {
		s.logger.Error("record ingestion failure event", zap.String("artifact_id", artifactID), zap.Error(err))
	}
	if err := s.store.SetStatus(ctx, artifactID, StatusFailed); err != nil {
		s.logger.Error("mark artifact failed", zap.String("artifact_id", artifactID), zap.Error(err))
	}
}

// publishIngested notifies the enrichment pipeline. The document store is
// the system of record, so a broker failure downgrades to a warning instead
// of failing an intake that is already durable.
func (s *Ingestor) publishIngested(ctx context.Context, ev ArtifactIngested) {
	if s.producer == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Warn("marshal ingestion notification", zap.Error(err))
		return
	}
	headers := map[string]string{
		"artifact_id": ev.ArtifactID,
		"event_type":  "artifact.ingested",
	}
	if err := s.producer.Publish(ctx, []byte(ev.ArtifactID), payload, headers); err != nil {
		s.logger.Warn("publish ingestion notification",
			zap.String("artifact_id", ev.ArtifactID), zap.Error(err))
	}
}

// ArtifactStatus returns the read-only status projection of an artifact.
func (s *Ingestor) ArtifactStatus(ctx context.Context, artifactID string) (*StatusProjection, error) {
	artifact, err := s.store.Get(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	return &StatusProjection{
		ArtifactID:         artifact.ID,
		Status:             artifact.Status,
		ProcessingMetadata: artifact.ProcessingMetadata,
		CreatedAt:          artifact.CreatedAt,
		UpdatedAt:          artifact.UpdatedAt,
	}, nil
}

// VerifyFixity re-downloads the hot-tier copy, recomputes its checksums, and
// compares them against the fixity record. The comparison is logged as a
// fixity_check event; on a clean match both the location and the fixity
// record get a fresh verified_at stamp. A later mismatch never overwrites the
// original fixity record.
func (s *Ingestor) VerifyFixity(ctx context.Context, artifactID, agent string) (bool, []string, error) {
	artifact, err := s.store.Get(ctx, artifactID)
	if err != nil {
		return false, nil, err
	}
	if artifact.Fixity == nil {
		return false, nil, Errf(KindValidation, "artifact %s has no fixity record", artifactID)
	}

	hot, err := s.registry.PrimaryLocation(ctx, artifactID, StorageHot)
	if err != nil {
		return false, nil, err
	}
	if hot == nil {
		return false, nil, Errf(KindNotFound, "no hot storage location found for artifact %s", artifactID)
	}

	var buf bytes.Buffer
	if err := s.objects.Get(ctx, hot.Bucket, hot.Path, &buf); err != nil {
		return false, nil, Wrap(KindIO, err, "download hot copy for fixity check")
	}

	actual, err := s.fixity.ComputeChecksums(&buf, artifact.Fixity.Algorithms)
	if err != nil {
		return false, nil, err
	}

	expected := map[Algorithm]string{
		AlgMD5:    artifact.Fixity.ChecksumMD5,
		AlgSHA256: artifact.Fixity.ChecksumSHA256,
	}
	match, mismatches := s.fixity.Verify(expected, actual)

	outcome := OutcomeFailure
	if match {
		outcome = OutcomeSuccess
	}
	if _, err := s.events.LogFixityCheck(ctx, artifactID, outcome, match, artifact.Fixity.Algorithms, agent); err != nil {
		return false, nil, err
	}

	if match {
		now := time.Now().UTC()
		if _, err := s.registry.MarkVerified(ctx, artifactID, StorageHot, now); err != nil {
			return false, nil, err
		}
		if err := s.store.SetFixityVerified(ctx, artifactID, artifact.Fixity, now); err != nil {
			return false, nil, err
		}
	}
	return match, mismatches, nil
}

// newIntakeArtifact builds the initial processing-status record.
func newIntakeArtifact(meta IngestionMetadata, fixityInfo *FixityInfo) *Artifact {
	now := time.Now().UTC()
	return &Artifact{
		Title:        meta.Title,
		Description:  meta.Description,
		RecordedDate: now.Format(time.RFC3339),
		ArchivalInfo: ArchivalInfo{
			CreationDate:    meta.CreationDate,
			Checksum:        fixityInfo.ChecksumSHA256,
			StorageLocation: "pending",
		},
		Status:  StatusProcessing,
		Version: 1,
		Fixity:  fixityInfo,
		ProcessingMetadata: map[string]string{
			"creator":         meta.Creator,
			"notes":           meta.Notes,
			"ingestion_start": now.Format(time.RFC3339),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
