package preservation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/preservd/internal/preservation"
	"github.com/your-org/preservd/pkg/docstore"
)

type intakeFixture struct {
	db       *docstore.Memory
	store    *preservation.ArtifactStore
	registry *preservation.LocationRegistry
	events   *preservation.EventLog
	objects  *fakeObjectStore
	producer *fakePublisher
	ingestor *preservation.Ingestor
}

func newIntakeFixture(t *testing.T, extractMetadata bool) *intakeFixture {
	t.Helper()
	db, store := newTestStore()
	registry := preservation.NewLocationRegistry(store)
	events := preservation.NewEventLog(store)
	objects := newFakeObjectStore()
	producer := &fakePublisher{}

	ingestor := preservation.NewIngestor(preservation.IngestorParams{
		Store:           store,
		Registry:        registry,
		Events:          events,
		Fixity:          preservation.NewFixityEngine(),
		Objects:         objects,
		Producer:        producer,
		Logger:          zap.NewNop(),
		Bucket:          "preservd-artifacts",
		StorageEndpoint: "localhost:9000",
		ExtractMetadata: extractMetadata,
	})

	return &intakeFixture{
		db:       db,
		store:    store,
		registry: registry,
		events:   events,
		objects:  objects,
		producer: producer,
		ingestor: ingestor,
	}
}

var testMetadata = preservation.IngestionMetadata{
	Title:        "T",
	Creator:      "C",
	CreationDate: "2020-01-01",
}

func TestIngest_Success(t *testing.T) {
	ctx := context.Background()
	f := newIntakeFixture(t, false)

	result, err := f.ingestor.Ingest(ctx, strings.NewReader("ten bytes!"), "take.wav", testMetadata, "api")
	require.NoError(t, err)

	assert.Equal(t, preservation.StatusReady, result.Status)
	assert.NotEmpty(t, result.ArtifactID)

	now := time.Now().UTC()
	wantPath := fmt.Sprintf("artifacts/%s/%s/%s/take.wav", now.Format("2006"), now.Format("01"), result.ArtifactID)
	assert.Equal(t, wantPath, result.StoragePath)

	artifact, err := f.store.Get(ctx, result.ArtifactID)
	require.NoError(t, err)
	assert.Equal(t, preservation.StatusReady, artifact.Status)
	assert.Equal(t, 1, artifact.Version)

	require.NotNil(t, artifact.Fixity)
	assert.NotEmpty(t, artifact.Fixity.ChecksumMD5)
	assert.NotEmpty(t, artifact.Fixity.ChecksumSHA256)
	assert.Equal(t, artifact.Fixity.ChecksumSHA256, artifact.ArchivalInfo.Checksum)

	require.Len(t, artifact.StorageLocations, 1)
	loc := artifact.StorageLocations[0]
	assert.Equal(t, preservation.StorageHot, loc.StorageType)
	assert.Equal(t, int64(10), loc.SizeBytes)
	assert.Equal(t, wantPath, loc.Path)
	assert.Equal(t, "preservd-artifacts", loc.Bucket)

	require.Len(t, artifact.PreservationEvents, 1)
	ev := artifact.PreservationEvents[0]
	assert.Equal(t, preservation.EventIngestion, ev.EventType)
	assert.Equal(t, preservation.OutcomeSuccess, ev.Outcome)
	assert.Equal(t, "api", ev.Agent)

	// Bytes and descriptive tags landed in the hot tier.
	stored := f.objects.objects["preservd-artifacts/"+wantPath]
	assert.Equal(t, []byte("ten bytes!"), stored)
	tags := f.objects.tags["preservd-artifacts/"+wantPath]
	assert.Equal(t, "T", tags["title"])
	assert.Equal(t, "C", tags["creator"])
	assert.Equal(t, "2020-01-01", tags["creation-date"])

	// Enrichment pipeline was notified.
	require.Len(t, f.producer.messages, 1)
	assert.Contains(t, string(f.producer.messages[0]), result.ArtifactID)
}

func TestIngest_PendingEnrichmentStaysProcessing(t *testing.T) {
	f := newIntakeFixture(t, true)

	result, err := f.ingestor.Ingest(context.Background(), strings.NewReader("bytes"), "f.wav", testMetadata, "")
	require.NoError(t, err)
	assert.Equal(t, preservation.StatusProcessing, result.Status)
}

func TestIngest_ValidationFailureCreatesNoState(t *testing.T) {
	ctx := context.Background()
	f := newIntakeFixture(t, false)

	_, err := f.ingestor.Ingest(ctx, strings.NewReader("bytes"), "f.wav", preservation.IngestionMetadata{
		Creator:      "C",
		CreationDate: "2020-01-01",
	}, "")
	require.Error(t, err)
	assert.Equal(t, preservation.KindValidation, preservation.KindOf(err))

	count, err := f.db.Count(ctx, "artifacts", map[string]any{})
	require.NoError(t, err)
	assert.Zero(t, count, "no partial artifact record")
}

func TestIngest_UploadFailure(t *testing.T) {
	ctx := context.Background()
	f := newIntakeFixture(t, false)
	f.objects.putErr = errors.New("bucket unavailable")

	_, err := f.ingestor.Ingest(ctx, strings.NewReader("bytes"), "f.wav", testMetadata, "api")
	require.Error(t, err)
	assert.Equal(t, preservation.KindIngestion, preservation.KindOf(err))
	assert.Contains(t, err.Error(), "bucket unavailable")

	// Exactly one artifact exists and it is terminally failed with a
	// failure event and no storage location.
	docs, findErr := f.db.Find(ctx, "artifacts", map[string]any{}, 0, 0, nil)
	require.NoError(t, findErr)
	require.Len(t, docs, 1)

	artifact, getErr := f.store.Get(ctx, docs[0]["_id"].(string))
	require.NoError(t, getErr)
	assert.Equal(t, preservation.StatusFailed, artifact.Status)
	assert.Empty(t, artifact.StorageLocations)

	require.Len(t, artifact.PreservationEvents, 1)
	assert.Equal(t, preservation.EventIngestion, artifact.PreservationEvents[0].EventType)
	assert.Equal(t, preservation.OutcomeFailure, artifact.PreservationEvents[0].Outcome)
	assert.Contains(t, artifact.PreservationEvents[0].Detail, "bucket unavailable")
}

func TestIngest_PublisherFailureDoesNotFailIntake(t *testing.T) {
	f := newIntakeFixture(t, false)
	f.producer.err = errors.New("broker down")

	result, err := f.ingestor.Ingest(context.Background(), strings.NewReader("bytes"), "f.wav", testMetadata, "")
	require.NoError(t, err)
	assert.Equal(t, preservation.StatusReady, result.Status)
}

func TestArtifactStatus(t *testing.T) {
	ctx := context.Background()
	f := newIntakeFixture(t, false)

	t.Run("unknown artifact", func(t *testing.T) {
		_, err := f.ingestor.ArtifactStatus(ctx, "missing")
		require.Error(t, err)
		assert.Equal(t, preservation.KindNotFound, preservation.KindOf(err))
	})

	t.Run("projects status and processing metadata", func(t *testing.T) {
		result, err := f.ingestor.Ingest(ctx, strings.NewReader("bytes"),
			"f.wav", testMetadata, "")
		require.NoError(t, err)

		projection, err := f.ingestor.ArtifactStatus(ctx, result.ArtifactID)
		require.NoError(t, err)
		assert.Equal(t, preservation.StatusReady, projection.Status)
		assert.Equal(t, "C", projection.ProcessingMetadata["creator"])
		assert.False(t, projection.UpdatedAt.IsZero())
	})
}

func TestVerifyFixity(t *testing.T) {
	ctx := context.Background()

	t.Run("clean match stamps verified_at", func(t *testing.T) {
		f := newIntakeFixture(t, false)
		result, err := f.ingestor.Ingest(ctx, strings.NewReader("bytes"), "f.wav", testMetadata, "")
		require.NoError(t, err)

		match, mismatches, err := f.ingestor.VerifyFixity(ctx, result.ArtifactID, "")
		require.NoError(t, err)
		assert.True(t, match)
		assert.Empty(t, mismatches)

		artifact, err := f.store.Get(ctx, result.ArtifactID)
		require.NoError(t, err)
		require.NotNil(t, artifact.Fixity.VerifiedAt)
		require.NotNil(t, artifact.StorageLocations[0].VerifiedAt)

		checks, err := f.events.Events(ctx, result.ArtifactID, preservation.EventFixityCheck)
		require.NoError(t, err)
		require.Len(t, checks, 1)
		assert.Equal(t, preservation.OutcomeSuccess, checks[0].Outcome)
	})

	t.Run("corrupted copy is a recorded mismatch, original fixity untouched", func(t *testing.T) {
		f := newIntakeFixture(t, false)
		result, err := f.ingestor.Ingest(ctx, strings.NewReader("bytes"), "f.wav", testMetadata, "")
		require.NoError(t, err)

		artifact, err := f.store.Get(ctx, result.ArtifactID)
		require.NoError(t, err)
		originalSHA := artifact.Fixity.ChecksumSHA256

		key := "preservd-artifacts/" + artifact.StorageLocations[0].Path
		f.objects.objects[key] = []byte("tampered")

		match, mismatches, err := f.ingestor.VerifyFixity(ctx, result.ArtifactID, "")
		require.NoError(t, err)
		assert.False(t, match)
		assert.NotEmpty(t, mismatches)

		after, err := f.store.Get(ctx, result.ArtifactID)
		require.NoError(t, err)
		assert.Equal(t, originalSHA, after.Fixity.ChecksumSHA256)
		assert.Nil(t, after.Fixity.VerifiedAt)

		checks, err := f.events.Events(ctx, result.ArtifactID, preservation.EventFixityCheck)
		require.NoError(t, err)
		require.Len(t, checks, 1)
		assert.Equal(t, preservation.OutcomeFailure, checks[0].Outcome)
	})

	t.Run("artifact without fixity record", func(t *testing.T) {
		f := newIntakeFixture(t, false)
		id := seedArtifact(t, f.store)

		_, _, err := f.ingestor.VerifyFixity(ctx, id, "")
		require.Error(t, err)
		assert.Equal(t, preservation.KindValidation, preservation.KindOf(err))
	})
}
