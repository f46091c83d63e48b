package preservation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/preservd/internal/preservation"
)

func TestArtifactStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	_, store := newTestStore()

	now := time.Date(2024, time.February, 10, 8, 30, 0, 0, time.UTC)
	verified := now.Add(time.Hour)
	id, err := store.Insert(ctx, &preservation.Artifact{
		Title:        "Civil Rights March 1965",
		Description:  "Newsreel footage",
		RecordedDate: now.Format(time.RFC3339),
		ArchivalInfo: preservation.ArchivalInfo{
			CreationDate:    "1965-03-15",
			Checksum:        "deadbeef",
			StorageLocation: "pending",
		},
		Status:  preservation.StatusProcessing,
		Version: 1,
		Fixity: &preservation.FixityInfo{
			ChecksumMD5:    "m",
			ChecksumSHA256: "s",
			Algorithms:     []preservation.Algorithm{preservation.AlgMD5, preservation.AlgSHA256},
			CalculatedAt:   now,
			VerifiedAt:     &verified,
		},
		StorageLocations: []preservation.StorageLocation{{
			StorageType:    preservation.StorageHot,
			Path:           "artifacts/1965/03/x/reel.mp4",
			Bucket:         "b",
			SizeBytes:      1024,
			ChecksumMD5:    "m",
			ChecksumSHA256: "s",
			CreatedAt:      now,
		}},
		PreservationEvents: []preservation.PreservationEvent{{
			EventType: preservation.EventIngestion,
			Timestamp: now,
			Agent:     "api",
			Outcome:   preservation.OutcomeSuccess,
			Detail:    "ok",
		}},
		ProcessingMetadata: map[string]string{"creator": "Archive Collective"},
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Civil Rights March 1965", got.Title)
	assert.Equal(t, preservation.StatusProcessing, got.Status)
	assert.Equal(t, 1, got.Version)
	require.NotNil(t, got.Fixity)
	assert.Equal(t, "m", got.Fixity.ChecksumMD5)
	require.NotNil(t, got.Fixity.VerifiedAt)
	assert.Equal(t, verified, *got.Fixity.VerifiedAt)
	require.Len(t, got.StorageLocations, 1)
	assert.Equal(t, int64(1024), got.StorageLocations[0].SizeBytes)
	require.Len(t, got.PreservationEvents, 1)
	assert.Equal(t, preservation.EventIngestion, got.PreservationEvents[0].EventType)
	assert.Equal(t, "Archive Collective", got.ProcessingMetadata["creator"])
	assert.Equal(t, "deadbeef", got.ArchivalInfo.Checksum)
}

func TestArtifactStore_RejectsUnknownEnumValues(t *testing.T) {
	ctx := context.Background()
	db, store := newTestStore()

	id, err := db.Insert(ctx, "artifacts", map[string]any{
		"title":      "bad",
		"status":     "halfway-done",
		"version":    int64(1),
		"created_at": time.Now().UTC(),
		"updated_at": time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = store.Get(ctx, id)
	require.Error(t, err)
	assert.Equal(t, preservation.KindValidation, preservation.KindOf(err))
	assert.Contains(t, err.Error(), "halfway-done")
}

func TestArtifactStore_SetStatusRefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	_, store := newTestStore()
	id := seedArtifact(t, store)

	before, err := store.Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, store.SetStatus(ctx, id, preservation.StatusReady))

	after, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, preservation.StatusReady, after.Status)
	assert.True(t, !after.UpdatedAt.Before(before.UpdatedAt))
	assert.Equal(t, before.CreatedAt, after.CreatedAt, "created_at is immutable")
}

func TestArtifactStore_SetStatusUnknownArtifact(t *testing.T) {
	_, store := newTestStore()
	err := store.SetStatus(context.Background(), "missing", preservation.StatusReady)
	require.Error(t, err)
	assert.Equal(t, preservation.KindNotFound, preservation.KindOf(err))
}
