package preservation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/preservd/internal/preservation"
)

func TestBuildStoragePath(t *testing.T) {
	date := time.Date(2020, time.January, 15, 10, 0, 0, 0, time.UTC)

	path := preservation.BuildStoragePath("abc123", "interview.wav", preservation.StorageHot, date)
	assert.Equal(t, "artifacts/2020/01/abc123/interview.wav", path)

	// Pure: identical inputs, identical path.
	again := preservation.BuildStoragePath("abc123", "interview.wav", preservation.StorageHot, date)
	assert.Equal(t, path, again)

	// Different dates land in different partitions.
	later := preservation.BuildStoragePath("abc123", "interview.wav", preservation.StorageHot,
		time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "artifacts/2021/06/abc123/interview.wav", later)
}

func TestRegisterLocation(t *testing.T) {
	ctx := context.Background()
	_, store := newTestStore()
	registry := preservation.NewLocationRegistry(store)

	t.Run("unknown artifact", func(t *testing.T) {
		_, err := registry.RegisterLocation(ctx, "missing", preservation.RegisterLocationParams{
			StorageType: preservation.StorageHot,
		})
		require.Error(t, err)
		assert.Equal(t, preservation.KindNotFound, preservation.KindOf(err))
	})

	t.Run("records a copy with created_at stamped", func(t *testing.T) {
		id := seedArtifact(t, store)

		loc, err := registry.RegisterLocation(ctx, id, preservation.RegisterLocationParams{
			StorageType:    preservation.StorageHot,
			Path:           "artifacts/2020/01/x/file.wav",
			SizeBytes:      42,
			ChecksumMD5:    "m",
			ChecksumSHA256: "s",
			Bucket:         "preservd-artifacts",
			Endpoint:       "localhost:9000",
		})
		require.NoError(t, err)
		assert.False(t, loc.CreatedAt.IsZero())
		assert.Nil(t, loc.VerifiedAt)

		locations, err := registry.Locations(ctx, id)
		require.NoError(t, err)
		require.Len(t, locations, 1)
		assert.Equal(t, int64(42), locations[0].SizeBytes)
		assert.Equal(t, "preservd-artifacts", locations[0].Bucket)
	})
}

func TestLocations_ReadsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	_, store := newTestStore()
	registry := preservation.NewLocationRegistry(store)
	id := seedArtifact(t, store)

	_, err := registry.RegisterLocation(ctx, id, preservation.RegisterLocationParams{
		StorageType: preservation.StorageHot,
		Path:        "a",
	})
	require.NoError(t, err)

	first, err := registry.Locations(ctx, id)
	require.NoError(t, err)
	second, err := registry.Locations(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPrimaryLocation_FirstWins(t *testing.T) {
	ctx := context.Background()
	_, store := newTestStore()
	registry := preservation.NewLocationRegistry(store)
	id := seedArtifact(t, store)

	for _, path := range []string{"first", "second"} {
		_, err := registry.RegisterLocation(ctx, id, preservation.RegisterLocationParams{
			StorageType: preservation.StorageHot,
			Path:        path,
		})
		require.NoError(t, err)
	}

	primary, err := registry.PrimaryLocation(ctx, id, preservation.StorageHot)
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, "first", primary.Path)

	archive, err := registry.PrimaryLocation(ctx, id, preservation.StorageArchive)
	require.NoError(t, err)
	assert.Nil(t, archive)
}

func TestMarkVerified(t *testing.T) {
	ctx := context.Background()
	_, store := newTestStore()
	registry := preservation.NewLocationRegistry(store)
	id := seedArtifact(t, store)

	t.Run("no matching record is a no-op", func(t *testing.T) {
		ok, err := registry.MarkVerified(ctx, id, preservation.StorageArchive, time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stamps verified_at on the matching tier", func(t *testing.T) {
		_, err := registry.RegisterLocation(ctx, id, preservation.RegisterLocationParams{
			StorageType: preservation.StorageHot,
			Path:        "p",
		})
		require.NoError(t, err)

		at := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
		ok, err := registry.MarkVerified(ctx, id, preservation.StorageHot, at)
		require.NoError(t, err)
		assert.True(t, ok)

		primary, err := registry.PrimaryLocation(ctx, id, preservation.StorageHot)
		require.NoError(t, err)
		require.NotNil(t, primary.VerifiedAt)
		assert.Equal(t, at, *primary.VerifiedAt)
	})
}

func TestReplicateToArchive(t *testing.T) {
	ctx := context.Background()
	_, store := newTestStore()
	registry := preservation.NewLocationRegistry(store)
	id := seedArtifact(t, store)

	t.Run("requires a hot-tier copy", func(t *testing.T) {
		_, err := registry.ReplicateToArchive(ctx, id)
		require.Error(t, err)
		assert.Equal(t, preservation.KindNotFound, preservation.KindOf(err))
	})

	t.Run("acknowledges a queued replication", func(t *testing.T) {
		_, err := registry.RegisterLocation(ctx, id, preservation.RegisterLocationParams{
			StorageType: preservation.StorageHot,
			Path:        "p",
		})
		require.NoError(t, err)

		ticket, err := registry.ReplicateToArchive(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "pending", ticket.Status)
		assert.Equal(t, preservation.StorageHot, ticket.SourceType)
		assert.Equal(t, preservation.StorageArchive, ticket.DestinationType)
		assert.Equal(t, id, ticket.ArtifactID)
	})
}
