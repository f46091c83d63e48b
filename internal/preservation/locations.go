package preservation

import (
	"context"
	"fmt"
	"time"
)

// LocationRegistry tracks the durable copies of each artifact's bytes across
// the hot and archive tiers.
type LocationRegistry struct {
	store *ArtifactStore
}

// NewLocationRegistry constructs a LocationRegistry.
func NewLocationRegistry(store *ArtifactStore) *LocationRegistry {
	return &LocationRegistry{store: store}
}

// RegisterLocationParams describes one durable copy to record.
type RegisterLocationParams struct {
	StorageType    StorageType
	Path           string
	SizeBytes      int64
	ChecksumMD5    string
	ChecksumSHA256 string
	Bucket         string
	Endpoint       string
}

// RegisterLocation appends a storage-location record for the artifact.
// The artifact must already exist.
func (r *LocationRegistry) RegisterLocation(ctx context.Context, artifactID string, p RegisterLocationParams) (StorageLocation, error) {
	if _, err := r.store.Get(ctx, artifactID); err != nil {
		return StorageLocation{}, err
	}

	loc := StorageLocation{
		StorageType:    p.StorageType,
		Path:           p.Path,
		Bucket:         p.Bucket,
		Endpoint:       p.Endpoint,
		SizeBytes:      p.SizeBytes,
		ChecksumMD5:    p.ChecksumMD5,
		ChecksumSHA256: p.ChecksumSHA256,
		CreatedAt:      time.Now().UTC(),
	}

	if err := r.store.AppendLocation(ctx, artifactID, loc); err != nil {
		return StorageLocation{}, err
	}
	return loc, nil
}

// Locations returns every recorded copy for the artifact, in storage order.
func (r *LocationRegistry) Locations(ctx context.Context, artifactID string) ([]StorageLocation, error) {
	artifact, err := r.store.Get(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	return artifact.StorageLocations, nil
}

// PrimaryLocation returns the first recorded copy in the given tier, or nil
// if none exists. When duplicates exist (a caller error) the first wins.
func (r *LocationRegistry) PrimaryLocation(ctx context.Context, artifactID string, storageType StorageType) (*StorageLocation, error) {
	locations, err := r.Locations(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	for i := range locations {
		if locations[i].StorageType == storageType {
			return &locations[i], nil
		}
	}
	return nil, nil
}

// MarkVerified stamps verified_at on the first matching tier record. Returns
// false without error when no such record exists.
func (r *LocationRegistry) MarkVerified(ctx context.Context, artifactID string, storageType StorageType, at time.Time) (bool, error) {
	artifact, err := r.store.Get(ctx, artifactID)
	if err != nil {
		return false, err
	}

	updated := false
	for i := range artifact.StorageLocations {
		if artifact.StorageLocations[i].StorageType == storageType {
			t := at.UTC()
			artifact.StorageLocations[i].VerifiedAt = &t
			updated = true
			break
		}
	}
	if !updated {
		return false, nil
	}

	if err := r.store.ReplaceLocations(ctx, artifactID, artifact.StorageLocations); err != nil {
		return false, err
	}
	return true, nil
}

// ReplicateToArchive validates that a hot-tier copy exists and acknowledges a
// queued replication. The cross-tier copy itself is executed by a background
// collaborator outside this core.
func (r *LocationRegistry) ReplicateToArchive(ctx context.Context, artifactID string) (*ReplicationTicket, error) {
	hot, err := r.PrimaryLocation(ctx, artifactID, StorageHot)
	if err != nil {
		return nil, err
	}
	if hot == nil {
		return nil, Errf(KindNotFound, "no hot storage location found for artifact %s", artifactID)
	}

	return &ReplicationTicket{
		Status:          "pending",
		Message:         "Replication to archive storage queued",
		ArtifactID:      artifactID,
		SourceType:      StorageHot,
		DestinationType: StorageArchive,
	}, nil
}

// BuildStoragePath derives the deterministic year/month-partitioned path for
// an artifact's bytes. Pure function: identical inputs always produce the
// identical path, which keeps retried uploads idempotent.
func BuildStoragePath(artifactID, filename string, _ StorageType, date time.Time) string {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return fmt.Sprintf("artifacts/%s/%s/%s/%s",
		date.UTC().Format("2006"), date.UTC().Format("01"), artifactID, filename)
}
