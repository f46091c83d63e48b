package preservation

import (
	"context"
	"errors"
	"time"

	"github.com/your-org/preservd/pkg/docstore"
)

const artifactsCollection = "artifacts"

// ArtifactStore persists artifacts in the document store. All enum values
// cross the boundary as their string representations and unknown values are
// rejected on the way back in.
type ArtifactStore struct {
	db docstore.Store
}

// NewArtifactStore constructs an ArtifactStore.
func NewArtifactStore(db docstore.Store) *ArtifactStore {
	return &ArtifactStore{db: db}
}

// Insert stores a new artifact and returns its assigned id.
func (s *ArtifactStore) Insert(ctx context.Context, a *Artifact) (string, error) {
	id, err := s.db.Insert(ctx, artifactsCollection, artifactToDoc(a))
	if err != nil {
		return "", Wrap(KindPersistence, err, "insert artifact")
	}
	return id, nil
}

// Get loads an artifact by id.
func (s *ArtifactStore) Get(ctx context.Context, id string) (*Artifact, error) {
	doc, err := s.db.GetByID(ctx, artifactsCollection, id)
	if errors.Is(err, docstore.ErrNoDocument) {
		return nil, Errf(KindNotFound, "artifact not found: %s", id)
	}
	if err != nil {
		return nil, Wrap(KindPersistence, err, "get artifact %s", id)
	}
	return artifactFromDoc(doc)
}

// SetStatus transitions the artifact's lifecycle status and refreshes
// updated_at.
func (s *ArtifactStore) SetStatus(ctx context.Context, id string, status ArtifactStatus) error {
	ok, err := s.db.UpdateFields(ctx, artifactsCollection, id, map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return Wrap(KindPersistence, err, "update artifact status")
	}
	if !ok {
		return Errf(KindNotFound, "artifact not found: %s", id)
	}
	return nil
}

// AppendLocation appends one storage-location record.
func (s *ArtifactStore) AppendLocation(ctx context.Context, id string, loc StorageLocation) error {
	ok, err := s.db.AppendToArray(ctx, artifactsCollection, id, "storage_locations", locationToDoc(loc))
	if err != nil {
		return Wrap(KindPersistence, err, "append storage location")
	}
	if !ok {
		return Errf(KindNotFound, "artifact not found: %s", id)
	}
	return s.touch(ctx, id)
}

// AppendEvent appends one preservation event. Prior events are never touched.
func (s *ArtifactStore) AppendEvent(ctx context.Context, id string, ev PreservationEvent) error {
	ok, err := s.db.AppendToArray(ctx, artifactsCollection, id, "preservation_events", eventToDoc(ev))
	if err != nil {
		return Wrap(KindPersistence, err, "append preservation event")
	}
	if !ok {
		return Errf(KindNotFound, "artifact not found: %s", id)
	}
	return s.touch(ctx, id)
}

// ReplaceLocations rewrites the storage-location list wholesale. Used for
// verification-timestamp updates, which the document contract cannot express
// as an in-place array-element update.
func (s *ArtifactStore) ReplaceLocations(ctx context.Context, id string, locs []StorageLocation) error {
	docs := make([]any, len(locs))
	for i, loc := range locs {
		docs[i] = locationToDoc(loc)
	}
	ok, err := s.db.UpdateFields(ctx, artifactsCollection, id, map[string]any{
		"storage_locations": docs,
		"updated_at":        time.Now().UTC(),
	})
	if err != nil {
		return Wrap(KindPersistence, err, "replace storage locations")
	}
	if !ok {
		return Errf(KindNotFound, "artifact not found: %s", id)
	}
	return nil
}

// SetFixityVerified stamps verified_at on the artifact's fixity record.
func (s *ArtifactStore) SetFixityVerified(ctx context.Context, id string, fixity *FixityInfo, at time.Time) error {
	updated := *fixity
	updated.VerifiedAt = &at
	ok, err := s.db.UpdateFields(ctx, artifactsCollection, id, map[string]any{
		"fixity":     fixityToDoc(&updated),
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return Wrap(KindPersistence, err, "update fixity verification")
	}
	if !ok {
		return Errf(KindNotFound, "artifact not found: %s", id)
	}
	return nil
}

func (s *ArtifactStore) touch(ctx context.Context, id string) error {
	if _, err := s.db.UpdateFields(ctx, artifactsCollection, id, map[string]any{
		"updated_at": time.Now().UTC(),
	}); err != nil {
		return Wrap(KindPersistence, err, "refresh updated_at")
	}
	return nil
}

// --- document conversion ---

func artifactToDoc(a *Artifact) map[string]any {
	doc := map[string]any{
		"title":               a.Title,
		"description":         a.Description,
		"recorded_date":       a.RecordedDate,
		"archival_info":       archivalInfoToDoc(a.ArchivalInfo),
		"status":              string(a.Status),
		"version":             int64(a.Version),
		"storage_locations":   []any{},
		"preservation_events": []any{},
		"created_at":          a.CreatedAt,
		"updated_at":          a.UpdatedAt,
	}
	if a.ID != "" {
		doc["_id"] = a.ID
	}
	if a.Fixity != nil {
		doc["fixity"] = fixityToDoc(a.Fixity)
	}
	if len(a.ProcessingMetadata) > 0 {
		meta := make(map[string]any, len(a.ProcessingMetadata))
		for k, v := range a.ProcessingMetadata {
			meta[k] = v
		}
		doc["processing_metadata"] = meta
	}
	for _, loc := range a.StorageLocations {
		doc["storage_locations"] = append(doc["storage_locations"].([]any), locationToDoc(loc))
	}
	for _, ev := range a.PreservationEvents {
		doc["preservation_events"] = append(doc["preservation_events"].([]any), eventToDoc(ev))
	}
	return doc
}

func artifactFromDoc(doc map[string]any) (*Artifact, error) {
	status, err := ParseArtifactStatus(asString(doc["status"]))
	if err != nil {
		return nil, err
	}

	a := &Artifact{
		ID:           asString(doc["_id"]),
		Title:        asString(doc["title"]),
		Description:  asString(doc["description"]),
		RecordedDate: asString(doc["recorded_date"]),
		Status:       status,
		Version:      int(asInt64(doc["version"])),
		CreatedAt:    asTime(doc["created_at"]),
		UpdatedAt:    asTime(doc["updated_at"]),
	}

	if m, ok := doc["archival_info"].(map[string]any); ok {
		a.ArchivalInfo = ArchivalInfo{
			CreationDate:    asString(m["creation_date"]),
			Checksum:        asString(m["checksum"]),
			StorageLocation: asString(m["storage_location"]),
		}
	}

	if m, ok := doc["fixity"].(map[string]any); ok {
		fixity, err := fixityFromDoc(m)
		if err != nil {
			return nil, err
		}
		a.Fixity = fixity
	}

	if m, ok := doc["processing_metadata"].(map[string]any); ok {
		a.ProcessingMetadata = make(map[string]string, len(m))
		for k, v := range m {
			a.ProcessingMetadata[k] = asString(v)
		}
	}

	for _, raw := range asArray(doc["storage_locations"]) {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, Errf(KindValidation, "malformed storage location record")
		}
		loc, err := locationFromDoc(m)
		if err != nil {
			return nil, err
		}
		a.StorageLocations = append(a.StorageLocations, loc)
	}

	for _, raw := range asArray(doc["preservation_events"]) {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, Errf(KindValidation, "malformed preservation event record")
		}
		ev, err := eventFromDoc(m)
		if err != nil {
			return nil, err
		}
		a.PreservationEvents = append(a.PreservationEvents, ev)
	}

	return a, nil
}

func archivalInfoToDoc(info ArchivalInfo) map[string]any {
	return map[string]any{
		"creation_date":    info.CreationDate,
		"checksum":         info.Checksum,
		"storage_location": info.StorageLocation,
	}
}

func fixityToDoc(f *FixityInfo) map[string]any {
	algs := make([]any, len(f.Algorithms))
	for i, alg := range f.Algorithms {
		algs[i] = string(alg)
	}
	doc := map[string]any{
		"checksum_md5":    f.ChecksumMD5,
		"checksum_sha256": f.ChecksumSHA256,
		"algorithms_used": algs,
		"calculated_at":   f.CalculatedAt,
	}
	if f.VerifiedAt != nil {
		doc["verified_at"] = *f.VerifiedAt
	}
	return doc
}

func fixityFromDoc(doc map[string]any) (*FixityInfo, error) {
	f := &FixityInfo{
		ChecksumMD5:    asString(doc["checksum_md5"]),
		ChecksumSHA256: asString(doc["checksum_sha256"]),
		CalculatedAt:   asTime(doc["calculated_at"]),
	}
	if f.ChecksumMD5 == "" || f.ChecksumSHA256 == "" {
		return nil, Errf(KindValidation, "fixity record missing mandatory checksum")
	}
	for _, raw := range asArray(doc["algorithms_used"]) {
		f.Algorithms = append(f.Algorithms, Algorithm(asString(raw)))
	}
	if v, ok := doc["verified_at"]; ok {
		t := asTime(v)
		f.VerifiedAt = &t
	}
	return f, nil
}

func locationToDoc(loc StorageLocation) map[string]any {
	doc := map[string]any{
		"storage_type":    string(loc.StorageType),
		"path":            loc.Path,
		"bucket":          loc.Bucket,
		"endpoint":        loc.Endpoint,
		"size_bytes":      loc.SizeBytes,
		"checksum_md5":    loc.ChecksumMD5,
		"checksum_sha256": loc.ChecksumSHA256,
		"created_at":      loc.CreatedAt,
	}
	if loc.VerifiedAt != nil {
		doc["verified_at"] = *loc.VerifiedAt
	}
	return doc
}

func locationFromDoc(doc map[string]any) (StorageLocation, error) {
	storageType, err := ParseStorageType(asString(doc["storage_type"]))
	if err != nil {
		return StorageLocation{}, err
	}
	loc := StorageLocation{
		StorageType:    storageType,
		Path:           asString(doc["path"]),
		Bucket:         asString(doc["bucket"]),
		Endpoint:       asString(doc["endpoint"]),
		SizeBytes:      asInt64(doc["size_bytes"]),
		ChecksumMD5:    asString(doc["checksum_md5"]),
		ChecksumSHA256: asString(doc["checksum_sha256"]),
		CreatedAt:      asTime(doc["created_at"]),
	}
	if v, ok := doc["verified_at"]; ok {
		t := asTime(v)
		loc.VerifiedAt = &t
	}
	return loc, nil
}

func eventToDoc(ev PreservationEvent) map[string]any {
	return map[string]any{
		"event_type":     string(ev.EventType),
		"timestamp":      ev.Timestamp,
		"agent":          ev.Agent,
		"outcome":        string(ev.Outcome),
		"detail":         ev.Detail,
		"related_object": ev.RelatedObject,
	}
}

func eventFromDoc(doc map[string]any) (PreservationEvent, error) {
	eventType, err := ParseEventType(asString(doc["event_type"]))
	if err != nil {
		return PreservationEvent{}, err
	}
	outcome, err := ParseEventOutcome(asString(doc["outcome"]))
	if err != nil {
		return PreservationEvent{}, err
	}
	return PreservationEvent{
		EventType:     eventType,
		Timestamp:     asTime(doc["timestamp"]),
		Agent:         asString(doc["agent"]),
		Outcome:       outcome,
		Detail:        asString(doc["detail"]),
		RelatedObject: asString(doc["related_object"]),
	}, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}

func asArray(v any) []any {
	arr, _ := v.([]any)
	return arr
}
