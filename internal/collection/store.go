package collection

import (
	"context"
	"errors"
	"time"

	"github.com/your-org/preservd/internal/preservation"
	"github.com/your-org/preservd/pkg/docstore"
)

const collectionsCollection = "collections"

// Store persists collections in the document store.
type Store struct {
	db docstore.Store
}

// NewStore constructs a collection Store.
func NewStore(db docstore.Store) *Store {
	return &Store{db: db}
}

// Insert stores a new collection under its own id.
func (s *Store) Insert(ctx context.Context, c *Collection) error {
	if _, err := s.db.Insert(ctx, collectionsCollection, collectionToDoc(c)); err != nil {
		return preservation.Wrap(preservation.KindPersistence, err, "insert collection")
	}
	return nil
}

// Get loads a collection by id.
func (s *Store) Get(ctx context.Context, id string) (*Collection, error) {
	doc, err := s.db.GetByID(ctx, collectionsCollection, id)
	if errors.Is(err, docstore.ErrNoDocument) {
		return nil, preservation.Errf(preservation.KindNotFound, "collection not found: %s", id)
	}
	if err != nil {
		return nil, preservation.Wrap(preservation.KindPersistence, err, "get collection %s", id)
	}
	return collectionFromDoc(doc)
}

// SlugExists reports whether any collection already claims the slug.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := s.db.Count(ctx, collectionsCollection, map[string]any{"slug": slug})
	if err != nil {
		return false, preservation.Wrap(preservation.KindPersistence, err, "check slug uniqueness")
	}
	return n > 0, nil
}

// UpdateFields sets the given fields on the collection document.
func (s *Store) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	ok, err := s.db.UpdateFields(ctx, collectionsCollection, id, fields)
	if err != nil {
		return preservation.Wrap(preservation.KindPersistence, err, "update collection")
	}
	if !ok {
		return preservation.Errf(preservation.KindNotFound, "collection not found: %s", id)
	}
	return nil
}

// List returns collections newest first with an optional status filter,
// plus the total count matching the filter.
func (s *Store) List(ctx context.Context, status Status, limit, skip int64) ([]Collection, int64, error) {
	filter := map[string]any{}
	if status != "" {
		filter["status"] = string(status)
	}

	docs, err := s.db.Find(ctx, collectionsCollection, filter, skip, limit,
		&docstore.Sort{Field: "created_at", Desc: true})
	if err != nil {
		return nil, 0, preservation.Wrap(preservation.KindPersistence, err, "list collections")
	}

	collections := make([]Collection, 0, len(docs))
	for _, doc := range docs {
		c, err := collectionFromDoc(doc)
		if err != nil {
			return nil, 0, err
		}
		collections = append(collections, *c)
	}

	total, err := s.db.Count(ctx, collectionsCollection, filter)
	if err != nil {
		return nil, 0, preservation.Wrap(preservation.KindPersistence, err, "count collections")
	}
	return collections, total, nil
}

func collectionToDoc(c *Collection) map[string]any {
	tags := make([]any, len(c.Tags))
	for i, t := range c.Tags {
		tags[i] = t
	}
	verrs := make([]any, len(c.VerificationErrors))
	for i, e := range c.VerificationErrors {
		verrs[i] = e
	}

	doc := map[string]any{
		"_id":                     c.ID,
		"title":                   c.Title,
		"slug":                    c.Slug,
		"status":                  string(c.Status),
		"archive_path":            c.ArchivePath,
		"archive_endpoint_id":     c.ArchiveEndpointID,
		"expected_artifact_count": int64(c.ExpectedArtifactCount),
		"actual_artifact_count":   int64(c.ActualArtifactCount),
		"total_size_bytes":        c.TotalSizeBytes,
		"has_manifest":            c.HasManifest,
		"has_package_zip":         c.HasPackageZip,
		"verification_errors":     verrs,
		"created_at":              c.CreatedAt,
		"description":             c.Description,
		"tags":                    tags,
		"creator":                 c.Creator,
	}
	if c.VerifiedAt != nil {
		doc["verified_at"] = *c.VerifiedAt
	}
	if c.SealedAt != nil {
		doc["sealed_at"] = *c.SealedAt
	}
	return doc
}

func collectionFromDoc(doc map[string]any) (*Collection, error) {
	status, err := ParseStatus(asString(doc["status"]))
	if err != nil {
		return nil, err
	}

	c := &Collection{
		ID:                    asString(doc["_id"]),
		Title:                 asString(doc["title"]),
		Slug:                  asString(doc["slug"]),
		Status:                status,
		ArchivePath:           asString(doc["archive_path"]),
		ArchiveEndpointID:     asString(doc["archive_endpoint_id"]),
		ExpectedArtifactCount: int(asInt64(doc["expected_artifact_count"])),
		ActualArtifactCount:   int(asInt64(doc["actual_artifact_count"])),
		TotalSizeBytes:        asInt64(doc["total_size_bytes"]),
		HasManifest:           asBool(doc["has_manifest"]),
		HasPackageZip:         asBool(doc["has_package_zip"]),
		CreatedAt:             asTime(doc["created_at"]),
		Description:           asString(doc["description"]),
		Creator:               asString(doc["creator"]),
	}

	for _, raw := range asArray(doc["verification_errors"]) {
		c.VerificationErrors = append(c.VerificationErrors, asString(raw))
	}
	for _, raw := range asArray(doc["tags"]) {
		c.Tags = append(c.Tags, asString(raw))
	}
	if v, ok := doc["verified_at"]; ok {
		t := asTime(v)
		c.VerifiedAt = &t
	}
	if v, ok := doc["sealed_at"]; ok {
		t := asTime(v)
		c.SealedAt = &t
	}
	return c, nil
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

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}

func asArray(v any) []any {
	arr, _ := v.([]any)
	return arr
}
