package collection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/preservd/internal/preservation"
	"github.com/your-org/preservd/pkg/storage/archivefs"
)

// manifestName is the optional-but-recommended manifest file at the
// collection root.
const manifestName = "manifest.json"

// Service drives collections from draft to sealed or failed.
type Service struct {
	store  *Store
	dirs   archivefs.Client
	logger *zap.Logger

	basePath   string
	endpointID string
}

// Params wires the collection service's collaborators.
type Params struct {
	Store      *Store
	Dirs       archivefs.Client
	Logger     *zap.Logger
	BasePath   string
	EndpointID string
}

// NewService constructs a collection Service.
func NewService(p Params) *Service {
	return &Service{
		store:      p.Store,
		dirs:       p.Dirs,
		logger:     p.Logger,
		basePath:   strings.TrimRight(p.BasePath, "/"),
		endpointID: p.EndpointID,
	}
}

// CreateDraft opens a new collection in draft status and best-effort creates
// its directory skeleton in the archive filesystem. Directory-creation
// failure is surfaced as a warning, never as a draft failure.
//
// Slug uniqueness is best-effort: the read-then-suffix check is not
// serialized against a concurrent draft deriving the same slug, so a rare
// race can still double-assign one. The store does not enforce a unique
// index in this core.
func (s *Service) CreateDraft(ctx context.Context, req DraftRequest) (*Draft, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = GenerateSlug(req.Title)
	}
	taken, err := s.store.SlugExists(ctx, slug)
	if err != nil {
		return nil, err
	}
	if taken {
		slug = fmt.Sprintf("%s-%s", slug, uuid.NewString()[:6])
	}

	archivePath := s.buildArchivePath(slug)

	c := &Collection{
		ID:                    newCollectionID(),
		Title:                 req.Title,
		Slug:                  slug,
		Status:                StatusDraft,
		ArchivePath:           archivePath,
		ArchiveEndpointID:     s.endpointID,
		ExpectedArtifactCount: req.ExpectedArtifactCount,
		VerificationErrors:    []string{},
		CreatedAt:             time.Now().UTC(),
		Description:           req.Description,
		Tags:                  req.Tags,
		Creator:               req.Creator,
	}

	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}

	// Skeleton: {path}, {path}raw/ (upload target), {path}processed/.
	var warnings []string
	for _, dir := range []string{archivePath, archivePath + "raw/", archivePath + "processed/"} {
		if err := s.dirs.Mkdir(ctx, dir, true); err != nil {
			warning := fmt.Sprintf("failed to create archive directory %s: %v", dir, err)
			warnings = append(warnings, warning)
			s.logger.Warn("archive directory creation failed (non-fatal)",
				zap.String("collection_id", c.ID), zap.String("path", dir), zap.Error(err))
		}
	}

	s.logger.Info("created collection draft",
		zap.String("collection_id", c.ID), zap.String("archive_path", archivePath))

	return &Draft{
		Collection:    *c,
		UploadPath:    archivePath,
		RawUploadPath: archivePath + "raw/",
		EndpointID:    s.endpointID,
		Warnings:      warnings,
	}, nil
}

// Finalize verifies an uploaded collection and seals it. The collection
// moves to verifying immediately, then to sealed or failed; it is never left
// in verifying. An empty raw/ folder is a hard error; a missing manifest is
// a recorded warning that does not block sealing.
func (s *Service) Finalize(ctx context.Context, collectionID string) (*Collection, error) {
	c, err := s.store.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	// Visible to concurrent readers before verification completes.
	if err := s.store.UpdateFields(ctx, collectionID, map[string]any{
		"status": string(StatusVerifying),
	}); err != nil {
		return nil, err
	}

	sealed, err := s.verify(ctx, collectionID, c)
	if err != nil {
		s.failVerification(ctx, collectionID, err)
		return nil, preservation.Wrap(preservation.KindCollection, err, "collection verification failed")
	}
	return sealed, nil
}

func (s *Service) verify(ctx context.Context, collectionID string, c *Collection) (*Collection, error) {
	rawPath := c.ArchivePath + "raw/"

	rawEntries, err := s.dirs.List(ctx, rawPath)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", rawPath, err)
	}
	rootEntries, err := s.dirs.List(ctx, c.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.ArchivePath, err)
	}

	hasManifest := false
	for _, e := range rootEntries {
		if e.Type == archivefs.EntryFile && e.Name == manifestName {
			hasManifest = true
			break
		}
	}

	var fileCount int
	var totalSize int64
	for _, e := range rawEntries {
		if e.Type == archivefs.EntryFile {
			fileCount++
			totalSize += e.Size
		}
	}

	var hardErrors, warnings []string
	if fileCount == 0 {
		hardErrors = append(hardErrors, "Error: raw/ folder is empty. Upload files to raw/ before finalizing.")
	}
	if !hasManifest {
		warnings = append(warnings, "Warning: manifest.json not found in root (recommended for preservation)")
	}

	status := StatusSealed
	if len(hardErrors) > 0 {
		status = StatusFailed
	}

	// Hard errors and warnings travel together so callers can tell "sealed
	// with warnings" apart from "sealed cleanly".
	allMessages := append(hardErrors, warnings...)
	messages := make([]any, len(allMessages))
	for i, m := range allMessages {
		messages[i] = m
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":                string(status),
		"has_manifest":          hasManifest,
		"has_package_zip":       false,
		"total_size_bytes":      totalSize,
		"actual_artifact_count": int64(fileCount),
		"verified_at":           now,
		"verification_errors":   messages,
	}
	if status == StatusSealed {
		updates["sealed_at"] = now
	}

	if err := s.store.UpdateFields(ctx, collectionID, updates); err != nil {
		return nil, err
	}

	updated, err := s.store.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("collection verification complete",
		zap.String("collection_id", collectionID),
		zap.String("status", string(updated.Status)),
		zap.Int("raw_files", fileCount),
		zap.Strings("messages", allMessages))

	return updated, nil
}

// failVerification forces failed status with a single synthetic error so a
// collection is never stuck in verifying. Persistence errors here are
// logged, never allowed to mask the verification failure.
func (s *Service) failVerification(ctx context.Context, collectionID string, cause error) {
	msg := fmt.Sprintf("Verification failed: %v", cause)
	if err := s.store.UpdateFields(ctx, collectionID, map[string]any{
		"status":              string(StatusFailed),
		"verification_errors": []any{msg},
	}); err != nil {
		s.logger.Error("mark collection failed",
			zap.String("collection_id", collectionID), zap.Error(err))
	}
}

// Get returns a collection by id.
func (s *Service) Get(ctx context.Context, collectionID string) (*Collection, error) {
	return s.store.Get(ctx, collectionID)
}

// List returns collections newest first with an optional status filter and
// the total count matching the filter.
func (s *Service) List(ctx context.Context, status Status, limit, skip int64) ([]Collection, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.List(ctx, status, limit, skip)
}

func (s *Service) buildArchivePath(slug string) string {
	month := time.Now().UTC().Format("2006-01")
	return fmt.Sprintf("%s/%s/%s/", s.basePath, month, slug)
}

func newCollectionID() string {
	return "coll_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
