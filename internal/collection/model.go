package collection

import (
	"time"

	"github.com/your-org/preservd/internal/preservation"
)

// Status is the collection state machine. There is no transition out of
// sealed or failed; retrying requires a new collection.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusVerifying Status = "verifying"
	StatusSealed    Status = "sealed"
	StatusFailed    Status = "failed"
)

// ParseStatus rejects status strings outside the closed set.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusDraft, StatusVerifying, StatusSealed, StatusFailed:
		return st, nil
	default:
		return "", preservation.Errf(preservation.KindValidation, "unknown collection status %q", s)
	}
}

// Collection is a named, path-addressed batch of externally uploaded files
// destined for the archive tier. Once sealed it is logically immutable.
type Collection struct {
	ID    string `json:"collection_id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`

	Status Status `json:"status"`

	ArchivePath       string `json:"archive_path"`
	ArchiveEndpointID string `json:"archive_endpoint_id"`

	ExpectedArtifactCount int   `json:"expected_artifact_count,omitempty"`
	ActualArtifactCount   int   `json:"actual_artifact_count"`
	TotalSizeBytes        int64 `json:"total_size_bytes"`

	HasManifest        bool     `json:"has_manifest"`
	HasPackageZip      bool     `json:"has_package_zip"`
	VerificationErrors []string `json:"verification_errors"`

	CreatedAt  time.Time  `json:"created_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	SealedAt   *time.Time `json:"sealed_at,omitempty"`

	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Creator     string   `json:"creator,omitempty"`
}

// DraftRequest is the caller's request to open a new collection draft.
type DraftRequest struct {
	Title                 string   `json:"title"`
	Description           string   `json:"description,omitempty"`
	Slug                  string   `json:"slug,omitempty"`
	ExpectedArtifactCount int      `json:"expected_artifact_count,omitempty"`
	Tags                  []string `json:"tags,omitempty"`
	Creator               string   `json:"creator,omitempty"`
}

// Validate checks the mandatory draft fields.
func (r DraftRequest) Validate() error {
	if r.Title == "" {
		return preservation.Errf(preservation.KindValidation, "title is required")
	}
	if len(r.Title) > 200 {
		return preservation.Errf(preservation.KindValidation, "title exceeds 200 characters")
	}
	if len(r.Slug) > 100 {
		return preservation.Errf(preservation.KindValidation, "slug exceeds 100 characters")
	}
	return nil
}

// Draft is returned when a draft is created: the collection plus the upload
// targets and any non-fatal directory-creation warnings.
type Draft struct {
	Collection    Collection `json:"collection"`
	UploadPath    string     `json:"upload_path"`
	RawUploadPath string     `json:"raw_upload_path"`
	EndpointID    string     `json:"archive_endpoint_id"`
	Warnings      []string   `json:"warnings,omitempty"`
}
