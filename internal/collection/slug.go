package collection

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

const maxSlugLen = 50

// GenerateSlug derives a URL-safe slug from a title: lowercase, runs of
// non-alphanumeric characters collapsed to "-", trimmed, capped at 50 chars.
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = nonAlphanumeric.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return slug
}
