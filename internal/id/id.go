package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// SitePrefix prefixes every local record id.
const SitePrefix = "site"

// Generate creates a prefixed record id, e.g. "site-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewSiteID returns a fresh local record id.
func NewSiteID() (string, error) {
	return Generate(SitePrefix)
}
