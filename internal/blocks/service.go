// Package blocks builds blocks from their definitions and locates them inside
// a content tree.
package blocks

import (
	"github.com/google/uuid"

	"pagebuilder/internal/markup"
)

// IDFunc generates block identifiers. It must not repeat: the locator relies on
// ids being unique within a section.
type IDFunc func() string

// Service groups the block helpers that need the markup and id capabilities.
type Service struct {
	strip markup.Stripper
	newID IDFunc
}

// NewService creates a Service. A nil stripper uses markup.HTML and a nil id
// function uses random uuids.
func NewService(strip markup.Stripper, newID IDFunc) *Service {
	if strip == nil {
		strip = markup.HTML{}
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{strip: strip, newID: newID}
}
