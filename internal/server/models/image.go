package models

import (
	"strings"

	"github.com/google/uuid"
)

// ImageExt is the file extension of converted product images in storage.
const ImageExt = ".jpg"

// ImageRef is one entry of a product's in-memory image list during an edit
// session. It is a closed variant: either a PersistedRef (already stored)
// or a PendingFile (selected locally, awaiting conversion and upload).
type ImageRef interface {
	// ImageID returns the storage identifier the entry normalizes to.
	ImageID() string

	imageRef()
}

// PersistedRef is a resolvable storage path/URL of an already uploaded
// image, e.g. "https://cdn.example.com/products/{productID}/{imageID}.jpg".
type PersistedRef string

func (r PersistedRef) imageRef() {}

// ImageID extracts the identifier from the trailing path segment, stripping
// the known image extension. Malformed refs (no separator, no extension)
// pass through unchanged.
func (r PersistedRef) ImageID() string {
	s := string(r)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(s, ImageExt)
}

// PendingFile is a newly selected image with a client-generated identifier,
// holding the raw payload until the reconciler converts and uploads it.
type PendingFile struct {
	ID   string
	Name string
	Data []byte
}

func (f PendingFile) imageRef() {}

func (f PendingFile) ImageID() string { return f.ID }

// NewPendingFile wraps a raw payload with a fresh client-side identifier.
func NewPendingFile(name string, data []byte) PendingFile {
	return PendingFile{ID: uuid.NewString(), Name: name, Data: data}
}
