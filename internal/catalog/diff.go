// Package catalog implements the product submission workflow: computing a
// sparse patch from edited form fields, deriving the denormalized search
// string, and orchestrating persistence and image reconciliation.
package catalog

import "github.com/dcampelo/storefront/internal/server/models"

// Fields carries the submitted values of the product form. Values are the
// raw form strings; the diff against the previous snapshot decides what
// actually changed.
type Fields struct {
	URIID       string
	Name        string
	Description string
	Keywords    string
	Status      string
	Category    string
	Size        string
}

// BuildPatch compares the submitted fields and image list against the
// previous snapshot and returns a patch containing only the changed
// attributes. prev may be nil for a product being created; every non-empty
// submitted value then counts as a change.
//
// The image list gets an entry only when at least one item is a pending
// file, or when the list length differs from the previously persisted one.
// A reordering of an already fully persisted, same-length list produces no
// image entry. When an entry is produced, every item is normalized to its
// identifier.
func BuildPatch(prev *models.Product, f Fields, images []models.ImageRef) models.ProductPatch {
	snap := prev
	if snap == nil {
		snap = &models.Product{}
	}

	patch := models.ProductPatch{
		URIID:       changed(snap.URIID, f.URIID),
		Name:        changed(snap.Name, f.Name),
		Description: changed(snap.Description, f.Description),
		Keywords:    changed(snap.Keywords, f.Keywords),
		Status:      changed(string(snap.Status), f.Status),
		Category:    changed(snap.Category, f.Category),
		Size:        changed(snap.Size, f.Size),
	}

	if imagesChanged(snap.Images, images) {
		ids := make([]string, 0, len(images))
		for _, img := range images {
			ids = append(ids, img.ImageID())
		}
		patch.Images = ids
	}

	return patch
}

// changed returns the submitted value when it differs from the previous
// one, nil otherwise.
func changed(previous, submitted string) *string {
	if previous == submitted {
		return nil
	}
	return &submitted
}

func imagesChanged(previous []string, current []models.ImageRef) bool {
	if len(current) != len(previous) {
		return true
	}
	for _, img := range current {
		if _, pending := img.(models.PendingFile); pending {
			return true
		}
	}
	return false
}
