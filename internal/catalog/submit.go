package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dcampelo/storefront/internal/common"
	"github.com/dcampelo/storefront/internal/logging"
	"github.com/dcampelo/storefront/internal/notify"
	"github.com/dcampelo/storefront/internal/server/models"
)

// slugField is the form field that receives focus on a slug conflict.
const slugField = "uri_id"

// ProductStore persists the sparse patch. An empty id means "create"; the
// returned id is the new or confirmed product identifier. Fields absent
// from the patch are left untouched. A slug collision is reported as
// common.ErrSlugConflict.
type ProductStore interface {
	Save(ctx context.Context, id string, patch *models.ProductPatch) (string, error)
}

// ImageReconciler converts and uploads pending files, leaving persisted
// refs alone, and returns one success flag per input image in order.
type ImageReconciler interface {
	Reconcile(ctx context.Context, productID string, images []models.ImageRef, onProgress func(percent int)) []bool
}

// CredentialSource supplies the bearer credential required for uploads.
// An error means the session is missing or expired.
type CredentialSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// FocusSink routes user attention to a form field, e.g. the slug input
// after a uniqueness conflict.
type FocusSink interface {
	FocusField(name string)
}

// Request is one product form submission.
type Request struct {
	// Previous is the persisted snapshot being edited, nil on creation.
	Previous *models.Product

	Fields Fields

	// Images is the ordered session image list, mixing persisted refs and
	// pending files.
	Images []models.ImageRef

	// Categories is the externally supplied category list used to resolve
	// the category name for the search composite.
	Categories []models.Category

	// Credentials is checked once before any upload is attempted.
	Credentials CredentialSource

	// Focus receives the slug field on a slug conflict. Optional.
	Focus FocusSink

	// OnProgress receives coarse aggregate upload percentages. Optional.
	OnProgress func(percent int)
}

// Outcome describes a submission that persisted the product record.
type Outcome struct {
	ProductID string

	// ImageOK holds one flag per input image, in input order. Persisted
	// refs are trivially true.
	ImageOK []bool

	// Partial is set when the record saved but at least one image did not.
	Partial bool
}

// state tracks the submission through its lifecycle. failed is absorbing.
type state int

const (
	stateIdle state = iota
	stateDiffing
	statePersisting
	stateUploading
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateDiffing:
		return "diffing"
	case statePersisting:
		return "persisting"
	case stateUploading:
		return "uploading"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submitter sequences diffing, persistence and image reconciliation for a
// single in-flight submission. Callers must not overlap submissions for the
// same product; the triggering UI disables resubmission while one is
// pending.
type Submitter struct {
	store    ProductStore
	media    ImageReconciler
	notifier notify.Notifier
	logger   logging.Logger

	now func() time.Time
}

func NewSubmitter(store ProductStore, media ImageReconciler, notifier notify.Notifier, logger logging.Logger) *Submitter {
	return &Submitter{
		store:    store,
		media:    media,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit runs the workflow end to end.
//
// On a persistence failure the product is not created/updated, the failure
// is reported through the notifier and a nil outcome is returned; a slug
// conflict additionally routes focus to the slug field. After a successful
// persistence the outcome is always non-nil: an invalid session skips the
// uploads and returns the outcome together with common.ErrSessionInvalid,
// and per-image upload failures only mark the outcome partial.
func (s *Submitter) Submit(ctx context.Context, req Request) (*Outcome, error) {
	st := stateIdle
	advance := func(next state) {
		st = next
		s.logger.Debug(ctx, "submission state", "state", st.String())
	}

	advance(stateDiffing)
	patch := BuildPatch(req.Previous, req.Fields, req.Images)
	s.applySearch(&patch, req)

	advance(statePersisting)
	var prevID string
	if req.Previous != nil {
		prevID = req.Previous.ID
	}

	id, err := s.store.Save(ctx, prevID, &patch)
	if err != nil {
		advance(stateFailed)
		if errors.Is(err, common.ErrSlugConflict) {
			if req.Focus != nil {
				req.Focus.FocusField(slugField)
			}
			s.notifier.Notify(notify.KindError, "Ops!",
				fmt.Sprintf("The slug %q is already in use by another product.", req.Fields.URIID))
			return nil, err
		}
		s.notifier.Notify(notify.KindError, "Ops!", err.Error())
		return nil, err
	}

	outcome := &Outcome{ProductID: id}

	if err := s.checkSession(ctx, req.Credentials); err != nil {
		advance(stateFailed)
		s.notifier.Notify(notify.KindError, "Ops!", "An error occurred while saving your product.")
		return outcome, err
	}

	advance(stateUploading)
	outcome.ImageOK = s.media.Reconcile(ctx, id, req.Images, req.OnProgress)

	advance(stateDone)
	for _, ok := range outcome.ImageOK {
		if !ok {
			outcome.Partial = true
			break
		}
	}
	if outcome.Partial {
		s.notifier.Notify(notify.KindWarning, "Ops!", "Some of your product images failed to save.")
	}

	return outcome, nil
}

func (s *Submitter) checkSession(ctx context.Context, creds CredentialSource) error {
	if creds == nil {
		return common.ErrSessionInvalid
	}
	if _, err := creds.AccessToken(ctx); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSessionInvalid, err)
	}
	return nil
}

// applySearch recomputes the search composite from the effective (patched
// or previous) attribute values and records it under the same omit-if-equal
// rule as any other field.
func (s *Submitter) applySearch(patch *models.ProductPatch, req Request) {
	snap := req.Previous
	if snap == nil {
		snap = &models.Product{}
	}

	name := valueOr(patch.Name, snap.Name)
	status := models.ProductStatus(valueOr(patch.Status, string(snap.Status)))
	categoryID := valueOr(patch.Category, snap.Category)

	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	search := BuildSearch(name, status, CategoryName(req.Categories, categoryID), createdAt)
	patch.Search = changed(snap.Search, search)
}

func valueOr(patched *string, previous string) string {
	if patched != nil {
		return *patched
	}
	return previous
}
