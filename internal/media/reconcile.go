package media

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dcampelo/storefront/internal/logging"
	"github.com/dcampelo/storefront/internal/server/models"
)

const (
	// MaxImagesPerProduct bounds the number of pending files uploaded in
	// one reconciliation; files past the cap are recorded as failed.
	MaxImagesPerProduct = 12

	// MaxUploadBytes bounds the size of a single converted payload.
	MaxUploadBytes = 12 << 20
)

// UploadOptions parametrize a single object upload.
type UploadOptions struct {
	ContentType string

	// Overwrite allows replacing an existing object under the same key,
	// making re-uploads of the same file id idempotent.
	Overwrite bool

	// Progress receives byte counts as the payload is transferred.
	Progress func(n int64)
}

// BlobStore uploads a payload under a key and returns the stored path.
type BlobStore interface {
	Upload(ctx context.Context, key string, payload []byte, opts UploadOptions) (string, error)
}

// Reconciler converts and uploads the pending files of an image list,
// treating persisted references as already satisfied.
type Reconciler struct {
	store         BlobStore
	conv          Converter
	logger        logging.Logger
	uploadTimeout time.Duration
}

func NewReconciler(store BlobStore, conv Converter, logger logging.Logger, uploadTimeout time.Duration) *Reconciler {
	return &Reconciler{store: store, conv: conv, logger: logger, uploadTimeout: uploadTimeout}
}

// Reconcile uploads every pending file of images concurrently and returns
// one success flag per input entry, in input order. Persisted refs are
// trivially successful. A conversion or upload failure marks the single
// file as failed; it never aborts the sibling uploads, and Reconcile
// always waits for all of them to settle.
//
// onProgress, when non-nil, receives a coarse aggregate percentage. Values
// may arrive out of order and non-monotonically while files are still
// being converted; treat it as a hint.
func (r *Reconciler) Reconcile(ctx context.Context, productID string, images []models.ImageRef, onProgress func(percent int)) []bool {
	flags := make([]bool, len(images))

	var pending []int
	for i, img := range images {
		switch img.(type) {
		case models.PersistedRef:
			flags[i] = true
		case models.PendingFile:
			pending = append(pending, i)
		}
	}

	agg := &progressAggregator{fn: onProgress}

	var wg sync.WaitGroup
	for n, i := range pending {
		if n >= MaxImagesPerProduct {
			r.logger.Warn(ctx, "image cap exceeded, skipping upload",
				"product", productID, "file", images[i].ImageID(), "cap", MaxImagesPerProduct)
			continue
		}

		file := images[i].(models.PendingFile)
		wg.Add(1)
		go func(i int, file models.PendingFile) {
			defer wg.Done()
			flags[i] = r.uploadOne(ctx, productID, file, agg)
		}(i, file)
	}
	wg.Wait()

	return flags
}

func (r *Reconciler) uploadOne(ctx context.Context, productID string, file models.PendingFile, agg *progressAggregator) bool {
	payload, err := r.conv.Convert(file.Data, DefaultConvertOptions)
	if err != nil {
		r.logger.Warn(ctx, "image conversion failed", "product", productID, "file", file.ID, "error", err.Error())
		return false
	}
	if len(payload) > MaxUploadBytes {
		r.logger.Warn(ctx, "converted image too large", "product", productID, "file", file.ID, "bytes", len(payload))
		return false
	}

	agg.addTotal(int64(len(payload)))

	uploadCtx := ctx
	if r.uploadTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, r.uploadTimeout)
		defer cancel()
	}

	key := productID + "/" + file.ID + models.ImageExt
	_, err = r.store.Upload(uploadCtx, key, payload, UploadOptions{
		ContentType: ContentType,
		Overwrite:   true,
		Progress:    agg.addSent,
	})
	if err != nil {
		r.logger.Warn(ctx, "image upload failed", "product", productID, "file", file.ID, "error", err.Error())
		return false
	}
	return true
}

// progressAggregator folds the per-upload byte counts into one coarse
// percentage. Counters are atomic; the callback is serialized so consumers
// never see interleaved invocations.
type progressAggregator struct {
	total atomic.Int64
	sent  atomic.Int64

	mu sync.Mutex
	fn func(percent int)
}

func (a *progressAggregator) addTotal(n int64) {
	a.total.Add(n)
}

func (a *progressAggregator) addSent(n int64) {
	sent := a.sent.Add(n)
	total := a.total.Load()
	if a.fn == nil || total == 0 {
		return
	}
	pct := int(sent * 100 / total)
	if pct > 100 {
		pct = 100
	}
	a.mu.Lock()
	a.fn(pct)
	a.mu.Unlock()
}
