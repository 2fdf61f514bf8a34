package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcampelo/storefront/internal/common"
	"github.com/dcampelo/storefront/internal/logging"
	"github.com/dcampelo/storefront/internal/notify"
	"github.com/dcampelo/storefront/internal/server/models"
)

// -------- test fakes --------

type fakeStore struct {
	id    string
	err   error
	gotID string
	patch *models.ProductPatch
	calls int
}

func (f *fakeStore) Save(ctx context.Context, id string, patch *models.ProductPatch) (string, error) {
	f.calls++
	f.gotID = id
	f.patch = patch
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

type fakeReconciler struct {
	flags     []bool
	gotID     string
	gotImages []models.ImageRef
	calls     int
}

func (f *fakeReconciler) Reconcile(ctx context.Context, productID string, images []models.ImageRef, onProgress func(int)) []bool {
	f.calls++
	f.gotID = productID
	f.gotImages = images
	if f.flags != nil {
		return f.flags
	}
	flags := make([]bool, len(images))
	for i := range flags {
		flags[i] = true
	}
	return flags
}

type fakeCreds struct {
	token string
	err   error
}

func (f *fakeCreds) AccessToken(ctx context.Context) (string, error) {
	return f.token, f.err
}

type fakeFocus struct {
	fields []string
}

func (f *fakeFocus) FocusField(name string) { f.fields = append(f.fields, name) }

type recordedNotice struct {
	kind    notify.Kind
	title   string
	message string
}

type fakeNotifier struct {
	notices []recordedNotice
}

func (f *fakeNotifier) Notify(kind notify.Kind, title, message string) {
	f.notices = append(f.notices, recordedNotice{kind, title, message})
}

// -------- helpers --------

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestSubmitter(store *fakeStore, rec *fakeReconciler, n *fakeNotifier) *Submitter {
	s := NewSubmitter(store, rec, n, testLogger())
	s.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

var testCategories = []models.Category{
	{ID: "c1", Name: "Clothing"},
	{ID: "c2", Name: "Shoes"},
}

// -------- tests --------

func TestSubmit_CreatesProductAndRecomputesSearch(t *testing.T) {
	store := &fakeStore{id: "p-new"}
	rec := &fakeReconciler{}
	n := &fakeNotifier{}
	s := newTestSubmitter(store, rec, n)

	out, err := s.Submit(context.Background(), Request{
		Fields:      Fields{URIID: "tee-shirt", Name: "Tee", Status: "active", Category: "c1"},
		Categories:  testCategories,
		Credentials: &fakeCreds{token: "tok"},
	})

	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "p-new", out.ProductID)
	assert.False(t, out.Partial)
	assert.Empty(t, n.notices)

	assert.Equal(t, "", store.gotID, "creation must pass an empty id")
	require.NotNil(t, store.patch.Search)
	assert.Equal(t, "Tee, active, Clothing, 1 Mar 2024", *store.patch.Search)

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, "p-new", rec.gotID, "reconciler must receive the assigned id")
}

func TestSubmit_SearchReflectsChangedName(t *testing.T) {
	prev := previousProduct()
	store := &fakeStore{id: prev.ID}
	rec := &fakeReconciler{}
	s := newTestSubmitter(store, rec, &fakeNotifier{})

	f := sameFields(prev)
	f.Name = "Shirt"

	_, err := s.Submit(context.Background(), Request{
		Previous:    prev,
		Fields:      f,
		Categories:  testCategories,
		Credentials: &fakeCreds{token: "tok"},
	})

	require.NoError(t, err)
	require.NotNil(t, store.patch.Search)
	assert.Equal(t, "Shirt, active, Clothing, 1 Mar 2024", *store.patch.Search)
}

func TestSubmit_UnchangedSearchOmitted(t *testing.T) {
	prev := previousProduct()
	store := &fakeStore{id: prev.ID}
	s := newTestSubmitter(store, &fakeReconciler{}, &fakeNotifier{})

	_, err := s.Submit(context.Background(), Request{
		Previous:    prev,
		Fields:      sameFields(prev),
		Categories:  testCategories,
		Credentials: &fakeCreds{token: "tok"},
	})

	require.NoError(t, err)
	assert.Nil(t, store.patch.Search, "search equal to the previous value must be omitted")
}

func TestSubmit_SlugConflict_FocusesAndNotifies(t *testing.T) {
	store := &fakeStore{err: common.ErrSlugConflict}
	rec := &fakeReconciler{}
	n := &fakeNotifier{}
	focus := &fakeFocus{}
	s := newTestSubmitter(store, rec, n)

	out, err := s.Submit(context.Background(), Request{
		Fields:      Fields{URIID: "tee-shirt", Name: "Tee"},
		Credentials: &fakeCreds{token: "tok"},
		Focus:       focus,
	})

	require.ErrorIs(t, err, common.ErrSlugConflict)
	assert.Nil(t, out)
	assert.Equal(t, []string{"uri_id"}, focus.fields)
	require.Len(t, n.notices, 1)
	assert.Equal(t, notify.KindError, n.notices[0].kind)
	assert.Contains(t, n.notices[0].message, "tee-shirt")
	assert.Equal(t, 0, rec.calls, "no uploads after a persistence failure")
}

func TestSubmit_GenericPersistenceFailure_SurfacedVerbatim(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	rec := &fakeReconciler{}
	n := &fakeNotifier{}
	s := newTestSubmitter(store, rec, n)

	out, err := s.Submit(context.Background(), Request{
		Fields:      Fields{Name: "Tee"},
		Credentials: &fakeCreds{token: "tok"},
	})

	require.Error(t, err)
	assert.Nil(t, out)
	require.Len(t, n.notices, 1)
	assert.Contains(t, n.notices[0].message, "connection refused")
	assert.Equal(t, 0, rec.calls)
}

func TestSubmit_InvalidSession_SkipsUploads(t *testing.T) {
	store := &fakeStore{id: "p1"}
	rec := &fakeReconciler{}
	n := &fakeNotifier{}
	s := newTestSubmitter(store, rec, n)

	out, err := s.Submit(context.Background(), Request{
		Fields:      Fields{Name: "Tee"},
		Images:      []models.ImageRef{models.PendingFile{ID: "f1"}},
		Credentials: &fakeCreds{err: errors.New("token expired")},
	})

	require.ErrorIs(t, err, common.ErrSessionInvalid)
	require.NotNil(t, out, "the record is persisted before the session check")
	assert.Equal(t, "p1", out.ProductID)
	assert.Equal(t, 0, rec.calls, "uploads must be skipped entirely")
	require.Len(t, n.notices, 1)
	assert.Equal(t, notify.KindError, n.notices[0].kind)
}

func TestSubmit_MissingCredentialSource_SkipsUploads(t *testing.T) {
	store := &fakeStore{id: "p1"}
	rec := &fakeReconciler{}
	s := newTestSubmitter(store, rec, &fakeNotifier{})

	_, err := s.Submit(context.Background(), Request{Fields: Fields{Name: "Tee"}})

	require.ErrorIs(t, err, common.ErrSessionInvalid)
	assert.Equal(t, 0, rec.calls)
}

func TestSubmit_PartialUploadFailure_SoftNotice(t *testing.T) {
	prev := previousProduct()
	store := &fakeStore{id: prev.ID}
	rec := &fakeReconciler{flags: []bool{true, false, true}}
	n := &fakeNotifier{}
	s := newTestSubmitter(store, rec, n)

	images := []models.ImageRef{
		models.PendingFile{ID: "f1"},
		models.PendingFile{ID: "f2"},
		models.PendingFile{ID: "f3"},
	}

	out, err := s.Submit(context.Background(), Request{
		Previous:    prev,
		Fields:      sameFields(prev),
		Images:      images,
		Categories:  testCategories,
		Credentials: &fakeCreds{token: "tok"},
	})

	require.NoError(t, err, "a partial media failure still completes the submission")
	require.NotNil(t, out)
	assert.True(t, out.Partial)
	assert.Equal(t, []bool{true, false, true}, out.ImageOK)
	require.Len(t, n.notices, 1)
	assert.Equal(t, notify.KindWarning, n.notices[0].kind)
	assert.Contains(t, n.notices[0].message, "images")
}
