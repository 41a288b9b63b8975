package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goalpath/goalpath/internal/ctxkeys"
	"github.com/goalpath/goalpath/internal/model"
	"github.com/goalpath/goalpath/internal/repository"
	"github.com/goalpath/goalpath/internal/service"
)

type fakeGoalRepo struct {
	repository.GoalRepository
}

func (f *fakeGoalRepo) ByInstanceID(instanceID string) (*model.GoalWithInstance, error) {
	return nil, repository.ErrInstanceNotFound
}

type fakeStorage struct {
	saved   []string
	deleted []string
}

func (f *fakeStorage) Save(ctx context.Context, key string, body io.Reader, contentType string) error {
	f.saved = append(f.saved, key)
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) URL(key string) (string, error) {
	return "https://example.com/" + key, nil
}

func photoRequest(t *testing.T, instanceID string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "evidence.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("not really a jpeg")); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/goals/instances/"+instanceID+"/validate/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetPathValue("id", instanceID)
	req = req.WithContext(ctxkeys.WithUser(req.Context(), &model.User{ID: "user-1"}))
	return req
}

func TestPhotoDeletesUploadWhenValidationRefused(t *testing.T) {
	svc := service.NewValidationService(&fakeGoalRepo{}, nil, nil, nil)
	store := &fakeStorage{}
	h := NewValidationHandler(svc, store)

	rec := httptest.NewRecorder()
	h.Photo(rec, photoRequest(t, "missing-instance"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved = %v, want one upload", store.saved)
	}
	if len(store.deleted) != 1 || store.deleted[0] != store.saved[0] {
		t.Errorf("deleted = %v, want the uploaded key %q", store.deleted, store.saved[0])
	}
}

func TestPhotoRejectsUnsupportedFormat(t *testing.T) {
	svc := service.NewValidationService(&fakeGoalRepo{}, nil, nil, nil)
	store := &fakeStorage{}
	h := NewValidationHandler(svc, store)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("photo", "evidence.gif")
	part.Write([]byte("gif bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/goals/instances/inst-1/validate/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetPathValue("id", "inst-1")
	req = req.WithContext(ctxkeys.WithUser(req.Context(), &model.User{ID: "user-1"}))

	rec := httptest.NewRecorder()
	h.Photo(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(store.saved) != 0 {
		t.Errorf("nothing should be uploaded for a rejected format, got %v", store.saved)
	}
}
