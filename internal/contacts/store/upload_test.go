package store

import (
	"errors"
	"testing"
	"time"

	contactserrors "contactcleaner/internal/contacts/errors"
	"contactcleaner/pkg/logger"
	"contactcleaner/pkg/model"
)

func newStore(t *testing.T, ttl time.Duration) *InMemoryUploadStore {
	t.Helper()
	s := NewInMemoryUploadStore(Config{TTL: ttl}, logger.Discard())
	t.Cleanup(s.Stop)
	return s
}

func dataset(t *testing.T) *model.Dataset {
	t.Helper()
	ds, err := model.NewDataset([]string{"Email"}, [][]string{{"a@x.com"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ds
}

func TestCreateAndGet(t *testing.T) {
	s := newStore(t, time.Hour)

	u, err := s.Create("contacts.csv", dataset(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected generated ID")
	}

	got, err := s.Get(u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename != "contacts.csv" || got.HasCleaned() {
		t.Errorf("unexpected upload %+v", got)
	}
}

func TestCreate_RejectsEmptyDataset(t *testing.T) {
	s := newStore(t, time.Hour)
	empty, _ := model.NewDataset([]string{"Email"}, nil)

	if _, err := s.Create("empty.csv", empty); !model.IsDataError(err) {
		t.Errorf("expected DataError, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("nothing should be stored")
	}
}

func TestSetCleaned_KeepsPreviousSnapshot(t *testing.T) {
	s := newStore(t, time.Hour)
	u, _ := s.Create("contacts.csv", dataset(t))

	report := model.CleaningReport{RowsBefore: 1, RowsAfter: 1}
	cleaned, err := s.SetCleaned(u.ID, dataset(t), report)
	if err != nil {
		t.Fatalf("SetCleaned: %v", err)
	}
	if !cleaned.HasCleaned() || cleaned.Report.RowsAfter != 1 {
		t.Errorf("cleaned upload missing data: %+v", cleaned)
	}
	if u.HasCleaned() {
		t.Errorf("earlier snapshot was modified")
	}
	if cleaned.Original != u.Original {
		t.Errorf("original dataset should be carried over")
	}
}

func TestMissingUpload(t *testing.T) {
	s := newStore(t, time.Hour)

	if _, err := s.Get("nope"); !errors.Is(err, contactserrors.ErrNoUpload) {
		t.Errorf("Get: expected ErrNoUpload, got %v", err)
	}
	if _, err := s.SetCleaned("nope", dataset(t), model.CleaningReport{}); !errors.Is(err, contactserrors.ErrNoUpload) {
		t.Errorf("SetCleaned: expected ErrNoUpload, got %v", err)
	}
	if err := s.Delete("nope"); !errors.Is(err, contactserrors.ErrNoUpload) {
		t.Errorf("Delete: expected ErrNoUpload, got %v", err)
	}
}

func TestUploadsExpire(t *testing.T) {
	s := newStore(t, 30*time.Millisecond)

	u, _ := s.Create("contacts.csv", dataset(t))
	if _, err := s.Get(u.ID); err != nil {
		t.Fatalf("fresh upload should be readable: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := s.Get(u.ID)
		if errors.Is(err, contactserrors.ErrNoUpload) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected expired upload to be gone, got %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after expiry", s.Len())
	}
	if _, err := s.SetCleaned(u.ID, dataset(t), model.CleaningReport{}); !errors.Is(err, contactserrors.ErrNoUpload) {
		t.Errorf("SetCleaned on expired upload: expected ErrNoUpload, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newStore(t, time.Hour)
	u, _ := s.Create("contacts.csv", dataset(t))

	if err := s.Delete(u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(u.ID); !errors.Is(err, contactserrors.ErrNoUpload) {
		t.Errorf("deleted upload still readable: %v", err)
	}
	if _, err := s.SetCleaned(u.ID, dataset(t), model.CleaningReport{}); !errors.Is(err, contactserrors.ErrNoUpload) {
		t.Errorf("SetCleaned must not resurrect a deleted upload, got %v", err)
	}
}
