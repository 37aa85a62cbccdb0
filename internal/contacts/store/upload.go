// Package store keeps uploaded and cleaned contact datasets in memory for the
// lifetime of a browser session.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	contactserrors "contactcleaner/internal/contacts/errors"
	"contactcleaner/pkg/logger"
	"contactcleaner/pkg/model"
)

// Upload is an immutable snapshot. Store methods return new values instead of
// modifying stored ones.
type Upload struct {
	ID         string
	Filename   string
	Original   *model.Dataset
	UploadedAt time.Time

	Cleaned   *model.Dataset
	Report    *model.CleaningReport
	CleanedAt time.Time
}

func (u *Upload) HasCleaned() bool {
	return u.Cleaned != nil
}

type UploadStore interface {
	Create(filename string, ds *model.Dataset) (*Upload, error)
	Get(id string) (*Upload, error)
	SetCleaned(id string, ds *model.Dataset, report model.CleaningReport) (*Upload, error)
	Delete(id string) error
	Len() int
	Stop()
}

// InMemoryUploadStore expires an upload TTL after it was last written. Reads do not extend it.
type InMemoryUploadStore struct {
	// mu serializes read-modify-write sequences; items guards itself.
	mu    sync.Mutex
	items *ttlcache.Cache[string, *Upload]
	now   func() time.Time
	log   *logger.Logger
}

type Config struct {
	TTL time.Duration
	Now func() time.Time
}

func NewInMemoryUploadStore(cfg Config, log *logger.Logger) *InMemoryUploadStore {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	items := ttlcache.New[string, *Upload](
		ttlcache.WithTTL[string, *Upload](cfg.TTL),
		ttlcache.WithDisableTouchOnHit[string, *Upload](),
	)
	items.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Upload]) {
		if reason != ttlcache.EvictionReasonExpired {
			return
		}
		u := item.Value()
		log.Info("Expired upload removed",
			"upload_id", item.Key(),
			"filename", u.Filename,
			"uploaded_at", u.UploadedAt,
		)
	})
	go items.Start()

	return &InMemoryUploadStore{items: items, now: cfg.Now, log: log}
}

func (s *InMemoryUploadStore) Create(filename string, ds *model.Dataset) (*Upload, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	u := &Upload{
		ID:         uuid.New().String(),
		Filename:   filename,
		Original:   ds,
		UploadedAt: s.now(),
	}
	s.items.Set(u.ID, u, ttlcache.DefaultTTL)
	return u, nil
}

func (s *InMemoryUploadStore) Get(id string) (*Upload, error) {
	item := s.items.Get(id)
	if item == nil {
		return nil, contactserrors.ErrNoUpload
	}
	return item.Value(), nil
}

// SetCleaned stores a new snapshot carrying the cleaned dataset and restarts the upload's TTL.
func (s *InMemoryUploadStore) SetCleaned(id string, ds *model.Dataset, report model.CleaningReport) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.items.Get(id)
	if item == nil {
		return nil, contactserrors.ErrNoUpload
	}

	next := *item.Value()
	next.Cleaned = ds
	next.Report = &report
	next.CleanedAt = s.now()
	s.items.Set(id, &next, ttlcache.DefaultTTL)
	return &next, nil
}

func (s *InMemoryUploadStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.items.GetAndDelete(id); !found {
		return contactserrors.ErrNoUpload
	}
	return nil
}

func (s *InMemoryUploadStore) Len() int {
	return s.items.Len()
}

func (s *InMemoryUploadStore) Stop() {
	s.items.Stop()
}
