// Package service orchestrates uploading, cleaning and exporting contact files.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"contactcleaner/internal/contacts/codec"
	contactserrors "contactcleaner/internal/contacts/errors"
	"contactcleaner/internal/contacts/events"
	"contactcleaner/internal/contacts/pipeline"
	"contactcleaner/internal/contacts/store"
	"contactcleaner/internal/contacts/validator"
	apperrors "contactcleaner/pkg/errors"
	"contactcleaner/pkg/logger"
	"contactcleaner/pkg/metrics"
	"contactcleaner/pkg/model"
)

const (
	ExportBaseName = "cleaned_contacts"

	// DefaultPublishTimeout bounds each cleaned-event publish, independent of the request deadline.
	DefaultPublishTimeout = 2 * time.Second
)

type ContactService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*UploadSummary, error)
	Session(ctx context.Context, uploadID string, previewRows int) (*UploadSummary, error)
	Clean(ctx context.Context, uploadID string, req *validator.CleanRequest) (*CleanResult, error)
	Download(ctx context.Context, uploadID string, format string) (*Export, error)
	Reset(ctx context.Context, uploadID string) error
	Stages() []StageInfo
	// Close waits for in-flight event publishes and closes the publisher.
	Close() error
}

// Observer records service outcomes. *metrics.Metrics implements it.
type Observer interface {
	ObserveUpload(result string)
	ObserveCleanRun(stages []string, rowsRemoved int, duration time.Duration)
	ObserveCleanFailure()
	ObserveDownload(format string)
}

type Deps struct {
	Store       store.UploadStore
	Runner      *pipeline.Runner
	Validator   *validator.CleanRequestValidator
	Publisher   events.Publisher
	Observer    Observer
	PreviewRows int
	Log         *logger.Logger

	// PublishTimeout defaults to DefaultPublishTimeout.
	PublishTimeout time.Duration
}

type contactService struct {
	store       store.UploadStore
	runner      *pipeline.Runner
	validator   *validator.CleanRequestValidator
	publisher   events.Publisher
	observer    Observer
	previewRows int
	log         *logger.Logger
	now         func() time.Time

	publishTimeout time.Duration
	publishes      sync.WaitGroup
}

func NewContactService(deps Deps) ContactService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	publishTimeout := deps.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}

	return &contactService{
		store:       deps.Store,
		runner:      deps.Runner,
		validator:   deps.Validator,
		publisher:   publisher,
		observer:    observer,
		previewRows: deps.PreviewRows,
		log:         deps.Log,
		now:         time.Now,

		publishTimeout: publishTimeout,
	}
}

func (s *contactService) Upload(ctx context.Context, filename string, r io.Reader) (*UploadSummary, error) {
	if !codec.IsCSVFilename(filename) {
		s.observer.ObserveUpload(metrics.ResultRejected)
		return nil, s.mapError(contactserrors.ErrUnsupportedFile, "")
	}

	ds, err := codec.DecodeCSV(r)
	if err != nil {
		s.observer.ObserveUpload(metrics.ResultRejected)
		s.log.Warn("Failed to decode uploaded file",
			"filename", filename,
			"error", err,
		)
		return nil, s.mapError(err, "Failed to read uploaded file")
	}

	upload, err := s.store.Create(filename, ds)
	if err != nil {
		s.observer.ObserveUpload(metrics.ResultRejected)
		return nil, s.mapError(err, "Failed to store uploaded file")
	}

	s.observer.ObserveUpload(metrics.ResultSuccess)
	s.log.Info("Contacts file uploaded",
		"upload_id", upload.ID,
		"filename", filename,
		"rows", ds.NumRows(),
		"columns", ds.NumCols(),
	)

	return s.summarize(upload, s.previewRows), nil
}

// Session summarizes the stored upload. A negative previewRows uses the configured preview size.
func (s *contactService) Session(ctx context.Context, uploadID string, previewRows int) (*UploadSummary, error) {
	upload, err := s.getUpload(uploadID)
	if err != nil {
		return nil, err
	}
	if previewRows < 0 {
		previewRows = s.previewRows
	}
	return s.summarize(upload, previewRows), nil
}

func (s *contactService) Clean(ctx context.Context, uploadID string, req *validator.CleanRequest) (*CleanResult, error) {
	if err := s.validator.Validate(req); err != nil {
		s.log.Warn("Clean request validation failed",
			"upload_id", uploadID,
			"error", err,
		)
		return nil, apperrors.Validation("Clean request validation failed", map[string]any{
			"errors": err,
		})
	}

	upload, err := s.getUpload(uploadID)
	if err != nil {
		return nil, err
	}

	start := s.now()
	cleaned, report, err := s.runner.Run(upload.Original, req.StageIDs())
	if err != nil {
		s.observer.ObserveCleanFailure()
		s.log.Error("Cleaning pipeline failed",
			"upload_id", uploadID,
			"error", err,
		)
		return nil, s.mapError(err, "Failed to clean contacts")
	}
	duration := s.now().Sub(start)

	updated, err := s.store.SetCleaned(uploadID, cleaned, report)
	if err != nil {
		s.observer.ObserveCleanFailure()
		return nil, s.mapError(err, "Failed to store cleaned contacts")
	}

	s.observer.ObserveCleanRun(stageNames(report.Applied), report.RowsRemoved(), duration)
	s.publishCleaned(ctx, updated)

	return s.cleanResult(updated, s.previewRows), nil
}

// publishCleaned sends the event in the background. The publish keeps the
// request's values but not its cancellation, and gives up after publishTimeout.
func (s *contactService) publishCleaned(ctx context.Context, upload *store.Upload) {
	event := events.CleanedEvent{
		UploadID:  upload.ID,
		Filename:  upload.Filename,
		Report:    *upload.Report,
		CleanedAt: upload.CleanedAt,
	}
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)

	s.publishes.Add(1)
	go func() {
		defer s.publishes.Done()
		defer cancel()

		if err := s.publisher.PublishCleaned(publishCtx, event); err != nil {
			s.log.Warn("Failed to publish cleaned event",
				"upload_id", event.UploadID,
				"error", err,
			)
		}
	}()
}

func (s *contactService) Close() error {
	s.publishes.Wait()
	return s.publisher.Close()
}

func (s *contactService) Download(ctx context.Context, uploadID string, format string) (*Export, error) {
	f, err := codec.ParseFormat(format)
	if err != nil {
		return nil, s.mapError(err, "")
	}

	upload, err := s.getUpload(uploadID)
	if err != nil {
		return nil, err
	}
	if !upload.HasCleaned() {
		return nil, s.mapError(contactserrors.ErrNoCleanedData, "")
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, upload.Cleaned, f); err != nil {
		s.log.Error("Failed to encode cleaned contacts",
			"upload_id", uploadID,
			"format", f,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to export cleaned contacts", err)
	}

	s.observer.ObserveDownload(string(f))

	return &Export{
		Filename:    ExportBaseName + f.Extension(),
		ContentType: f.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

func (s *contactService) Reset(ctx context.Context, uploadID string) error {
	if strings.TrimSpace(uploadID) == "" {
		return nil
	}
	if err := s.store.Delete(uploadID); err != nil && !errors.Is(err, contactserrors.ErrNoUpload) {
		return s.mapError(err, "Failed to reset session")
	}

	s.log.Info("Upload discarded", "upload_id", uploadID)
	return nil
}

func (s *contactService) Stages() []StageInfo {
	stages := pipeline.Stages()
	out := make([]StageInfo, len(stages))
	for i, st := range stages {
		out[i] = StageInfo{ID: st.ID, Description: st.Description}
	}
	return out
}

func (s *contactService) getUpload(uploadID string) (*store.Upload, error) {
	if strings.TrimSpace(uploadID) == "" {
		return nil, s.mapError(contactserrors.ErrNoUpload, "")
	}
	upload, err := s.store.Get(uploadID)
	if err != nil {
		return nil, s.mapError(err, "Failed to load upload")
	}
	return upload, nil
}

func (s *contactService) summarize(upload *store.Upload, previewRows int) *UploadSummary {
	summary := &UploadSummary{
		UploadID:   upload.ID,
		Filename:   upload.Filename,
		UploadedAt: upload.UploadedAt,
		Original:   newDatasetView(upload.Original, previewRows),
		Roles:      s.runner.Classify(upload.Original.ColumnNames()),
	}
	if upload.HasCleaned() {
		summary.Cleaned = s.cleanResult(upload, previewRows)
	}
	return summary
}

func (s *contactService) cleanResult(upload *store.Upload, previewRows int) *CleanResult {
	return &CleanResult{
		UploadID:  upload.ID,
		Report:    *upload.Report,
		Cleaned:   newDatasetView(upload.Cleaned, previewRows),
		CleanedAt: upload.CleanedAt,
	}
}

// mapError converts domain errors into AppErrors. Unknown errors become internal errors carrying fallback.
func (s *contactService) mapError(err error, fallback string) error {
	var dataErr *model.DataError
	switch {
	case errors.As(err, &dataErr):
		return apperrors.Wrap(err, apperrors.CodeValidation, capitalize(dataErr.Error()), http.StatusUnprocessableEntity)
	case errors.Is(err, contactserrors.ErrNoUpload):
		return apperrors.Wrap(err, apperrors.CodeNotFound, "No file uploaded. Please upload a CSV file first.", http.StatusNotFound)
	case errors.Is(err, contactserrors.ErrNoCleanedData):
		return apperrors.Wrap(err, apperrors.CodeNotFound, "No cleaned data available. Please clean the data first.", http.StatusNotFound)
	case errors.Is(err, contactserrors.ErrEmptyFile):
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "The uploaded file is empty.", http.StatusBadRequest)
	case errors.Is(err, contactserrors.ErrUnsupportedFile):
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "Invalid file type. Please upload a CSV file.", http.StatusBadRequest)
	case errors.Is(err, contactserrors.ErrUnknownFormat):
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, fmt.Sprintf("Unsupported download format. Use %s or %s.", codec.FormatCSV, codec.FormatXLSX), http.StatusBadRequest)
	case apperrors.IsAppError(err):
		return err
	}
	return apperrors.Internal(fallback, err)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func stageNames(ids []model.StageID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return names
}

type noopObserver struct{}

func (noopObserver) ObserveUpload(string) {}

func (noopObserver) ObserveCleanRun([]string, int, time.Duration) {}

func (noopObserver) ObserveCleanFailure() {}

func (noopObserver) ObserveDownload(string) {}
