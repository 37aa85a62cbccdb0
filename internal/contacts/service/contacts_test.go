package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"contactcleaner/internal/contacts/classifier"
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

const contactsCSV = `First Name,Last Name,Title,Email,Mobile Phone,City
 Alice ,Smith,senior sales manager,Alice@Example.com,(202) 555-0143,Boston
Bob,,engineer,bob@example.com,202-555-0144,Denver
Carol,Jones,cto,CAROL@example.com,,Austin
Alice,Smith,senior sales manager,alice@example.com,+1 202 555 0143,Boston
`

type fakePublisher struct {
	mu     sync.Mutex
	events []events.CleanedEvent
	ctxErr []error
	err    error
	block  bool
	closed bool
}

func (p *fakePublisher) PublishCleaned(ctx context.Context, e events.CleanedEvent) error {
	if p.block {
		<-ctx.Done()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	p.ctxErr = append(p.ctxErr, ctx.Err())
	return p.err
}

func (p *fakePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePublisher) published() []events.CleanedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.CleanedEvent(nil), p.events...)
}

type fakeObserver struct {
	uploads     []string
	cleanRuns   int
	cleanStages []string
	rowsRemoved int
	failures    int
	downloads   []string
}

func (o *fakeObserver) ObserveUpload(result string) { o.uploads = append(o.uploads, result) }

func (o *fakeObserver) ObserveCleanRun(stages []string, rowsRemoved int, _ time.Duration) {
	o.cleanRuns++
	o.cleanStages = stages
	o.rowsRemoved += rowsRemoved
}

func (o *fakeObserver) ObserveCleanFailure() { o.failures++ }

func (o *fakeObserver) ObserveDownload(format string) { o.downloads = append(o.downloads, format) }

const testPublishTimeout = 200 * time.Millisecond

type fixture struct {
	svc       ContactService
	store     *store.InMemoryUploadStore
	publisher *fakePublisher
	observer  *fakeObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.Discard()
	st := store.NewInMemoryUploadStore(store.Config{TTL: time.Hour}, log)
	t.Cleanup(st.Stop)

	f := &fixture{
		store:     st,
		publisher: &fakePublisher{},
		observer:  &fakeObserver{},
	}
	f.svc = NewContactService(Deps{
		Store:       st,
		Runner:      pipeline.NewRunner(pipeline.DefaultOptions(), log),
		Validator:   validator.NewCleanRequestValidator(log),
		Publisher:   f.publisher,
		Observer:    f.observer,
		PreviewRows: 2,
		Log:         log,

		PublishTimeout: testPublishTimeout,
	})
	return f
}

func (f *fixture) upload(t *testing.T) *UploadSummary {
	t.Helper()
	summary, err := f.svc.Upload(context.Background(), "contacts.csv", strings.NewReader(contactsCSV))
	require.NoError(t, err)
	return summary
}

func requireAppError(t *testing.T, err error, status int) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.Equal(t, status, appErr.StatusCode(), "error: %v", err)
	return appErr
}

func cleanRequest(options ...string) *validator.CleanRequest {
	return &validator.CleanRequest{CleaningOptions: options}
}

func TestUpload(t *testing.T) {
	f := newFixture(t)

	summary := f.upload(t)

	assert.NotEmpty(t, summary.UploadID)
	assert.Equal(t, "contacts.csv", summary.Filename)
	assert.Equal(t, 4, summary.Original.Rows)
	assert.Equal(t, 6, summary.Original.Columns)
	assert.Len(t, summary.Original.Preview, 2)
	assert.Equal(t, []string{"Mobile Phone"}, summary.Roles.Columns(classifier.RolePhone))
	assert.Equal(t, []string{"City"}, summary.Roles.Columns(classifier.RoleCity))
	assert.Nil(t, summary.Cleaned)
	assert.Nil(t, summary.Original.Preview[1][1], "empty field previews as null")
	assert.Equal(t, []string{metrics.ResultSuccess}, f.observer.uploads)
	assert.Equal(t, 1, f.store.Len())
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     string
		status   int
		sentinel error
	}{
		{"not a csv", "contacts.txt", contactsCSV, http.StatusBadRequest, contactserrors.ErrUnsupportedFile},
		{"empty file", "contacts.csv", "", http.StatusBadRequest, contactserrors.ErrEmptyFile},
		{"header only", "contacts.csv", "First Name,Email\n", http.StatusUnprocessableEntity, nil},
		{"duplicate headers", "contacts.csv", "Email,Email\na,b\n", http.StatusUnprocessableEntity, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.Upload(context.Background(), tt.filename, strings.NewReader(tt.body))

			requireAppError(t, err, tt.status)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			} else {
				assert.True(t, model.IsDataError(err))
			}
			assert.Equal(t, []string{metrics.ResultRejected}, f.observer.uploads)
			assert.Zero(t, f.store.Len())
		})
	}
}

func TestClean(t *testing.T) {
	f := newFixture(t)
	uploaded := f.upload(t)

	result, err := f.svc.Clean(context.Background(), uploaded.UploadID, cleanRequest(
		string(model.StageRemoveEmailDuplicates),
		string(model.StageTrimWhitespace),
		string(model.StageLowercaseEmails),
		string(model.StageDropMissingNames),
		"not_a_stage",
	))
	require.NoError(t, err)

	assert.Equal(t, []model.StageID{
		model.StageTrimWhitespace,
		model.StageDropMissingNames,
		model.StageLowercaseEmails,
		model.StageRemoveEmailDuplicates,
	}, result.Report.Applied)
	assert.Equal(t, 4, result.Report.RowsBefore)
	assert.Equal(t, 2, result.Report.RowsAfter)
	assert.Equal(t, 2, result.Cleaned.Rows)
	require.NotNil(t, result.Cleaned.Preview[0][0])
	assert.Equal(t, "Alice", *result.Cleaned.Preview[0][0])

	assert.Equal(t, 1, f.observer.cleanRuns)
	assert.Equal(t, 2, f.observer.rowsRemoved)

	require.NoError(t, f.svc.Close())
	published := f.publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, uploaded.UploadID, published[0].UploadID)
	assert.Equal(t, result.Report, published[0].Report)

	session, err := f.svc.Session(context.Background(), uploaded.UploadID, -1)
	require.NoError(t, err)
	require.NotNil(t, session.Cleaned)
	assert.Equal(t, 4, session.Original.Rows, "original is kept")
	assert.Len(t, session.Original.Preview, 2)
	assert.Equal(t, 2, session.Cleaned.Cleaned.Rows)

	session, err = f.svc.Session(context.Background(), uploaded.UploadID, 3)
	require.NoError(t, err)
	assert.Len(t, session.Original.Preview, 3)
	assert.Len(t, session.Cleaned.Cleaned.Preview, 2)
}

func TestClean_RerunsFromOriginal(t *testing.T) {
	f := newFixture(t)
	uploaded := f.upload(t)

	_, err := f.svc.Clean(context.Background(), uploaded.UploadID, cleanRequest(string(model.StageDropMissingNames)))
	require.NoError(t, err)

	result, err := f.svc.Clean(context.Background(), uploaded.UploadID, cleanRequest(string(model.StageTrimWhitespace)))
	require.NoError(t, err)

	assert.Equal(t, 4, result.Report.RowsBefore)
	assert.Equal(t, 4, result.Report.RowsAfter)
}

func TestClean_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")
	uploaded := f.upload(t)

	_, err := f.svc.Clean(context.Background(), uploaded.UploadID, cleanRequest(string(model.StageTrimWhitespace)))

	require.NoError(t, err)
	require.NoError(t, f.svc.Close())
	assert.Len(t, f.publisher.published(), 1)
	assert.Equal(t, 1, f.observer.cleanRuns)
}

func TestClean_SlowPublisherDoesNotHoldRequest(t *testing.T) {
	f := newFixture(t)
	f.publisher.block = true
	uploaded := f.upload(t)

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	result, err := f.svc.Clean(ctx, uploaded.UploadID, cleanRequest(string(model.StageTrimWhitespace)))
	cancel()

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Less(t, time.Since(start), testPublishTimeout, "Clean must not wait for the broker")

	require.NoError(t, f.svc.Close())
	assert.True(t, f.publisher.closed)
	require.Len(t, f.publisher.ctxErr, 1)
	assert.ErrorIs(t, f.publisher.ctxErr[0], context.DeadlineExceeded,
		"the publish outlives the request and stops at its own timeout")
}

func TestClean_Errors(t *testing.T) {
	f := newFixture(t)
	uploaded := f.upload(t)

	t.Run("no options", func(t *testing.T) {
		_, err := f.svc.Clean(context.Background(), uploaded.UploadID, cleanRequest())
		appErr := requireAppError(t, err, http.StatusUnprocessableEntity)
		assert.Contains(t, appErr.Details, "errors")
	})

	t.Run("unknown upload", func(t *testing.T) {
		_, err := f.svc.Clean(context.Background(), "missing", cleanRequest(string(model.StageTrimWhitespace)))
		requireAppError(t, err, http.StatusNotFound)
		assert.ErrorIs(t, err, contactserrors.ErrNoUpload)
	})

	t.Run("no session", func(t *testing.T) {
		_, err := f.svc.Clean(context.Background(), "", cleanRequest(string(model.StageTrimWhitespace)))
		requireAppError(t, err, http.StatusNotFound)
	})

	assert.Zero(t, f.observer.cleanRuns)
	assert.Empty(t, f.publisher.published())
}

func TestDownload(t *testing.T) {
	f := newFixture(t)
	uploaded := f.upload(t)

	_, err := f.svc.Download(context.Background(), uploaded.UploadID, "csv")
	requireAppError(t, err, http.StatusNotFound)
	assert.ErrorIs(t, err, contactserrors.ErrNoCleanedData)

	_, err = f.svc.Clean(context.Background(), uploaded.UploadID, cleanRequest(
		string(model.StageDropMissingNames),
		string(model.StageFilterColumns),
	))
	require.NoError(t, err)

	t.Run("csv", func(t *testing.T) {
		export, err := f.svc.Download(context.Background(), uploaded.UploadID, "")
		require.NoError(t, err)

		assert.Equal(t, "cleaned_contacts.csv", export.Filename)
		assert.Equal(t, codec.FormatCSV.ContentType(), export.ContentType)

		ds, err := codec.DecodeCSV(bytes.NewReader(export.Body))
		require.NoError(t, err)
		assert.Equal(t, model.EssentialColumns, ds.ColumnNames())
		assert.Equal(t, 3, ds.NumRows())
	})

	t.Run("xlsx", func(t *testing.T) {
		export, err := f.svc.Download(context.Background(), uploaded.UploadID, "XLSX")
		require.NoError(t, err)
		assert.Equal(t, "cleaned_contacts.xlsx", export.Filename)

		book, err := excelize.OpenReader(bytes.NewReader(export.Body))
		require.NoError(t, err)
		defer func() { _ = book.Close() }()

		rows, err := book.GetRows(codec.SheetName)
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := f.svc.Download(context.Background(), uploaded.UploadID, "pdf")
		requireAppError(t, err, http.StatusBadRequest)
	})

	assert.Equal(t, []string{"csv", "xlsx"}, f.observer.downloads)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	uploaded := f.upload(t)

	require.NoError(t, f.svc.Reset(context.Background(), uploaded.UploadID))
	assert.Zero(t, f.store.Len())

	_, err := f.svc.Session(context.Background(), uploaded.UploadID, -1)
	requireAppError(t, err, http.StatusNotFound)

	assert.NoError(t, f.svc.Reset(context.Background(), uploaded.UploadID), "reset is idempotent")
	assert.NoError(t, f.svc.Reset(context.Background(), ""))
}

func TestStages(t *testing.T) {
	f := newFixture(t)

	stages := f.svc.Stages()

	require.Len(t, stages, 9)
	assert.Equal(t, model.StageTrimWhitespace, stages[0].ID)
	assert.Equal(t, model.StageFilterColumns, stages[8].ID)
	for _, st := range stages {
		assert.NotEmpty(t, st.Description, st.ID)
	}
}
