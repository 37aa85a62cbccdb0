package service

import (
	"time"

	"contactcleaner/internal/contacts/classifier"
	"contactcleaner/pkg/model"
)

// DatasetView summarizes a dataset for API responses. Null cells render as JSON null.
type DatasetView struct {
	Rows        int         `json:"rows"`
	Columns     int         `json:"columns"`
	ColumnNames []string    `json:"column_names"`
	Preview     [][]*string `json:"preview"`
}

type UploadSummary struct {
	UploadID   string                    `json:"upload_id"`
	Filename   string                    `json:"filename"`
	UploadedAt time.Time                 `json:"uploaded_at"`
	Original   DatasetView               `json:"original"`
	Roles      classifier.Classification `json:"roles"`
	Cleaned    *CleanResult              `json:"cleaned,omitempty"`
}

type CleanResult struct {
	UploadID  string               `json:"upload_id"`
	Report    model.CleaningReport `json:"report"`
	Cleaned   DatasetView          `json:"cleaned"`
	CleanedAt time.Time            `json:"cleaned_at"`
}

// Export is an encoded cleaned dataset ready to be served as an attachment.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

type StageInfo struct {
	ID          model.StageID `json:"id"`
	Description string        `json:"description"`
}

func newDatasetView(ds *model.Dataset, previewRows int) DatasetView {
	head := ds.Head(previewRows)
	names := head.ColumnNames()

	preview := make([][]*string, head.NumRows())
	for r := range preview {
		row := make([]*string, len(names))
		for c, name := range names {
			if cell := head.Cell(name, r); cell.Valid {
				v := cell.Value
				row[c] = &v
			}
		}
		preview[r] = row
	}

	return DatasetView{
		Rows:        ds.NumRows(),
		Columns:     ds.NumCols(),
		ColumnNames: ds.ColumnNames(),
		Preview:     preview,
	}
}
