package model

type StageID string

const (
	StageTrimWhitespace        StageID = "trim_whitespace"
	StageDropMissingNames      StageID = "drop_missing_names"
	StageStandardizeTitle      StageID = "standardize_title"
	StageLowercaseEmails       StageID = "lowercase_emails"
	StageUnifyPhones           StageID = "unify_phones"
	StageNormalizePhones       StageID = "normalize_phones"
	StageRemoveEmailDuplicates StageID = "remove_email_duplicates"
	StageRemovePhoneDuplicates StageID = "remove_phone_duplicates"
	StageFilterColumns         StageID = "filter_columns"
)

// Well-known column names.
const (
	ColumnFirstName   = "First Name"
	ColumnLastName    = "Last Name"
	ColumnTitle       = "Title"
	ColumnCompany     = "Company"
	ColumnEmail       = "Email"
	ColumnPhoneNumber = "Phone Number"
	ColumnLocation    = "Location"
)

// EssentialColumns is the output schema of the filter_columns stage.
var EssentialColumns = []string{
	ColumnFirstName,
	ColumnLastName,
	ColumnTitle,
	ColumnCompany,
	ColumnEmail,
	ColumnPhoneNumber,
	ColumnLocation,
}

type CleaningReport struct {
	RowsBefore    int       `json:"rows_before"`
	ColumnsBefore int       `json:"columns_before"`
	RowsAfter     int       `json:"rows_after"`
	ColumnsAfter  int       `json:"columns_after"`
	Applied       []StageID `json:"applied"`
}

func (r CleaningReport) RowsRemoved() int {
	return r.RowsBefore - r.RowsAfter
}
