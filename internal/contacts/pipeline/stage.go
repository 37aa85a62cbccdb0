package pipeline

import (
	"contactcleaner/internal/contacts/classifier"
	"contactcleaner/pkg/model"
	"contactcleaner/pkg/sanitizer"
)

// Options is the immutable configuration shared by every stage of a run.
type Options struct {
	Region            string
	Keywords          classifier.Keywords
	EssentialColumns  []string
	LocationSeparator string
}

func DefaultOptions() Options {
	return Options{
		Region:            sanitizer.DefaultRegion,
		Keywords:          classifier.DefaultKeywords(),
		EssentialColumns:  model.EssentialColumns,
		LocationSeparator: ", ",
	}
}

type env struct {
	opts       Options
	classifier *classifier.Classifier
}

// Stage is one named transformation. Apply never modifies its input.
type Stage struct {
	ID          model.StageID
	Description string
	apply       func(ds *model.Dataset, e *env) (*model.Dataset, error)
}

// canonicalOrder is the fixed execution order. Structural cleanup runs first,
// then derived values, then column unification, then identity-based
// deduplication, and the destructive projection last.
var canonicalOrder = []Stage{
	{
		ID:          model.StageTrimWhitespace,
		Description: "Trim leading and trailing whitespace in every cell",
		apply:       trimWhitespace,
	},
	{
		ID:          model.StageDropMissingNames,
		Description: "Drop rows missing a first or last name",
		apply:       dropMissingNames,
	},
	{
		ID:          model.StageStandardizeTitle,
		Description: "Convert job titles to title case",
		apply:       standardizeTitle,
	},
	{
		ID:          model.StageLowercaseEmails,
		Description: "Lowercase email addresses",
		apply:       lowercaseEmails,
	},
	{
		ID:          model.StageUnifyPhones,
		Description: "Merge phone columns into a single Phone Number column",
		apply:       unifyPhones,
	},
	{
		ID:          model.StageNormalizePhones,
		Description: "Normalize phone numbers to E.164",
		apply:       normalizePhones,
	},
	{
		ID:          model.StageRemoveEmailDuplicates,
		Description: "Remove rows with a duplicate email",
		apply:       removeEmailDuplicates,
	},
	{
		ID:          model.StageRemovePhoneDuplicates,
		Description: "Remove rows with a duplicate phone number",
		apply:       removePhoneDuplicates,
	},
	{
		ID:          model.StageFilterColumns,
		Description: "Keep only the essential contact columns",
		apply:       filterColumns,
	},
}

// Stages returns the stage vocabulary in canonical order.
func Stages() []Stage {
	return append([]Stage(nil), canonicalOrder...)
}

func IsKnownStage(id model.StageID) bool {
	for _, st := range canonicalOrder {
		if st.ID == id {
			return true
		}
	}
	return false
}

// Plan returns the enabled stages in canonical order. Unknown and repeated ids are ignored.
func Plan(enabled []model.StageID) []model.StageID {
	set := make(map[model.StageID]struct{}, len(enabled))
	for _, id := range enabled {
		set[id] = struct{}{}
	}

	plan := make([]model.StageID, 0, len(set))
	for _, st := range canonicalOrder {
		if _, ok := set[st.ID]; ok {
			plan = append(plan, st.ID)
		}
	}
	return plan
}

// ParseStageIDs converts raw form values into stage ids, keeping unknown values so Plan can drop them.
func ParseStageIDs(values []string) []model.StageID {
	ids := make([]model.StageID, 0, len(values))
	for _, v := range values {
		ids = append(ids, model.StageID(v))
	}
	return ids
}
