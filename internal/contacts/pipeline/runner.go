// Package pipeline implements the contact cleaning stages and the runner that
// applies a selected subset of them in canonical order.
package pipeline

import (
	"fmt"
	"time"

	"contactcleaner/internal/contacts/classifier"
	"contactcleaner/pkg/logger"
	"contactcleaner/pkg/model"
)

type Runner struct {
	env *env
	log *logger.Logger
}

func NewRunner(opts Options, log *logger.Logger) *Runner {
	return &Runner{
		env: &env{
			opts:       opts,
			classifier: classifier.New(opts.Keywords),
		},
		log: log,
	}
}

// Run applies the enabled stages to ds in canonical order and returns the
// cleaned dataset with before/after counts. ds is never modified. Only a
// structurally invalid dataset produces an error.
func (r *Runner) Run(ds *model.Dataset, enabled []model.StageID) (*model.Dataset, model.CleaningReport, error) {
	if err := ds.Validate(); err != nil {
		return nil, model.CleaningReport{}, err
	}

	start := time.Now()
	report := model.CleaningReport{
		RowsBefore:    ds.NumRows(),
		ColumnsBefore: ds.NumCols(),
		Applied:       []model.StageID{},
	}

	planned := make(map[model.StageID]struct{})
	for _, id := range Plan(enabled) {
		planned[id] = struct{}{}
	}

	current := ds.Clone()
	for _, st := range canonicalOrder {
		if _, ok := planned[st.ID]; !ok {
			continue
		}

		next, err := st.apply(current, r.env)
		if err != nil {
			return nil, model.CleaningReport{}, fmt.Errorf("stage %s: %w", st.ID, err)
		}
		current = next
		report.Applied = append(report.Applied, st.ID)

		r.log.Debug("Cleaning stage applied",
			"stage", st.ID,
			"rows", current.NumRows(),
			"columns", current.NumCols(),
		)
	}

	report.RowsAfter = current.NumRows()
	report.ColumnsAfter = current.NumCols()

	r.log.Info("Cleaning pipeline completed",
		"stages", len(report.Applied),
		"rows_before", report.RowsBefore,
		"rows_after", report.RowsAfter,
		"columns_before", report.ColumnsBefore,
		"columns_after", report.ColumnsAfter,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return current, report, nil
}

// Classify exposes the runner's column classifier.
func (r *Runner) Classify(names []string) classifier.Classification {
	return r.env.classifier.Classify(names)
}
