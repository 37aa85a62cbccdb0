package pipeline

import (
	"strings"

	"contactcleaner/internal/contacts/classifier"
	"contactcleaner/pkg/model"
	"contactcleaner/pkg/sanitizer"
)

func trimWhitespace(ds *model.Dataset, _ *env) (*model.Dataset, error) {
	return ds.MapCells(func(c model.Cell) model.Cell {
		if !c.Valid {
			return c
		}
		return model.String(strings.TrimSpace(c.Value))
	}), nil
}

func dropMissingNames(ds *model.Dataset, _ *env) (*model.Dataset, error) {
	first, okFirst := ds.Column(model.ColumnFirstName)
	last, okLast := ds.Column(model.ColumnLastName)
	if !okFirst || !okLast {
		return ds.Clone(), nil
	}

	return ds.FilterRows(func(row int) bool {
		return !first[row].IsBlank() && !last[row].IsBlank()
	}), nil
}

func standardizeTitle(ds *model.Dataset, _ *env) (*model.Dataset, error) {
	return ds.MapColumn(model.ColumnTitle, func(c model.Cell) model.Cell {
		if !c.Valid {
			return c
		}
		return model.String(sanitizer.TitleCase(c.Value))
	}), nil
}

func lowercaseEmails(ds *model.Dataset, _ *env) (*model.Dataset, error) {
	return ds.MapColumn(model.ColumnEmail, func(c model.Cell) model.Cell {
		if !c.Valid {
			return c
		}
		return model.String(sanitizer.NormalizeEmail(c.Value))
	}), nil
}

func unifyPhones(ds *model.Dataset, e *env) (*model.Dataset, error) {
	phones := e.classify(ds).Columns(classifier.RolePhone)
	if len(phones) == 0 {
		return ds.Clone(), nil
	}

	cells := make([]model.Cell, ds.NumRows())
	for r := range cells {
		cells[r] = firstPresent(ds, phones, r)
	}

	at := ds.ColumnIndex(phones[0])
	return ds.DropColumns(phones...).InsertColumn(at, model.Column{
		Name:  model.ColumnPhoneNumber,
		Cells: cells,
	})
}

func normalizePhones(ds *model.Dataset, e *env) (*model.Dataset, error) {
	out := ds.Clone()
	for _, name := range e.classify(ds).Columns(classifier.RolePhone) {
		out = out.MapColumn(name, func(c model.Cell) model.Cell {
			if !c.Valid {
				return c
			}
			return model.String(sanitizer.NormalizePhone(c.Value, e.opts.Region))
		})
	}
	return out, nil
}

func removeEmailDuplicates(ds *model.Dataset, _ *env) (*model.Dataset, error) {
	emails, ok := ds.Column(model.ColumnEmail)
	if !ok {
		return ds.Clone(), nil
	}

	return ds.FilterRows(keepFirst(func(row int) string {
		return sanitizer.NormalizeEmail(emails[row].Text())
	})), nil
}

func removePhoneDuplicates(ds *model.Dataset, e *env) (*model.Dataset, error) {
	phones := e.classify(ds).Columns(classifier.RolePhone)
	if len(phones) == 0 {
		return ds.Clone(), nil
	}

	return ds.FilterRows(keepFirst(func(row int) string {
		c := firstPresent(ds, phones, row)
		if !c.Valid {
			return ""
		}
		return sanitizer.NormalizePhone(c.Value, e.opts.Region)
	})), nil
}

func filterColumns(ds *model.Dataset, e *env) (*model.Dataset, error) {
	cls := e.classify(ds)
	rows := ds.NumRows()

	columns := make([]model.Column, 0, len(e.opts.EssentialColumns))
	for _, name := range e.opts.EssentialColumns {
		cells, ok := ds.Column(name)
		switch {
		case name == model.ColumnPhoneNumber && !ok:
			cells = make([]model.Cell, rows)
			phones := cls.Columns(classifier.RolePhone)
			for r := range cells {
				cells[r] = firstPresent(ds, phones, r)
			}
		case name == model.ColumnLocation && hasLocationColumns(cls):
			cells = make([]model.Cell, rows)
			for r := range cells {
				cells[r] = location(ds, cls, r, e.opts.LocationSeparator)
			}
		case !ok:
			cells = make([]model.Cell, rows)
		}
		columns = append(columns, model.Column{Name: name, Cells: cells})
	}

	return model.FromColumns(columns...)
}

func (e *env) classify(ds *model.Dataset) classifier.Classification {
	return e.classifier.Classify(ds.ColumnNames())
}

// firstPresent returns the trimmed first non-blank value among columns at row, or null.
func firstPresent(ds *model.Dataset, columns []string, row int) model.Cell {
	for _, name := range columns {
		if c := ds.Cell(name, row); !c.IsBlank() {
			return model.String(strings.TrimSpace(c.Value))
		}
	}
	return model.Null()
}

var locationRoles = []classifier.Role{classifier.RoleCity, classifier.RoleState, classifier.RoleCountry}

func hasLocationColumns(cls classifier.Classification) bool {
	for _, role := range locationRoles {
		if len(cls.Columns(role)) > 0 {
			return true
		}
	}
	return false
}

func location(ds *model.Dataset, cls classifier.Classification, row int, sep string) model.Cell {
	parts := make([]string, 0, len(locationRoles))
	for _, role := range locationRoles {
		if c := firstPresent(ds, cls.Columns(role), row); c.Valid {
			parts = append(parts, c.Value)
		}
	}
	if len(parts) == 0 {
		return model.Null()
	}
	return model.String(strings.Join(parts, sep))
}

// keepFirst keeps the first row for every non-empty key. Rows with an empty key are always kept.
func keepFirst(key func(row int) string) func(row int) bool {
	seen := make(map[string]struct{})
	return func(row int) bool {
		k := key(row)
		if k == "" {
			return true
		}
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	}
}
