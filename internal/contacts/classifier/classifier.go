// Package classifier assigns roles to dataset columns from their names alone.
package classifier

import (
	"strings"

	"contactcleaner/pkg/sanitizer"
)

type Role string

const (
	RolePhone   Role = "phone"
	RoleCity    Role = "city"
	RoleState   Role = "state"
	RoleCountry Role = "country"
	RoleOther   Role = "other"
)

// Roles lists the matchable roles in priority order. A column whose name
// matches several keyword sets takes the first role here.
var Roles = []Role{RolePhone, RoleCity, RoleState, RoleCountry}

type Keywords struct {
	Phone   []string
	City    []string
	State   []string
	Country []string
}

// DefaultKeywords returns the keyword sets used when none are configured.
func DefaultKeywords() Keywords {
	return Keywords{
		Phone:   []string{"phone", "mobile", "cell", "tel"},
		City:    []string{"city"},
		State:   []string{"state"},
		Country: []string{"country"},
	}
}

func (k Keywords) forRole(role Role) []string {
	switch role {
	case RolePhone:
		return k.Phone
	case RoleCity:
		return k.City
	case RoleState:
		return k.State
	case RoleCountry:
		return k.Country
	}
	return nil
}

// Classification maps every matchable role to the matching column names in dataset order.
// Every role in Roles is present, with an empty slice when nothing matched.
type Classification map[Role][]string

func (c Classification) Columns(role Role) []string {
	return c[role]
}

type Classifier struct {
	keywords Keywords
}

func New(keywords Keywords) *Classifier {
	return &Classifier{keywords: keywords}
}

// RoleOf returns the role of a single column name.
func (c *Classifier) RoleOf(name string) Role {
	key := sanitizer.ComparableKey(name)
	for _, role := range Roles {
		for _, kw := range c.keywords.forRole(role) {
			if kw != "" && strings.Contains(key, strings.ToLower(kw)) {
				return role
			}
		}
	}
	return RoleOther
}

func (c *Classifier) Classify(names []string) Classification {
	out := make(Classification, len(Roles))
	for _, role := range Roles {
		out[role] = []string{}
	}
	for _, name := range names {
		role := c.RoleOf(name)
		if role == RoleOther {
			continue
		}
		out[role] = append(out[role], name)
	}
	return out
}

var defaultClassifier = New(DefaultKeywords())

// Classify classifies names with the default keyword sets.
func Classify(names []string) Classification {
	return defaultClassifier.Classify(names)
}
