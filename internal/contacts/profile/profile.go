// Package profile loads reusable cleaning profiles for the offline CLI.
package profile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"contactcleaner/internal/contacts/codec"
	"contactcleaner/internal/contacts/pipeline"
	"contactcleaner/pkg/model"
	"contactcleaner/pkg/sanitizer"
)

var ErrProfileNotFound = errors.New("profile file not found")

// Profile is a named set of cleaning choices. Zero fields mean "not set".
type Profile struct {
	Stages       []string `yaml:"stages"`
	Region       string   `yaml:"region"`
	OutputFormat string   `yaml:"output_format"`
}

// Load reads a YAML profile from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided profile path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}
		return nil, err
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return &p, nil
}

// Validate rejects unknown stages, regions and formats. Profiles are written by
// hand, so a typo should fail loudly rather than be ignored like form input.
func (p *Profile) Validate() error {
	var problems []string

	for _, st := range p.Stages {
		if !pipeline.IsKnownStage(model.StageID(st)) {
			problems = append(problems, fmt.Sprintf("unknown stage %q", st))
		}
	}
	if p.Region != "" && !sanitizer.IsSupportedRegion(p.Region) {
		problems = append(problems, fmt.Sprintf("unsupported region %q", p.Region))
	}
	if p.OutputFormat != "" {
		if _, err := codec.ParseFormat(p.OutputFormat); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// StageIDs returns the profile stages, or every stage when none are listed.
func (p *Profile) StageIDs() []model.StageID {
	if len(p.Stages) == 0 {
		return AllStageIDs()
	}
	return pipeline.ParseStageIDs(p.Stages)
}

func AllStageIDs() []model.StageID {
	stages := pipeline.Stages()
	ids := make([]model.StageID, len(stages))
	for i, st := range stages {
		ids[i] = st.ID
	}
	return ids
}
