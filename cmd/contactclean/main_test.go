package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactcleaner/internal/contacts/codec"
	"contactcleaner/pkg/model"
)

const sampleCSV = `First Name,Last Name,Title,Email,Mobile Phone,City
 Alice ,Smith,senior sales manager,Alice@Example.com,(650) 253-0000,Boston
Bob,,engineer,bob@example.com,650-253-0001,Denver
Alice,Smith,sales,alice@example.com,,Boston
`

func newTestRoot(cmd *cobra.Command) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	root := &cobra.Command{Use: "contactclean", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(cmd)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root, stdout, stderr
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCleanCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.csv", sampleCSV)
	output := filepath.Join(dir, "out.csv")

	root, _, stderr := newTestRoot(newCleanCmd())
	root.SetArgs([]string{"clean", "-i", input, "-o", output})
	require.NoError(t, root.Execute())

	f, err := os.Open(output)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	ds, err := codec.DecodeCSV(f)
	require.NoError(t, err)
	assert.Equal(t, model.EssentialColumns, ds.ColumnNames())
	assert.Equal(t, 1, ds.NumRows())
	assert.Equal(t, "Senior Sales Manager", ds.Cell(model.ColumnTitle, 0).Value)
	assert.Equal(t, "+16502530000", ds.Cell(model.ColumnPhoneNumber, 0).Value)

	assert.Contains(t, stderr.String(), "Rows:    3 -> 1 (2 removed)")
}

func TestCleanCommand_StagesFlagToStdout(t *testing.T) {
	input := writeFile(t, t.TempDir(), "in.csv", sampleCSV)

	root, stdout, stderr := newTestRoot(newCleanCmd())
	root.SetArgs([]string{"clean", "-i", input, "--stages", "trim_whitespace,lowercase_emails"})
	require.NoError(t, root.Execute())

	assert.True(t, strings.HasPrefix(stdout.String(), "First Name,Last Name,Title,Email,Mobile Phone,City\n"))
	assert.Contains(t, stdout.String(), "Alice,Smith,senior sales manager,alice@example.com")
	assert.Contains(t, stderr.String(), "Stages:  trim_whitespace, lowercase_emails")
}

func TestCleanCommand_ProfileAndOverride(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.csv", sampleCSV)
	profilePath := writeFile(t, dir, "p.yaml", "stages: [drop_missing_names]\noutput_format: xlsx\n")

	root, stdout, stderr := newTestRoot(newCleanCmd())
	root.SetArgs([]string{"clean", "-i", input, "--profile", profilePath, "--format", "csv"})
	require.NoError(t, root.Execute())

	assert.Contains(t, stderr.String(), "Stages:  drop_missing_names")
	assert.NotContains(t, stdout.String(), "Bob")
}

func TestCleanCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.csv", sampleCSV)
	empty := writeFile(t, dir, "empty.csv", "")

	tests := []struct {
		name string
		args []string
	}{
		{"missing input flag", []string{"clean"}},
		{"missing file", []string{"clean", "-i", filepath.Join(dir, "nope.csv")}},
		{"empty file", []string{"clean", "-i", empty}},
		{"bad format", []string{"clean", "-i", input, "--format", "pdf"}},
		{"bad region", []string{"clean", "-i", input, "--region", "XX"}},
		{"missing profile", []string{"clean", "-i", input, "--profile", filepath.Join(dir, "nope.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, _, _ := newTestRoot(newCleanCmd())
			root.SetArgs(tt.args)
			assert.Error(t, root.Execute())
		})
	}
}

func TestClassifyCommand(t *testing.T) {
	input := writeFile(t, t.TempDir(), "in.csv", sampleCSV)

	root, stdout, _ := newTestRoot(newClassifyCmd())
	root.SetArgs([]string{"classify", "-i", input})
	require.NoError(t, root.Execute())

	assert.Contains(t, stdout.String(), "phone    Mobile Phone\n")
	assert.Contains(t, stdout.String(), "city     City\n")
	assert.Contains(t, stdout.String(), "country  -\n")
}

func TestStagesCommand(t *testing.T) {
	root, stdout, _ := newTestRoot(newStagesCmd())
	root.SetArgs([]string{"stages"})
	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 9)
	assert.Contains(t, lines[0], "trim_whitespace")
	assert.Contains(t, lines[8], "filter_columns")
}
