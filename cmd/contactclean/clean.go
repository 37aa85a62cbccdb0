package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"contactcleaner/internal/contacts/codec"
	"contactcleaner/internal/contacts/pipeline"
	"contactcleaner/internal/contacts/profile"
	"contactcleaner/pkg/model"
	"contactcleaner/pkg/sanitizer"
)

type cleanOptions struct {
	input       string
	output      string
	stages      []string
	region      string
	format      string
	profilePath string
}

func newCleanCmd() *cobra.Command {
	opts := &cleanOptions{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean a contacts CSV file",
		Long: `Clean reads a contacts CSV file, applies the selected stages in canonical
order and writes the result as CSV or XLSX. Without --stages or a profile
every stage runs. The cleaning report is printed to stderr.`,
		Example: `  contactclean clean -i contacts.csv -o cleaned.csv
  contactclean clean -i contacts.csv -o cleaned.xlsx --format xlsx --stages trim_whitespace,filter_columns
  contactclean clean -i contacts.csv --profile crm.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input CSV file (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().StringSliceVar(&opts.stages, "stages", nil, "comma-separated stage ids to apply")
	cmd.Flags().StringVar(&opts.region, "region", sanitizer.DefaultRegion, "default phone region")
	cmd.Flags().StringVar(&opts.format, "format", string(codec.FormatCSV), "output format (csv, xlsx)")
	cmd.Flags().StringVar(&opts.profilePath, "profile", "", "YAML cleaning profile")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// resolve merges the profile under explicitly set flags.
func (o *cleanOptions) resolve(cmd *cobra.Command) (*profile.Profile, error) {
	p := &profile.Profile{}
	if o.profilePath != "" {
		loaded, err := profile.Load(o.profilePath)
		if err != nil {
			return nil, err
		}
		p = loaded
	}

	if cmd.Flags().Changed("stages") {
		p.Stages = o.stages
	}
	if cmd.Flags().Changed("region") || p.Region == "" {
		p.Region = o.region
	}
	if cmd.Flags().Changed("format") || p.OutputFormat == "" {
		p.OutputFormat = o.format
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func runClean(cmd *cobra.Command, opts *cleanOptions) error {
	p, err := opts.resolve(cmd)
	if err != nil {
		return err
	}
	format, err := codec.ParseFormat(p.OutputFormat)
	if err != nil {
		return err
	}

	ds, err := readDataset(opts.input)
	if err != nil {
		return err
	}

	log := newLogger(cmd)
	runOpts := pipeline.DefaultOptions()
	runOpts.Region = strings.ToUpper(p.Region)

	cleaned, report, err := pipeline.NewRunner(runOpts, log).Run(ds, p.StageIDs())
	if err != nil {
		return err
	}

	if err := writeDataset(cmd.OutOrStdout(), opts.output, cleaned, format); err != nil {
		return err
	}

	printReport(cmd.ErrOrStderr(), report)
	return nil
}

func readDataset(path string) (*model.Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided input path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	ds, err := codec.DecodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ds, nil
}

func writeDataset(stdout io.Writer, path string, ds *model.Dataset, format codec.Format) error {
	if path == "" || path == "-" {
		return codec.Encode(stdout, ds, format)
	}

	f, err := os.Create(path) //nolint:gosec // user-provided output path
	if err != nil {
		return err
	}
	if err := codec.Encode(f, ds, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printReport(w io.Writer, report model.CleaningReport) {
	applied := make([]string, len(report.Applied))
	for i, id := range report.Applied {
		applied[i] = string(id)
	}

	fmt.Fprintf(w, "Rows:    %d -> %d (%d removed)\n", report.RowsBefore, report.RowsAfter, report.RowsRemoved())
	fmt.Fprintf(w, "Columns: %d -> %d\n", report.ColumnsBefore, report.ColumnsAfter)
	fmt.Fprintf(w, "Stages:  %s\n", strings.Join(applied, ", "))
}
