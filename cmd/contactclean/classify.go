package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"contactcleaner/internal/contacts/classifier"
)

func newClassifyCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show which columns are treated as phone or location columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := readDataset(input)
			if err != nil {
				return err
			}

			classification := classifier.Classify(ds.ColumnNames())
			out := cmd.OutOrStdout()
			for _, role := range classifier.Roles {
				columns := classification.Columns(role)
				if len(columns) == 0 {
					fmt.Fprintf(out, "%-8s -\n", role)
					continue
				}
				fmt.Fprintf(out, "%-8s %s\n", role, strings.Join(columns, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input CSV file (required)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
