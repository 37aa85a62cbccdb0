package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"contactcleaner/internal/contacts/pipeline"
)

func newStagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List cleaning stages in execution order",
		Run: func(cmd *cobra.Command, args []string) {
			for _, st := range pipeline.Stages() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-24s %s\n", st.ID, st.Description)
			}
		},
	}
}
