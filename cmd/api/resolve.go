package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/Egham-7/consizen-proxy/internal/services/policy"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var task, complexity string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the candidate models for a task and complexity",
		Long: `Resolves the configured model policy the same way the proxy does for a
request, without calling any upstream model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			table, err := policy.NewTable(cfg.Policy)
			if err != nil {
				return fmt.Errorf("invalid model policy: %w", err)
			}

			normalizedTask := policy.NormalizeTask(task)
			level := policy.ParseComplexity(complexity)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "task=%s complexity=%s\n", normalizedTask, level)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tROLE\tPROVIDER\tMODEL")
			for i, c := range table.Candidates(normalizedTask, level) {
				role := "primary"
				if c.Fallback {
					role = "fallback"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, role, c.Provider, c.Model)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&task, "task", "t", "", "request task (default general)")
	cmd.Flags().StringVar(&complexity, "complexity", "", "model complexity hint: low, medium or high")
	return cmd
}
