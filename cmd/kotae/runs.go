package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/storage"
)

var errHistoryDisabled = errors.New("run history is disabled (set storage.database_path)")

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the history of answered questions",
	}
	cmd.AddCommand(newRunsListCmd(a), newRunsShowCmd(a), newRunsDeleteCmd(a))
	return cmd
}

// withHistory opens the history database for the duration of fn.
func withHistory(a *app, fn func(storage.Storage) error) error {
	st, err := openStorage(a.cfg)
	if err != nil {
		return err
	}
	if st == nil {
		return errHistoryDisabled
	}
	defer st.Close()
	return fn(st)
}

func newRunsListCmd(a *app) *cobra.Command {
	var offset, limit int
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			if limit < 1 || limit > 100 {
				return fmt.Errorf("limit must be between 1 and 100")
			}
			return withHistory(a, func(st storage.Storage) error {
				runs, err := st.ListRuns(cmd.Context(), offset, limit)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				return cli.WriteRuns(cmd.OutOrStdout(), runs, format)
			})
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list (1-100)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func newRunsShowCmd(a *app) *cobra.Command {
	var output string
	var showContext bool
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run with its answer and sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			return withHistory(a, func(st storage.Storage) error {
				run, err := st.GetRun(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("get run %s: %w", args[0], err)
				}
				return cli.WriteRun(cmd.OutOrStdout(), run, format, showContext)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	cmd.Flags().BoolVar(&showContext, "context", true, "print the retrieved passages")
	return cmd
}

func newRunsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(a, func(st storage.Storage) error {
				if err := st.DeleteRun(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("delete run %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Run deleted: %s\n", args[0])
				return nil
			})
		},
	}
}
