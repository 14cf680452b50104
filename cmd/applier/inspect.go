package main

import (
	"context"
	"fmt"

	"apply-agent/internal/adapter/console"
	"apply-agent/internal/domain/entity"

	"github.com/spf13/cobra"
)

var logsLimit int

type workflowLister interface {
	ListWorkflows(ctx context.Context, limit int) ([]*entity.Workflow, error)
}

var statusCmd = &cobra.Command{
	Use:   "status [workflow-id]",
	Short: "Show a workflow's counters, or the most recent workflows",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		printer := console.NewPrinter(cmd.OutOrStdout())

		if len(args) == 1 {
			wf, err := st.GetWorkflow(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printer.Workflow(wf)
			return nil
		}

		lister, ok := st.(workflowLister)
		if !ok {
			return fmt.Errorf("store does not list workflows; pass a workflow id")
		}
		wfs, err := lister.ListWorkflows(cmd.Context(), 10)
		if err != nil {
			return err
		}
		for _, wf := range wfs {
			printer.Workflow(wf)
		}
		return nil
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks <workflow-id>",
	Short: "List a workflow's tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		tasks, err := st.ListTasks(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		console.NewPrinter(cmd.OutOrStdout()).Tasks(tasks)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs <workflow-id>",
	Short: "Print a workflow's diagnostic trail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		logs, err := st.ListLogs(cmd.Context(), args[0], logsLimit)
		if err != nil {
			return err
		}
		console.NewPrinter(cmd.OutOrStdout()).Logs(logs)
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVar(&logsLimit, "limit", 200, "Max lines, newest kept")
	rootCmd.AddCommand(statusCmd, tasksCmd, logsCmd)
}
