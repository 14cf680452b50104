package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"apply-agent/internal/adapter/console"
	"apply-agent/internal/di"
	"apply-agent/internal/infrastructure/config"
	"apply-agent/internal/usecase/orchestrator"

	"github.com/spf13/cobra"
)

var (
	runURLs     []string
	runURLsFile string
	runQuery    string
	runUser     string
	runProfile  string
	runHeadful  bool
	runVerbose  bool
)

var runCmd = &cobra.Command{
	Use:   "run [job-url...]",
	Short: "Run one workflow over the given job URLs and wait for it to finish",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := collectURLs(runURLsFile, runURLs, args)
		if err != nil {
			return err
		}
		profile, err := config.LoadProfile(runProfile)
		if err != nil {
			return err
		}

		cfg := containerConfig()
		cfg.Profile = profile
		cfg.LogConsole = cfg.LogConsole || runVerbose
		if runHeadful {
			cfg.BrowserHeadless = false
		}

		c, err := di.NewContainer(cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		wf, runErr := c.Dispatcher.Run(ctx, orchestrator.WorkflowRequest{
			UserID: runUser,
			Query:  runQuery,
			URLs:   urls,
		})
		if wf != nil {
			printer := console.NewPrinter(cmd.OutOrStdout())
			printer.Workflow(wf)
			if tasks, err := c.Store.ListTasks(context.WithoutCancel(ctx), wf.ID); err == nil {
				printer.Tasks(tasks)
			}
		}
		return runErr
	},
}

func init() {
	runCmd.Flags().StringSliceVar(&runURLs, "url", nil, "Job URL (repeatable)")
	runCmd.Flags().StringVar(&runURLsFile, "urls-file", "", "File with one job URL per line")
	runCmd.Flags().StringVar(&runQuery, "query", "", "Search query the URLs came from")
	runCmd.Flags().StringVar(&runUser, "user", "local", "User id recorded on the workflow")
	runCmd.Flags().StringVar(&runProfile, "profile", config.DefaultProfilePath, "Candidate profile YAML")
	runCmd.Flags().BoolVar(&runHeadful, "headful", false, "Show the browser window")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Also log to stderr")
	rootCmd.AddCommand(runCmd)
}
