package main

import (
	"fmt"

	"apply-agent/internal/infrastructure/config"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the candidate profile file",
}

var profileInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := profilePathArg(args)
		if err := config.WriteExampleProfile(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var profileCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Validate a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.LoadProfile(profilePathArg(args))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %s <%s>\n", p.FullName(), p.Email)
		return nil
	},
}

func profilePathArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return config.DefaultProfilePath
}

func init() {
	profileCmd.AddCommand(profileInitCmd, profileCheckCmd)
	rootCmd.AddCommand(profileCmd)
}
