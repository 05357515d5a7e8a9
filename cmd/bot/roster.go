package main

import (
	"fmt"
	"os"

	"github.com/diegoclair/support-roster-bot/internal/domain"
	slackcmd "github.com/diegoclair/support-roster-bot/internal/domain/slack"
	"github.com/diegoclair/support-roster-bot/internal/rosterfile"
	"github.com/spf13/cobra"
)

func newRosterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Inspect or move roster data without Slack",
	}

	cmd.AddCommand(
		newRosterImportCmd(opts),
		newRosterExportCmd(opts),
		newRosterShowCmd(opts),
	)
	return cmd
}

func newRosterImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the rosters of the teams found in a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			state, err := rosterfile.Parse(f, a.registry)
			if err != nil {
				return err
			}

			if err := a.services.Rotation.Import(cmd.Context(), state); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d team(s) from %s\n", len(state), args[0])
			return nil
		},
	}
}

func newRosterExportCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every roster as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.services.Rotation.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			return rosterfile.Write(w, state, a.registry.Teams())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func newRosterShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [team|all]",
		Short: "Print rosters marking the member the next announcement picks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			selector := domain.AllTeams
			if len(args) == 1 {
				selector = args[0]
			}

			rosters, err := a.services.Rotation.Roster(cmd.Context(), selector)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), a.messages.Roster(rosters, slackcmd.MarkNext))
			return nil
		},
	}
}
