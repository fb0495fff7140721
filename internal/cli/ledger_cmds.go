package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"rotabot/internal/app"
	"rotabot/internal/calendar"
	"rotabot/internal/rota"
)

func parseDates(raw ...string) ([]calendar.Date, error) {
	out := make([]calendar.Date, 0, len(raw))
	for _, s := range raw {
		d, err := calendar.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "reset [--from YYYY-MM-DD]",
		Short: "Drop the ledger and generate a fresh schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var start calendar.Date
			if from != "" {
				ds, err := parseDates(from)
				if err != nil {
					return err
				}
				start = ds[0]
			}
			return withLocal(opts, func(l *app.Local) error {
				res, err := l.Engine.Reset(cmd.Context(), start)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reset from %s: %d day(s), %d people, %d tasks, %d assignments\n",
					res.Start, res.Days, res.Counts.People, res.Counts.Tasks, res.Counts.Assignments)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day of the new schedule (default today)")
	return cmd
}

func newTopUpCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "topup",
		Aliases: []string{"update"},
		Short:   "Drop past days and extend the schedule to the full window",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLocal(opts, func(l *app.Local) error {
				res, err := l.Engine.TopUp(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if res.Full() {
					fmt.Fprintf(out, "window full: %d day(s) populated, %d expired row(s) removed\n", res.Populated, res.Deleted)
					return nil
				}
				fmt.Fprintf(out, "added %d day(s) from %s (%d rows), %d expired row(s) removed\n",
					res.Days, res.Start, res.Inserted, res.Deleted)
				return nil
			})
		},
	}
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the coming days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLocal(opts, func(l *app.Local) error {
				s, err := l.Engine.Schedule(cmd.Context(), days)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), s.Render())
				return err
			})
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", rota.DefaultScheduleDays, "number of days to show")
	return cmd
}

func newSwapCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "swap TASK YYYY-MM-DD YYYY-MM-DD",
		Short: "Exchange the people assigned to a task on two dates",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := parseDates(args[1], args[2])
			if err != nil {
				return err
			}
			return withLocal(opts, func(l *app.Local) error {
				if err := l.Engine.Swap(cmd.Context(), args[0], ds[0], ds[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "swapped %s on %s and %s\n", args[0], ds[0], ds[1])
				return nil
			})
		},
	}
}

func newSkipCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "skip TASK YYYY-MM-DD",
		Short: "Skip a turn and shift later turns of the task by one day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := parseDates(args[1])
			if err != nil {
				return err
			}
			return withLocal(opts, func(l *app.Local) error {
				if err := l.Engine.Skip(cmd.Context(), args[0], ds[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "skipped %s on %s\n", args[0], ds[0])
				return nil
			})
		},
	}
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config and roster without touching the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := app.CheckConfig(cmd.Context(), opts.ConfigPath)
			if err != nil {
				if errors.Is(err, rota.ErrConfiguration) {
					return fmt.Errorf("roster: %w", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d task(s), %d day window\n", len(r.Tasks), r.Days)
			return nil
		},
	}
}
