package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rotabot/internal/calendar"
	"rotabot/internal/rota"
)

const dateHelp = "Invalid date format. Please use YYYY-MM-DD."

var errUsage = errors.New("usage")

func (r *Router) builtins() []*Command {
	return []*Command{
		{
			Name:        "schedule",
			Usage:       "/schedule [days]",
			Description: "Show who does what for the coming days",
			Handle:      r.handleSchedule,
		},
		{
			Name:        "swap",
			Usage:       "/swap <task> <YYYY-MM-DD> <YYYY-MM-DD>",
			Description: "Swap the people assigned to a task on two dates",
			Handle:      r.handleSwap,
		},
		{
			Name:        "skip",
			Usage:       "/skip <task> <YYYY-MM-DD>",
			Description: "Skip a turn and move later turns one day",
			Handle:      r.handleSkip,
		},
		{
			Name:        "update",
			Aliases:     []string{"topup"},
			Usage:       "/update",
			Description: "Extend the schedule to the full window",
			Handle:      r.handleTopUp,
		},
		{
			Name:        "reset",
			Usage:       "/reset [YYYY-MM-DD]",
			Description: "Rebuild the schedule from a date (default today)",
			Handle:      r.handleReset,
		},
		{
			Name:        "help",
			Aliases:     []string{"start"},
			Usage:       "/help",
			Description: "List commands",
			Handle:      r.handleHelp,
		},
	}
}

func (r *Router) usage(ctx context.Context, req *Request) error {
	c := r.commands[req.Command]
	_ = r.reply(ctx, req, "Usage: "+c.Usage)
	return errUsage
}

// parseDates parses every arg as YYYY-MM-DD and replies on the first failure.
func (r *Router) parseDates(ctx context.Context, req *Request, raw ...string) ([]calendar.Date, error) {
	out := make([]calendar.Date, 0, len(raw))
	for _, s := range raw {
		d, err := calendar.Parse(s)
		if err != nil {
			_ = r.reply(ctx, req, dateHelp)
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *Router) handleSchedule(ctx context.Context, req *Request) error {
	days := rota.DefaultScheduleDays
	if len(req.Args) > 0 {
		n, err := strconv.Atoi(req.Args[0])
		if err != nil || n < 1 || n > 62 {
			return r.usage(ctx, req)
		}
		days = n
	}
	s, err := r.engine.Schedule(ctx, days)
	if err != nil {
		_ = r.reply(ctx, req, rota.Describe(err))
		return err
	}
	return r.reply(ctx, req, s.Render())
}

func (r *Router) handleSwap(ctx context.Context, req *Request) error {
	if len(req.Args) != 3 {
		return r.usage(ctx, req)
	}
	task := req.Args[0]
	ds, err := r.parseDates(ctx, req, req.Args[1], req.Args[2])
	if err != nil {
		return err
	}
	if err := r.engine.Swap(ctx, task, ds[0], ds[1]); err != nil {
		_ = r.reply(ctx, req, fmt.Sprintf(
			"Failed to swap assignments for task '%s' on %s and %s. Please check the task name and dates.\n%s",
			task, ds[0], ds[1], rota.Describe(err)))
		return err
	}
	return r.reply(ctx, req, fmt.Sprintf(
		"Successfully swapped assignments for task '%s' on %s and %s.", task, ds[0], ds[1]))
}

func (r *Router) handleSkip(ctx context.Context, req *Request) error {
	if len(req.Args) != 2 {
		return r.usage(ctx, req)
	}
	task := req.Args[0]
	ds, err := r.parseDates(ctx, req, req.Args[1])
	if err != nil {
		return err
	}
	if err := r.engine.Skip(ctx, task, ds[0]); err != nil {
		_ = r.reply(ctx, req, fmt.Sprintf(
			"Failed to skip assignment for task '%s' on %s. Please check the task name and date.\n%s",
			task, ds[0], rota.Describe(err)))
		return err
	}
	return r.reply(ctx, req, fmt.Sprintf("Successfully skipped assignment for task '%s' on %s.", task, ds[0]))
}

func (r *Router) handleTopUp(ctx context.Context, req *Request) error {
	res, err := r.engine.TopUp(ctx)
	if err != nil {
		_ = r.reply(ctx, req, "An error occurred while updating: "+rota.Describe(err))
		return err
	}
	if res.Full() {
		return r.reply(ctx, req, fmt.Sprintf("Schedule already covers %d day(s); nothing to add.", res.Populated))
	}
	return r.reply(ctx, req, fmt.Sprintf(
		"Assignments updated successfully: %d day(s) added from %s.", res.Days, res.Start))
}

func (r *Router) handleReset(ctx context.Context, req *Request) error {
	if len(req.Args) > 1 {
		return r.usage(ctx, req)
	}
	var start calendar.Date
	if len(req.Args) == 1 {
		ds, err := r.parseDates(ctx, req, req.Args[0])
		if err != nil {
			return err
		}
		start = ds[0]
	}
	res, err := r.engine.Reset(ctx, start)
	if err != nil {
		_ = r.reply(ctx, req, "Schedule reset failed. "+rota.Describe(err))
		return err
	}
	from := "today"
	if !start.IsZero() {
		from = start.String()
	}
	return r.reply(ctx, req, fmt.Sprintf(
		"Schedule reset and repopulated starting from %s (%d people, %d tasks, %d assignments).",
		from, res.Counts.People, res.Counts.Tasks, res.Counts.Assignments))
}

func (r *Router) handleHelp(ctx context.Context, req *Request) error {
	var b strings.Builder
	b.WriteString("Commands (prefix / or !):\n")
	for _, c := range r.ordered {
		b.WriteString(c.Usage + " - " + c.Description + "\n")
	}
	b.WriteString("Any message mentioning \"schedule\" shows the next 7 days.")
	return r.reply(ctx, req, b.String())
}
