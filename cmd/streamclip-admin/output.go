package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/clipsyelt-svg/Project/internal/domain/model"
	"github.com/clipsyelt-svg/Project/internal/migrate"
)

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func printJob(w io.Writer, job *model.Job) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", job.ID},
		{"URL", job.URL},
		{"Status", string(job.Status)},
		{"Created", formatTime(&job.CreatedAt)},
		{"Finished", formatTime(job.FinishedAt)},
	}
	for _, r := range rows {
		if err := writef(tw, "%s:\t%s\n", r[0], r[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printJobs(w io.Writer, jobs []*model.Job) error {
	if len(jobs) == 0 {
		return writef(w, "no jobs\n")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ID\tSTATUS\tCREATED\tFINISHED\tURL\n"); err != nil {
		return err
	}
	for _, j := range jobs {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			j.ID, j.Status, formatTime(&j.CreatedAt), formatTime(j.FinishedAt), j.URL); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printClips(w io.Writer, clips []*model.Clip) error {
	if len(clips) == 0 {
		return writef(w, "\nno clips\n")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "\nIDX\tPATH\tHOOK\n"); err != nil {
		return err
	}
	for _, c := range clips {
		hook := "-"
		if c.Hook != nil {
			hook = *c.Hook
		}
		if err := writef(tw, "%d\t%s\t%s\n", c.Idx, c.Path, hook); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printMigrations(w io.Writer, migrations []migrate.Migration) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "VERSION\tAPPLIED\n"); err != nil {
		return err
	}
	for _, m := range migrations {
		if err := writef(tw, "%s\t%s\n", m.Version, formatTime(m.AppliedAt)); err != nil {
			return err
		}
	}
	return tw.Flush()
}
