// Package console renders workflows, tasks and logs for the terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"apply-agent/internal/domain/entity"

	"github.com/fatih/color"
)

type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Workflow(wf *entity.Workflow) {
	bold := color.New(color.Bold)
	bold.Fprintf(p.out, "Workflow %s\n", wf.ID)

	c := wf.Counters
	fmt.Fprintf(p.out, "  status:     %s\n", workflowColor(wf.Status).Sprint(wf.Status))
	if wf.SearchQuery != "" {
		fmt.Fprintf(p.out, "  query:      %s\n", wf.SearchQuery)
	}
	fmt.Fprintf(p.out, "  jobs:       %d/%d processed\n", c.ProcessedJobs, c.TotalJobs)
	fmt.Fprintf(p.out, "  submitted:  %s\n", color.GreenString("%d", c.SuccessfulApplications))
	fmt.Fprintf(p.out, "  failed:     %s\n", color.RedString("%d", c.FailedApplications))
	fmt.Fprintf(p.out, "  updated:    %s\n", wf.UpdatedAt.Local().Format(time.DateTime))
}

func (p *Printer) Tasks(tasks []*entity.Task) {
	if len(tasks) == 0 {
		color.New(color.Faint).Fprintln(p.out, "no tasks")
		return
	}

	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tSTATUS\tRETRY\tURL\tMESSAGE")
	for _, t := range tasks {
		msg := ""
		if t.Result != nil {
			msg = t.Result.Message
			if t.Result.Error != "" {
				msg += ": " + t.Result.Error
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n",
			t.Type, taskColor(t.Status).Sprint(t.Status), t.CurrentRetry, t.MaxRetries,
			t.JobURL, truncate(msg, 80))
	}
	tw.Flush()
}

func (p *Printer) Logs(logs []entity.LogEntry) {
	for _, l := range logs {
		fmt.Fprintf(p.out, "%s %s %-14s %s\n",
			l.Timestamp.Local().Format(time.TimeOnly),
			levelColor(l.Level).Sprintf("%-5s", strings.ToUpper(string(l.Level))),
			l.AgentType, l.Message)
	}
}

func workflowColor(s entity.WorkflowStatus) *color.Color {
	switch s {
	case entity.WorkflowStatusCompleted:
		return color.New(color.FgGreen, color.Bold)
	case entity.WorkflowStatusFailed:
		return color.New(color.FgRed, color.Bold)
	case entity.WorkflowStatusCancelled:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func taskColor(s entity.TaskStatus) *color.Color {
	switch s {
	case entity.TaskStatusCompleted:
		return color.New(color.FgGreen)
	case entity.TaskStatusFailed:
		return color.New(color.FgRed)
	case entity.TaskStatusCancelled:
		return color.New(color.FgYellow)
	case entity.TaskStatusInProgress, entity.TaskStatusAssigned:
		return color.New(color.FgCyan)
	default:
		return color.New(color.Faint)
	}
}

func levelColor(l entity.LogLevel) *color.Color {
	switch l {
	case entity.LogLevelError:
		return color.New(color.FgRed, color.Bold)
	case entity.LogLevelWarn:
		return color.New(color.FgYellow)
	case entity.LogLevelDebug:
		return color.New(color.Faint)
	default:
		return color.New(color.FgBlue)
	}
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
