package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/javajack/sheetlock"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

type issueView struct {
	Severity string `json:"severity" yaml:"severity"`
	Cell     string `json:"cell" yaml:"cell"`
	Message  string `json:"message" yaml:"message"`
}

func printReport(w io.Writer, report *sheetlock.Report, format string) error {
	switch format {
	case "json":
		return writeJSON(w, report)
	case "yaml":
		return writeYAML(w, report)
	case "table", "":
	default:
		return fmt.Errorf("invalid format: %s (must be table, json, or yaml)", format)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Sheet", "Status", "Used Range", "Rows", "Flushes", "Threshold", "Locked")
	for _, s := range report.Sheets {
		table.Append(
			s.Name,
			string(s.Status),
			s.UsedRange,
			fmt.Sprintf("%d", s.Stats.Rows),
			fmt.Sprintf("%d", s.Stats.Flushes),
			fmt.Sprintf("%d", s.Stats.ThresholdFlushes),
			fmt.Sprintf("%d", s.Stats.LockedCells),
		)
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d processed, %d empty, %d password protected, %d filtered, %d cell(s) locked\n",
		report.Count(sheetlock.StatusProcessed),
		report.Count(sheetlock.StatusEmpty),
		report.Count(sheetlock.StatusPasswordProtected),
		report.Count(sheetlock.StatusFiltered),
		report.LockedCells())
	return nil
}

func printIssues(w io.Writer, issues []sheetlock.Issue, format string) error {
	views := make([]issueView, 0, len(issues))
	for _, i := range issues {
		views = append(views, issueView{
			Severity: i.Severity.String(),
			Cell:     i.CellRef.String(),
			Message:  i.Message,
		})
	}

	switch format {
	case "json":
		return writeJSON(w, views)
	case "yaml":
		return writeYAML(w, views)
	case "table", "":
	default:
		return fmt.Errorf("invalid format: %s (must be table, json, or yaml)", format)
	}

	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Severity", "Cell", "Message")
	for _, v := range views {
		table.Append(v.Severity, v.Cell, v.Message)
	}
	return table.Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
