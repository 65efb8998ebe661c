package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/uyouii/cycle-life-analysis/batch"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
)

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

func statusString(status common.Status) string {
	switch status {
	case common.StatusOK:
		return color.GreenString(string(status))
	case common.StatusInsufficientData:
		return color.YellowString(string(status))
	}
	return color.RedString(string(status))
}

// PrintSummary prints the outcome counts of a run followed by the failed files.
func PrintSummary(w io.Writer, summary *batch.Summary, rows []*model.ResultRow) {
	fmt.Fprintf(w, "%s %d files\n", bold("Analyzed"), summary.Total)
	for _, status := range common.AllStatuses {
		fmt.Fprintf(w, "  %-20s %d\n", statusString(status), summary.ByStatus[status])
	}

	if summary.Failed() == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", bold("Failure kinds"))
	for _, reason := range summary.Reasons() {
		fmt.Fprintf(w, "  %-26s %d\n", reason, summary.ByReason[reason])
	}
	fmt.Fprintf(w, "%s\n", bold("Failed files"))
	for _, row := range rows {
		if row.IsOK() {
			continue
		}
		fmt.Fprintf(w, "  %s  %s (%s)\n", row.FileIdentifier, statusString(row.Status), row.Reason)
	}
}
