package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/homelistingai/outreach/internal/sequences"
)

const tablePadding = 2

func writeTable(out io.Writer, headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(out, 0, 0, tablePadding, ' ', 0)
	if len(headers) > 0 {
		fmt.Fprintln(writer, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(writer, strings.Join(row, "\t"))
	}
	return writer.Flush()
}

func formatActive(active bool) string {
	if active {
		return "yes"
	}
	return "no"
}

func formatDelay(delay sequences.Delay) string {
	if delay.Value == 0 {
		return "no delay"
	}
	return fmt.Sprintf("%d %s", delay.Value, delay.Unit)
}
