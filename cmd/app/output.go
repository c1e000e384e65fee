package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/atvirokodosprendimai/maintlog/internal/domain"
)

const maxContentWidth = 60

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printTable(out io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(out, "no results")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatMaybe(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func formatDate(d *domain.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

// oneLine flattens whitespace so multi-line content keeps the table aligned.
func oneLine(v *string) string {
	s := strings.Join(strings.Fields(formatMaybe(v)), " ")
	if r := []rune(s); len(r) > maxContentWidth {
		return string(r[:maxContentWidth-3]) + "..."
	}
	return s
}

func printRecords(out io.Writer, items []domain.Record) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			formatDate(item.Date),
			formatMaybe(item.Category),
			formatMaybe(item.ModelName),
			formatMaybe(item.SerialNumber),
			oneLine(item.Content),
		})
	}
	printTable(out, []string{"ID", "DATE", "CATEGORY", "MODEL", "SERIAL", "CONTENT"}, rows)
}

// confirm reads a y/N answer; anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
