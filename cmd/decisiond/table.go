package main

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/narwhalmedia/decisionengine/internal/infrastructure/report"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderEntries(entries []report.Entry) string {
	headers := []string{"#", "Release", "Quality", "Protocol", "Size", "Outcome", "Reasons"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}

	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		size := ""
		if e.Size > 0 {
			size = humanize.IBytes(uint64(e.Size))
		}
		rows = append(rows, []string{
			humanize.Comma(int64(i + 1)),
			e.Title,
			e.Quality,
			e.Protocol,
			size,
			e.Outcome,
			strings.Join(e.Rejection, "; "),
		})
	}
	return renderTable(headers, rows, aligns)
}

// reportEntries flattens a report in outcome order.
func reportEntries(r *report.Report) []report.Entry {
	entries := make([]report.Entry, 0, r.Total())
	entries = append(entries, r.Grabbed...)
	entries = append(entries, r.Pending...)
	entries = append(entries, r.Failed...)
	entries = append(entries, r.Skipped...)
	entries = append(entries, r.Rejected...)
	return entries
}
