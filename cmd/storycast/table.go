package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable formats queue listings and count summaries with rounded
// borders. Short rows are padded so every row spans the full header width.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	width := len(headers)
	if width == 0 {
		return ""
	}

	writer := table.NewWriter()
	writer.SetStyle(table.StyleRounded)
	writer.AppendHeader(toTableRow(headers, width))
	for _, row := range rows {
		writer.AppendRow(toTableRow(row, width))
	}

	configs := make([]table.ColumnConfig, width)
	for i := range configs {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
	}
	writer.SetColumnConfigs(configs)

	return writer.Render()
}

func toTableRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	return row
}
