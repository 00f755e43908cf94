package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// entityTable renders one listing with rounded borders. numeric names the
// zero-based columns holding counts or sizes; those are right-aligned.
func entityTable(headers []string, rows [][]string, numeric ...int) string {
	if len(headers) == 0 {
		return ""
	}

	right := map[int]bool{}
	for _, col := range numeric {
		right[col] = true
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	head := make(table.Row, 0, len(headers))
	for _, h := range headers {
		head = append(head, h)
	}
	tw.AppendHeader(head)

	for _, cells := range rows {
		row := make(table.Row, len(headers))
		for i := range row {
			row[i] = ""
		}
		for i, cell := range cells {
			if i < len(row) {
				row[i] = cell
			}
		}
		tw.AppendRow(row)
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range configs {
		align := text.AlignLeft
		if right[i] {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
