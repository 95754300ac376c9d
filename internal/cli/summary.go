package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/forPelevin/podclip/internal/domain/timecode"
	"github.com/forPelevin/podclip/internal/logger"
	"github.com/forPelevin/podclip/internal/usecase"
)

type summaryRow struct {
	ordinal int
	cells   table.Row
}

// renderSummary lists produced and failed clips in ordinal order.
func renderSummary(res usecase.Result, style table.Style) string {
	rows := make([]summaryRow, 0, len(res.Artifacts)+len(res.Failures))
	for _, a := range res.Artifacts {
		rows = append(rows, summaryRow{a.Ordinal, table.Row{
			strconv.Itoa(a.Ordinal),
			a.Name,
			timecode.Format(a.Range.Start) + " - " + timecode.Format(a.Range.End),
			timecode.Format(a.Range.Duration()),
			string(a.Method),
			"ok",
		}})
	}
	for _, f := range res.Failures {
		rows = append(rows, summaryRow{f.Ordinal, table.Row{
			strconv.Itoa(f.Ordinal), f.Name, "", "", "", "failed",
		}})
	}
	if len(rows) == 0 {
		return fmt.Sprintf("no clips produced (%s, %d rejected)", res.Outcome, len(res.Rejected))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ordinal < rows[j].ordinal })

	tw := table.NewWriter()
	tw.SetStyle(style)
	tw.AppendHeader(table.Row{"#", "File", "Range", "Length", "Method", "Status"})
	for _, r := range rows {
		tw.AppendRow(r.cells)
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d clips, %d failed, %d rejected", len(res.Artifacts), len(res.Failures), len(res.Rejected))})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func tableStyle(w io.Writer) table.Style {
	if logger.IsTerminal(w) {
		return table.StyleRounded
	}
	return table.StyleDefault
}
