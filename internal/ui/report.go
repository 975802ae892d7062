package ui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"flarewatch/internal/flaring"
)

const dateLayout = "2006-01-02"

// RankingTable writes ranked results as an aligned terminal table. Rows
// whose first record is the first month of the dataset are marked with an
// asterisk, since their true first production may be earlier.
func RankingTable(w io.Writer, results []flaring.RankedResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Well", "API No", "Pool", "Grace End", "Flared After Grace", "Total Flared", "Spud Date"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})

	anchored := 0
	for _, r := range results {
		well := strconv.FormatInt(r.Key.WellID, 10)
		if r.AnchoredAtCollectionStart {
			well += "*"
			anchored++
		}
		graceEnd := "-"
		if !r.GracePeriodEnd.IsZero() {
			graceEnd = r.GracePeriodEnd.Format(dateLayout)
		}
		spud := "-"
		if r.SpudDate != nil {
			spud = r.SpudDate.Format(dateLayout)
		}
		table.Append([]string{
			strconv.Itoa(r.Rank),
			well,
			strconv.FormatInt(r.Key.APINo, 10),
			r.Key.Pool,
			graceEnd,
			r.FlaredAfterGrace.String(),
			r.GasFlared.String(),
			spud,
		})
	}
	table.Render()

	if anchored > 0 {
		note := color.New(color.FgYellow)
		_, _ = note.Fprintf(w, "\n* %d well(s) first reported in the earliest month collected; their grace period may have ended sooner.\n", anchored)
	}
}

// Summary writes a short description of an analysis run.
func Summary(w io.Writer, report *flaring.Report, shown int) {
	KeyValues(w,
		Pair{"Records", strconv.Itoa(report.Records)},
		Pair{"Production streams", strconv.Itoa(report.Groups)},
		Pair{"Streams flaring after grace", strconv.Itoa(len(report.PostGrace))},
		Pair{"Merge key", string(report.MergeKey)},
		Pair{"Dataset starts", report.DatasetStart.Format(dateLayout)},
		Pair{"Shown", fmt.Sprintf("%d of %d", shown, len(report.Results))},
	)
}
