package source

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"flarewatch/internal/flaring"
	"flarewatch/pkg/errors"
)

const dateLayout = "2006-01-02"

// ReportColumns is the header of a ranked report.
var ReportColumns = append(append([]string{
	"rank",
	flaring.ColumnWellID,
	flaring.ColumnAPINo,
	flaring.ColumnPool,
	flaring.ColumnGracePeriodEnd,
	flaring.ColumnFlaredAfterGrace,
}, flaring.MeasureColumns...),
	flaring.ColumnSpudDate,
	"anchored_at_collection_start",
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// ReportRow flattens a ranked result in ReportColumns order.
func ReportRow(r flaring.RankedResult) []string {
	row := []string{
		strconv.Itoa(r.Rank),
		strconv.FormatInt(r.Key.WellID, 10),
		strconv.FormatInt(r.Key.APINo, 10),
		r.Key.Pool,
		formatDate(r.GracePeriodEnd),
		r.FlaredAfterGrace.String(),
	}
	for _, f := range r.Fields() {
		row = append(row, f.Value)
	}
	spud := ""
	if r.SpudDate != nil {
		spud = formatDate(*r.SpudDate)
	}
	return append(row, spud, strconv.FormatBool(r.AnchoredAtCollectionStart))
}

// WriteReportCSV writes ranked results as CSV.
func WriteReportCSV(w io.Writer, results []flaring.RankedResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportColumns); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "cannot write report header")
	}
	for _, r := range results {
		if err := cw.Write(ReportRow(r)); err != nil {
			return errors.Wrap(err, errors.ErrCodeFileOperation, "cannot write report row")
		}
	}
	cw.Flush()
	return cw.Error()
}

type reportRecord struct {
	Rank                      int            `json:"rank"`
	FileNo                    int64          `json:"file_no"`
	APINo                     int64          `json:"api_no"`
	Pool                      string         `json:"pool"`
	GracePeriodEnd            string         `json:"grace_period_end,omitempty"`
	FlaredAfterGrace          flaring.Volume `json:"mcf_flared_after_grace_period"`
	DaysProduced              int64          `json:"days_produced"`
	GasVolume                 flaring.Volume `json:"mcf_gas"`
	GasSold                   flaring.Volume `json:"mcf_sold"`
	GasFlared                 flaring.Volume `json:"mcf_flared"`
	SpudDate                  string         `json:"spud_date,omitempty"`
	AnchoredAtCollectionStart bool           `json:"anchored_at_collection_start"`
}

// WriteReportJSON writes ranked results as an indented JSON array.
func WriteReportJSON(w io.Writer, results []flaring.RankedResult) error {
	records := make([]reportRecord, len(results))
	for i, r := range results {
		rec := reportRecord{
			Rank:                      r.Rank,
			FileNo:                    r.Key.WellID,
			APINo:                     r.Key.APINo,
			Pool:                      r.Key.Pool,
			GracePeriodEnd:            formatDate(r.GracePeriodEnd),
			FlaredAfterGrace:          r.FlaredAfterGrace,
			DaysProduced:              r.DaysProduced,
			GasVolume:                 r.GasVolume,
			GasSold:                   r.GasSold,
			GasFlared:                 r.GasFlared,
			AnchoredAtCollectionStart: r.AnchoredAtCollectionStart,
		}
		if r.SpudDate != nil {
			rec.SpudDate = formatDate(*r.SpudDate)
		}
		records[i] = rec
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "cannot write json report")
	}
	return nil
}
