package flaring

import (
	"fmt"
	"time"
)

// Output column names.
const (
	ColumnWellID           = "file_no"
	ColumnAPINo            = "api_no"
	ColumnPool             = "pool"
	ColumnDate             = "date"
	ColumnDaysProduced     = "days_produced"
	ColumnGasVolume        = "mcf_gas"
	ColumnGasSold          = "mcf_sold"
	ColumnGasFlared        = "mcf_flared"
	ColumnSpudDate         = "spud_date"
	ColumnGracePeriodEnd   = "grace_period_end"
	ColumnFlaredAfterGrace = "mcf_flared_after_grace_period"
)

// MeasureColumns lists the summed measures in output order.
var MeasureColumns = []string{ColumnDaysProduced, ColumnGasVolume, ColumnGasSold, ColumnGasFlared}

// ProductionRecord is one monthly filing for a well/pool.
type ProductionRecord struct {
	WellID       int64
	APINo        int64
	Pool         string
	Date         time.Time
	DaysProduced int64
	GasVolume    Volume
	GasSold      Volume
	GasFlared    Volume
}

// Key returns the record's production stream.
func (r ProductionRecord) Key() GroupKey {
	return GroupKey{WellID: r.WellID, APINo: r.APINo, Pool: r.Pool}
}

// WellRecord is one row of the well index.
type WellRecord struct {
	WellID   int64
	SpudDate *time.Time
}

// GroupKey identifies a single well/pool production stream.
type GroupKey struct {
	WellID int64
	APINo  int64
	Pool   string
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%d/%d/%s", k.WellID, k.APINo, k.Pool)
}

// Less orders keys by well, then API number, then pool.
func (k GroupKey) Less(o GroupKey) bool {
	if k.WellID != o.WellID {
		return k.WellID < o.WellID
	}
	if k.APINo != o.APINo {
		return k.APINo < o.APINo
	}
	return k.Pool < o.Pool
}

// GracePeriodEntry is the derived cutoff for one group.
type GracePeriodEntry struct {
	Key             GroupKey
	FirstProduction time.Time
	GracePeriodEnd  time.Time
}

// AugmentedRecord is a production record carrying its group's cutoff.
type AugmentedRecord struct {
	ProductionRecord
	GracePeriodEnd time.Time
}

// AfterGrace reports whether the record is strictly past the cutoff.
// A record dated exactly on the cutoff is still within the grace period.
func (a AugmentedRecord) AfterGrace() bool {
	return a.Date.After(a.GracePeriodEnd)
}

// Measures holds the summed numeric columns of a group.
type Measures struct {
	DaysProduced int64
	GasVolume    Volume
	GasSold      Volume
	GasFlared    Volume
}

// Add returns m with r's measures added.
func (m Measures) Add(r ProductionRecord) Measures {
	return Measures{
		DaysProduced: m.DaysProduced + r.DaysProduced,
		GasVolume:    m.GasVolume.Add(r.GasVolume),
		GasSold:      m.GasSold.Add(r.GasSold),
		GasFlared:    m.GasFlared.Add(r.GasFlared),
	}
}

// Field is a named output value.
type Field struct {
	Name  string
	Value string
}

// Fields returns the measures flat, named after their source columns.
func (m Measures) Fields() []Field {
	return []Field{
		{Name: ColumnDaysProduced, Value: fmt.Sprint(m.DaysProduced)},
		{Name: ColumnGasVolume, Value: m.GasVolume.String()},
		{Name: ColumnGasSold, Value: m.GasSold.String()},
		{Name: ColumnGasFlared, Value: m.GasFlared.String()},
	}
}

// PostGraceAggregate is the flared volume of one group after its cutoff.
type PostGraceAggregate struct {
	Key              GroupKey
	GracePeriodEnd   time.Time
	FlaredAfterGrace Volume
	Records          int
}

// FullHistoryAggregate is every measure of one group summed over all records.
type FullHistoryAggregate struct {
	Key             GroupKey
	FirstProduction time.Time
	Records         int
	Measures
}

// RankedResult is a full-history row joined with its post-grace volume.
type RankedResult struct {
	Rank int
	Key  GroupKey
	// HasPostGrace is false when no record of the joined well (or group)
	// falls after the cutoff; FlaredAfterGrace is then zero.
	// GracePeriodEnd is the row's own cutoff and is unset unless the row's
	// own group has records after it.
	HasPostGrace     bool
	GracePeriodEnd   time.Time
	FlaredAfterGrace Volume
	Measures
	FirstProduction time.Time
	SpudDate        *time.Time
	// AnchoredAtCollectionStart marks groups whose earliest record is the
	// earliest record of the whole dataset, so their true first production
	// may predate it.
	AnchoredAtCollectionStart bool
}
