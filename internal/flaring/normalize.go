package flaring

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"flarewatch/pkg/errors"
)

// Kind is the declared type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	// KindAPINumber is an integer that may be written with dash separators
	// (33-053-02102).
	KindAPINumber
	KindDate
	KindVolume
)

func (k Kind) String() string {
	switch k {
	case KindInt, KindAPINumber:
		return "integer"
	case KindDate:
		return "date"
	case KindVolume:
		return "decimal"
	default:
		return "string"
	}
}

// Column declares one typed column of a source table.
type Column struct {
	Name     string
	Kind     Kind
	Aliases  []string
	Nullable bool
	// Measure columns are summed; they may be blank when blank measures are
	// configured to count as zero.
	Measure bool
}

// Schema declares the typed view of a source table.
type Schema struct {
	Table   string
	Columns []Column
	// Drop lists columns that may be present but are never read.
	Drop []string
}

// ProductionSchema is the schema of the monthly production table.
func ProductionSchema() Schema {
	return Schema{
		Table: "production",
		Columns: []Column{
			{Name: ColumnWellID, Kind: KindInt},
			{Name: ColumnAPINo, Kind: KindAPINumber},
			{Name: ColumnPool, Kind: KindString},
			{Name: ColumnDate, Kind: KindDate},
			{Name: ColumnGasVolume, Kind: KindVolume, Measure: true},
			{Name: ColumnDaysProduced, Kind: KindInt, Measure: true},
			{Name: ColumnGasSold, Kind: KindVolume, Measure: true},
			{Name: ColumnGasFlared, Kind: KindVolume, Measure: true},
		},
		Drop: []string{"bbls_oil", "bbls_water", "oil_sold"},
	}
}

// WellSchema is the schema of the well index.
func WellSchema() Schema {
	return Schema{
		Table: "wells",
		Columns: []Column{
			{Name: ColumnWellID, Kind: KindInt, Aliases: []string{"FileNo"}},
			{Name: ColumnSpudDate, Kind: KindDate, Aliases: []string{"SpudDate"}, Nullable: true},
		},
	}
}

// DefaultDateLayouts are tried in order when parsing date cells.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"01-2006",
	"1-2006",
	"2006-01",
	"1/2/2006",
	"2006-01-02 15:04:05",
}

// Normalizer coerces raw tables into typed records.
type Normalizer struct {
	layouts     []string
	blankAsZero bool
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithDateLayouts replaces the date layouts tried for date cells.
func WithDateLayouts(layouts ...string) NormalizerOption {
	return func(n *Normalizer) {
		if len(layouts) > 0 {
			n.layouts = append([]string(nil), layouts...)
		}
	}
}

// WithBlankMeasuresAsZero makes blank measure cells parse as zero instead of
// failing. Key and date columns are never defaulted.
func WithBlankMeasuresAsZero(enabled bool) NormalizerOption {
	return func(n *Normalizer) {
		n.blankAsZero = enabled
	}
}

// NewNormalizer creates a normalizer.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{layouts: DefaultDateLayouts}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Locate returns the index in t of each schema column, in schema order,
// trying aliases after the canonical name.
func (s Schema) Locate(t *RawTable) ([]int, error) {
	idx := make([]int, len(s.Columns))
	for i, col := range s.Columns {
		idx[i] = t.Index(col.Name)
		for _, alias := range col.Aliases {
			if idx[i] >= 0 {
				break
			}
			idx[i] = t.Index(alias)
		}
		if idx[i] < 0 {
			return nil, errors.SchemaError(s.Table, col.Name)
		}
	}
	return idx, nil
}

// resolve locates the schema columns and rejects ragged rows.
func (n *Normalizer) resolve(s Schema, t *RawTable) ([]int, error) {
	idx, err := s.Locate(t)
	if err != nil {
		return nil, err
	}
	for r, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, errors.New(errors.ErrCodeSchema,
				fmt.Sprintf("table %q row %d has %d cells, header has %d", s.Table, r+1, len(row), len(t.Columns))).
				WithSeverity(errors.SeverityCritical).
				WithContext("table", s.Table).
				WithContext("row", r+1)
		}
	}
	return idx, nil
}

// cell is a parsed cell; only the field matching the column kind is set.
type cell struct {
	str    string
	i      int64
	date   time.Time
	vol    Volume
	isNull bool
}

func (n *Normalizer) parse(s Schema, col Column, row int, raw string) (cell, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		switch {
		case col.Kind == KindString:
			return cell{}, nil
		case col.Nullable:
			return cell{isNull: true}, nil
		case col.Measure && n.blankAsZero:
			return cell{}, nil
		}
		return cell{}, errors.TypeMismatch(s.Table, col.Name, row, raw, col.Kind.String(), fmt.Errorf("blank cell"))
	}

	switch col.Kind {
	case KindString:
		return cell{str: v}, nil
	case KindInt, KindAPINumber:
		digits := strings.ReplaceAll(v, ",", "")
		if col.Kind == KindAPINumber {
			digits = strings.ReplaceAll(digits, "-", "")
		}
		i, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return cell{}, errors.TypeMismatch(s.Table, col.Name, row, raw, col.Kind.String(), err)
		}
		return cell{i: i}, nil
	case KindVolume:
		vol, err := ParseVolume(v)
		if err != nil {
			return cell{}, errors.TypeMismatch(s.Table, col.Name, row, raw, col.Kind.String(), err)
		}
		return cell{vol: vol}, nil
	case KindDate:
		d, err := n.parseDate(v)
		if err != nil {
			return cell{}, errors.TypeMismatch(s.Table, col.Name, row, raw, col.Kind.String(), err)
		}
		return cell{date: d}, nil
	}
	return cell{}, errors.New(errors.ErrCodeInternal, fmt.Sprintf("unknown column kind %d", col.Kind))
}

func (n *Normalizer) parseDate(v string) (time.Time, error) {
	for _, layout := range n.layouts {
		if d, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout of %v matches", n.layouts)
}

// rows parses every row of t under s, calling fn with the typed cells in
// schema order. Row numbers passed to errors are 1-based.
func (n *Normalizer) rows(s Schema, t *RawTable, fn func(cells []cell)) error {
	idx, err := n.resolve(s, t)
	if err != nil {
		return err
	}

	cells := make([]cell, len(s.Columns))
	for r, row := range t.Rows {
		for i, col := range s.Columns {
			c, err := n.parse(s, col, r+1, row[idx[i]])
			if err != nil {
				return err
			}
			cells[i] = c
		}
		fn(cells)
	}
	return nil
}

// Production types the monthly production table. Dropped columns are
// ignored; any missing required column or unparseable cell aborts.
func (n *Normalizer) Production(t *RawTable) ([]ProductionRecord, error) {
	records := make([]ProductionRecord, 0, t.Len())
	err := n.rows(ProductionSchema(), t, func(c []cell) {
		records = append(records, ProductionRecord{
			WellID:       c[0].i,
			APINo:        c[1].i,
			Pool:         c[2].str,
			Date:         c[3].date,
			GasVolume:    c[4].vol,
			DaysProduced: c[5].i,
			GasSold:      c[6].vol,
			GasFlared:    c[7].vol,
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Wells types the well index.
func (n *Normalizer) Wells(t *RawTable) ([]WellRecord, error) {
	wells := make([]WellRecord, 0, t.Len())
	err := n.rows(WellSchema(), t, func(c []cell) {
		w := WellRecord{WellID: c[0].i}
		if !c[1].isNull {
			d := c[1].date
			w.SpudDate = &d
		}
		wells = append(wells, w)
	})
	if err != nil {
		return nil, err
	}
	return wells, nil
}
