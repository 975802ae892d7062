package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"flarewatch/internal/flaring"
	"flarewatch/pkg/errors"
)

// productionColumns are the raw columns kept per monthly filing.
var productionColumns = []string{
	"file_no", "api_no", "pool", "date", "bbls_oil", "mcf_gas",
	"bbls_water", "days_produced", "oil_sold", "mcf_sold", "mcf_flared",
}

var optionalProductionColumns = map[string]bool{"bbls_oil": true, "bbls_water": true, "oil_sold": true}

var wellColumns = []string{"file_no", "spud_date"}

func insertStatement(table string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)
}

// project maps t onto columns. Missing required columns fail with a
// SchemaError; missing optional columns are stored empty.
func project(t *flaring.RawTable, columns []string, optional map[string]bool, aliases map[string]string) ([]int, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Index(c)
		if idx[i] < 0 && aliases[c] != "" {
			idx[i] = t.Index(aliases[c])
		}
		if idx[i] < 0 && !optional[c] {
			return nil, errors.SchemaError(t.Name, c)
		}
	}
	return idx, nil
}

func cellsAt(row []string, idx []int) []interface{} {
	out := make([]interface{}, len(idx))
	for i, j := range idx {
		if j >= 0 && j < len(row) {
			out[i] = row[j]
		} else {
			out[i] = ""
		}
	}
	return out
}

// SaveProductionMonth replaces every stored row of month with the rows of t.
// Cells are stored as text; duplicates within the month are kept.
func (s *Store) SaveProductionMonth(ctx context.Context, month string, t *flaring.RawTable) (int, error) {
	idx, err := project(t, productionColumns, optionalProductionColumns, nil)
	if err != nil {
		return 0, err
	}

	insert := insertStatement("monthly_production", append([]string{"month", "seq"}, productionColumns...))
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		const del = "DELETE FROM monthly_production WHERE month = ?"
		if _, err := tx.ExecContext(ctx, del, month); err != nil {
			return errors.StoreError("cannot clear month", del, err).WithContext("month", month)
		}
		for i, row := range t.Rows {
			args := append([]interface{}{month, i}, cellsAt(row, idx)...)
			if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
				return errors.StoreError("cannot insert production row", insert, err).
					WithContext("month", month).
					WithContext("row", i+1)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.DebugWithFields("production month stored", map[string]interface{}{
		"month": month,
		"rows":  t.Len(),
	})
	return t.Len(), nil
}

// SaveWells replaces the stored well index with t.
func (s *Store) SaveWells(ctx context.Context, t *flaring.RawTable) (int, error) {
	idx, err := project(t, wellColumns, nil, map[string]string{"file_no": "FileNo", "spud_date": "SpudDate"})
	if err != nil {
		return 0, err
	}

	insert := insertStatement("well_index", append([]string{"seq"}, wellColumns...))
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		const del = "DELETE FROM well_index"
		if _, err := tx.ExecContext(ctx, del); err != nil {
			return errors.StoreError("cannot clear well index", del, err)
		}
		for i, row := range t.Rows {
			args := append([]interface{}{i}, cellsAt(row, idx)...)
			if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
				return errors.StoreError("cannot insert well row", insert, err).WithContext("row", i+1)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return t.Len(), nil
}

func (s *Store) loadTable(ctx context.Context, name, query string, columns []string) (*flaring.RawTable, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.StoreError("cannot load "+name, query, err)
	}
	defer rows.Close()

	table := flaring.NewRawTable(name, columns)
	for rows.Next() {
		cells := make([]sql.NullString, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.StoreError("cannot scan "+name, query, err)
		}
		row := make([]string, len(columns))
		for i, c := range cells {
			row[i] = c.String
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError("cannot load "+name, query, err)
	}
	return table, nil
}

// LoadProduction returns every stored filing, oldest month first.
func (s *Store) LoadProduction(ctx context.Context) (*flaring.RawTable, error) {
	query := fmt.Sprintf("SELECT %s FROM monthly_production ORDER BY month, seq", strings.Join(productionColumns, ", "))
	return s.loadTable(ctx, "production", query, productionColumns)
}

// LoadWells returns the stored well index.
func (s *Store) LoadWells(ctx context.Context) (*flaring.RawTable, error) {
	query := fmt.Sprintf("SELECT %s FROM well_index ORDER BY seq", strings.Join(wellColumns, ", "))
	return s.loadTable(ctx, "wells", query, wellColumns)
}

// Months lists the stored months in ascending order.
func (s *Store) Months(ctx context.Context) ([]string, error) {
	const query = "SELECT DISTINCT month FROM monthly_production ORDER BY month"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.StoreError("cannot list months", query, err)
	}
	defer rows.Close()

	var months []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, errors.StoreError("cannot scan month", query, err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError("cannot list months", query, err)
	}
	return months, nil
}
