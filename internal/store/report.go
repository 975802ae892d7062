package store

import (
	"context"
	"database/sql"
	"time"

	"flarewatch/internal/flaring"
	"flarewatch/pkg/errors"
)

var reportColumns = []string{
	"run_id", "rank", "file_no", "api_no", "pool", "grace_period_end",
	"mcf_flared_after_grace_period", "days_produced", "mcf_gas", "mcf_sold",
	"mcf_flared", "spud_date", "anchored_at_collection_start", "created_at",
}

func dateOrNull(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}

// SaveReport appends ranked results under runID.
func (s *Store) SaveReport(ctx context.Context, runID string, results []flaring.RankedResult, createdAt time.Time) (int, error) {
	insert := insertStatement("flaring_reports", reportColumns)
	stamp := createdAt.UTC().Format(time.RFC3339)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, r := range results {
			end := r.GracePeriodEnd
			_, err := tx.ExecContext(ctx, insert,
				runID,
				r.Rank,
				r.Key.WellID,
				r.Key.APINo,
				r.Key.Pool,
				dateOrNull(&end),
				r.FlaredAfterGrace.String(),
				r.DaysProduced,
				r.GasVolume.String(),
				r.GasSold.String(),
				r.GasFlared.String(),
				dateOrNull(r.SpudDate),
				r.AnchoredAtCollectionStart,
				stamp,
			)
			if err != nil {
				return errors.StoreError("cannot insert report row", insert, err).
					WithContext("run_id", runID).
					WithContext("rank", r.Rank)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoWithFields("report stored", map[string]interface{}{
		"run_id": runID,
		"rows":   len(results),
	})
	return len(results), nil
}
