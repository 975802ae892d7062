package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flarewatch/internal/flaring"
	"flarewatch/pkg/errors"
)

func fastRetry() *errors.RetryConfig {
	return &errors.RetryConfig{
		MaxRetries:     2,
		InitialDelay:   time.Millisecond,
		Multiplier:     1,
		RetryableError: errors.IsRecoverable,
	}
}

func monthTable() *flaring.RawTable {
	t := flaring.NewRawTable("2020-01", []string{
		"File No", "API No", "Pool", "Date", "BBLS Oil", "MCF Gas", "Days Produced", "MCF Sold", "MCF Flared", "Well Name",
	})
	t.Rows = [][]string{
		{"100", "33053000000100", "BAKKEN", "01-2020", "10", "500", "31", "400", "100", "STATE 1"},
		{"101", "33053000000101", "BAKKEN", "01-2020", "0", "20", "5", "0", "20", "STATE 2"},
	}
	return t
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, DriverSQLite, WithRetry(fastRetry())), mock
}

func TestMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS monthly_production").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS well_index").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS flaring_reports").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS monthly_production").WillReturnError(fmt.Errorf("disk I/O error"))

	err := s.Migrate(context.Background())
	assert.Equal(t, errors.ErrCodeStoreMigration, errors.GetErrorCode(err))
}

func TestSaveProductionMonth(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM monthly_production").WithArgs("2020-01").WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec("INSERT INTO monthly_production").
		WithArgs("2020-01", 0, "100", "33053000000100", "BAKKEN", "01-2020", "10", "500", "", "31", "", "400", "100").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO monthly_production").
		WithArgs("2020-01", 1, "101", "33053000000101", "BAKKEN", "01-2020", "0", "20", "", "5", "", "0", "20").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	n, err := s.SaveProductionMonth(context.Background(), "2020-01", monthTable())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProductionMonthRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM monthly_production").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO monthly_production").WillReturnError(fmt.Errorf("constraint failed"))
	mock.ExpectRollback()

	_, err := s.SaveProductionMonth(context.Background(), "2020-01", monthTable())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStoreQuery, errors.GetErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProductionMonthRetriesLockedDatabase(t *testing.T) {
	s, mock := newMockStore(t)
	table := monthTable()
	table.Rows = table.Rows[:1]

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM monthly_production").WillReturnError(fmt.Errorf("database is locked"))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM monthly_production").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO monthly_production").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	n, err := s.SaveProductionMonth(context.Background(), "2020-01", table)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProductionMonthMissingColumn(t *testing.T) {
	s, mock := newMockStore(t)
	table := flaring.NewRawTable("2020-01", []string{"file_no", "pool"})

	_, err := s.SaveProductionMonth(context.Background(), "2020-01", table)
	assert.Equal(t, errors.ErrCodeSchema, errors.GetErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveWells(t *testing.T) {
	s, mock := newMockStore(t)
	table := flaring.NewRawTable("wells", []string{"FileNo", "WellName", "SpudDate"})
	table.Rows = [][]string{{"100", "STATE 1", "5/14/2012"}}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM well_index").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO well_index").WithArgs(0, "100", "5/14/2012").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	n, err := s.SaveWells(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadProduction(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows(productionColumns).
		AddRow("100", "33053000000100", "BAKKEN", "01-2020", nil, "500", nil, "31", nil, "400", "100")
	mock.ExpectQuery("SELECT file_no, api_no, pool, date").WillReturnRows(rows)

	table, err := s.LoadProduction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, productionColumns, table.Columns)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "", table.Rows[0][4])
	assert.Equal(t, "100", table.Rows[0][10])

	records, err := flaring.NewNormalizer().Production(table)
	require.NoError(t, err)
	assert.Equal(t, "100", records[0].GasFlared.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadWellsQueryError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT file_no, spud_date FROM well_index").WillReturnError(fmt.Errorf("no such table: well_index"))

	_, err := s.LoadWells(context.Background())
	assert.Equal(t, errors.ErrCodeStoreQuery, errors.GetErrorCode(err))
}

func TestMonths(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT DISTINCT month FROM monthly_production").
		WillReturnRows(sqlmock.NewRows([]string{"month"}).AddRow("2019-12").AddRow("2020-01"))

	months, err := s.Months(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2019-12", "2020-01"}, months)
}

func TestSaveReport(t *testing.T) {
	s, mock := newMockStore(t)
	end := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)
	results := []flaring.RankedResult{
		{
			Rank:             1,
			Key:              flaring.GroupKey{WellID: 100, APINo: 33053000000100, Pool: "A"},
			HasPostGrace:     true,
			GracePeriodEnd:   end,
			FlaredAfterGrace: flaring.MustVolume("20"),
			Measures:         flaring.Measures{DaysProduced: 92, GasVolume: flaring.MustVolume("300"), GasSold: flaring.MustVolume("180"), GasFlared: flaring.MustVolume("35")},
		},
		{Rank: 2, Key: flaring.GroupKey{WellID: 200, APINo: 33053000000200, Pool: "B"}, AnchoredAtCollectionStart: true},
	}
	created := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO flaring_reports").
		WithArgs("run-1", 1, int64(100), int64(33053000000100), "A", "2019-01-01", "20", int64(92), "300", "180", "35", nil, false, "2026-03-02T10:00:00Z").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO flaring_reports").
		WithArgs("run-1", 2, int64(200), int64(33053000000200), "B", nil, "0", int64(0), "0", "0", "0", nil, true, "2026-03-02T10:00:00Z").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	n, err := s.SaveReport(context.Background(), "run-1", results, created)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres", "x")
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetErrorCode(err))
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "data", "flarewatch.sqlite3"))
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skip("sqlite3 driver requires cgo")
	}
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	_, err = s.SaveProductionMonth(ctx, "2020-01", monthTable())
	require.NoError(t, err)
	_, err = s.SaveProductionMonth(ctx, "2020-01", monthTable())
	require.NoError(t, err)

	table, err := s.LoadProduction(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len(), "saving a month twice replaces it")

	months, err := s.Months(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2020-01"}, months)

	report, err := flaring.NewPipeline().Run(flaring.Input{Production: table})
	require.NoError(t, err)
	n, err := s.SaveReport(ctx, "run-1", report.Results, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
