package report

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
)

// SQLiteStore keeps every batch run and its rows in a local database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrapf(common.ErrLoad, "create database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, errors.Wrapf(common.ErrLoad, "open database: %v", err)
	}

	store := &SQLiteStore{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialize database schema")
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		archive_root TEXT,
		files INTEGER NOT NULL,
		ok INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		file_identifier TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		nominal_capacity REAL,
		cycles INTEGER,
		thresholds INTEGER,
		mean_temperature REAL,
		mean_ncd1pct REAL,
		std_ncd1pct REAL,
		ks_statistic REAL,
		p_value REAL,
		alpha REAL,
		accepted INTEGER,
		fit_n INTEGER,
		charge_weighted_avg REAL,
		discharge_weighted_avg REAL,
		charge_deviation_pct REAL,
		discharge_deviation_pct REAL,
		soh_change_points INTEGER,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_results_file ON results(file_identifier);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores one run atomically and returns its id.
func (s *SQLiteStore) SaveRun(ctx context.Context, archiveRoot string, startedAt time.Time, rows []*model.ResultRow) (int64, error) {
	logger := utils.GetLogger(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin run")
	}
	defer tx.Rollback()

	ok := 0
	for _, row := range rows {
		if row.IsOK() {
			ok++
		}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, archive_root, files, ok) VALUES (?, ?, ?, ?, ?)`,
		startedAt.UTC(), time.Now().UTC(), archiveRoot, len(rows), ok)
	if err != nil {
		return 0, errors.Wrap(err, "insert run")
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "run id")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (
			run_id, position, file_identifier, status, reason, nominal_capacity, cycles,
			thresholds, mean_temperature, mean_ncd1pct, std_ncd1pct, ks_statistic, p_value,
			alpha, accepted, fit_n, charge_weighted_avg, discharge_weighted_avg,
			charge_deviation_pct, discharge_deviation_pct, soh_change_points
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, errors.Wrap(err, "prepare results")
	}
	defer stmt.Close()

	for i, row := range rows {
		var ks, pValue, alpha sql.NullFloat64
		var accepted sql.NullBool
		var n sql.NullInt64
		if row.Fit != nil {
			ks, pValue, alpha = nullFloat(row.Fit.KSStatistic), nullFloat(row.Fit.PValue), nullFloat(row.Fit.Alpha)
			accepted = sql.NullBool{Bool: row.Fit.Accepted, Valid: true}
			n = sql.NullInt64{Int64: int64(row.Fit.N), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			runID, i, row.FileIdentifier, string(row.Status), row.Reason,
			nullFloat(row.NominalCapacity), row.Cycles, row.Thresholds,
			nullFloat(row.MeanTemperature), nullFloat(row.MeanNCD1Pct), nullFloat(row.StdNCD1Pct),
			ks, pValue, alpha, accepted, n,
			nullFloat(row.ChargeWeightedAvg), nullFloat(row.DischargeWeightedAvg),
			nullFloat(row.ChargeDeviationPct), nullFloat(row.DischargeDeviationPct),
			row.SOHChangePoints,
		)
		if err != nil {
			return 0, errors.Wrapf(err, "insert result %v", row.FileIdentifier)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit run")
	}
	logger.Info("save run success", zap.Int64("runID", runID), zap.Int("rows", len(rows)))
	return runID, nil
}

// LoadRun reads the rows of a stored run back in the order they were saved.
// NULL metrics come back as NaN.
func (s *SQLiteStore) LoadRun(ctx context.Context, runID int64) ([]*model.ResultRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_identifier, status, reason, nominal_capacity, cycles, thresholds,
			mean_temperature, mean_ncd1pct, std_ncd1pct, ks_statistic, p_value, alpha, accepted, fit_n,
			charge_weighted_avg, discharge_weighted_avg, charge_deviation_pct,
			discharge_deviation_pct, soh_change_points
		FROM results WHERE run_id = ? ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "query run %v", runID)
	}
	defer rows.Close()

	res := []*model.ResultRow{}
	for rows.Next() {
		var (
			row                           model.ResultRow
			status                        string
			reason                        sql.NullString
			nominal, temp, mean, std      sql.NullFloat64
			ks, pValue, alpha             sql.NullFloat64
			accepted                      sql.NullBool
			n                             sql.NullInt64
			charge, discharge, cDev, dDev sql.NullFloat64
		)
		if err := rows.Scan(&row.FileIdentifier, &status, &reason, &nominal, &row.Cycles, &row.Thresholds,
			&temp, &mean, &std, &ks, &pValue, &alpha, &accepted, &n,
			&charge, &discharge, &cDev, &dDev, &row.SOHChangePoints); err != nil {
			return nil, errors.Wrap(err, "scan result")
		}
		row.Status = common.Status(status)
		row.Reason = reason.String
		row.NominalCapacity = floatOrNaN(nominal)
		row.MeanTemperature = floatOrNaN(temp)
		row.MeanNCD1Pct = floatOrNaN(mean)
		row.StdNCD1Pct = floatOrNaN(std)
		row.ChargeWeightedAvg = floatOrNaN(charge)
		row.DischargeWeightedAvg = floatOrNaN(discharge)
		row.ChargeDeviationPct = floatOrNaN(cDev)
		row.DischargeDeviationPct = floatOrNaN(dDev)
		if accepted.Valid {
			row.Fit = &model.DistributionFit{
				Mean:        row.MeanNCD1Pct,
				Std:         row.StdNCD1Pct,
				KSStatistic: floatOrNaN(ks),
				PValue:      floatOrNaN(pValue),
				Alpha:       floatOrNaN(alpha),
				Accepted:    accepted.Bool,
				N:           int(n.Int64),
			}
		}
		res = append(res, &row)
	}
	return res, errors.Wrap(rows.Err(), "iterate results")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullFloat(f float64) sql.NullFloat64 {
	if !utils.IsFinite(f) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func floatOrNaN(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}
