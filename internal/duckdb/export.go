package duckdb

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vcfcompare/internal/quality"
	"github.com/inodb/vcfcompare/internal/report"
	"github.com/inodb/vcfcompare/internal/variantset"
)

// Run describes one exported comparison run.
type Run struct {
	ID               string
	CreatedAt        time.Time
	Mode             string
	InvertScore      bool
	Truth            FileFingerprint
	Candidate        FileFingerprint
	TruthRecords     int64
	CandidateRecords int64
}

// CategoryCounts is one row of category_counts.
type CategoryCounts struct {
	Category       string
	TP, FP, FN, CM int64
	CandidateTotal int64
	TruthTotal     int64
	Warnings       int64
}

// WriteReport stores the counts and stratification tables of rep under runID.
// Strata rows are batch-inserted with the Appender API. Appender writes are
// not transactional, so on failure every row of runID is removed again.
func (s *Store) WriteReport(runID string, rep *report.Report) error {
	truth := StatFile(rep.Truth.Path)
	cand := StatFile(rep.Candidate.Path)

	if _, err := s.db.Exec(`INSERT INTO comparison_runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(), rep.Options.Mode.String(), rep.Options.InvertScore,
		truth.Path, truth.Size, truth.ModTime, int64(rep.Truth.Records),
		cand.Path, cand.Size, cand.ModTime, int64(rep.Candidate.Records),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}

	if err := s.writeTables(runID, rep); err != nil {
		if derr := s.DeleteRun(runID); derr != nil {
			return errors.Join(err, fmt.Errorf("roll back run %s: %w", runID, derr))
		}
		return err
	}
	return nil
}

func (s *Store) writeTables(runID string, rep *report.Report) error {
	err := s.appendRows("category_counts", func(a *goduckdb.Appender) error {
		for i, c := range rep.Categories {
			if err := a.AppendRow(
				runID, int64(i), c.Category.String(),
				int64(c.TP), int64(c.FP), int64(c.FN), int64(c.CM),
				int64(c.CandidateTotal), int64(c.TruthTotal), int64(len(c.Warnings)),
			); err != nil {
				return fmt.Errorf("append category counts: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.appendRows("stratification", func(a *goduckdb.Appender) error {
		for _, c := range rep.Categories {
			if !c.Stratified() {
				continue
			}
			for _, axis := range c.TPHist.Axes() {
				for _, row := range c.Strata(axis) {
					if err := a.AppendRow(
						runID, c.Category.String(), axis.String(), int64(row.Bucket),
						int64(row.TPCount), int64(row.FPCount),
						row.TP, row.TPCum, row.FP, row.FPCum,
					); err != nil {
						return fmt.Errorf("append stratum: %w", err)
					}
				}
			}
		}
		return nil
	})
}

// appendRows opens an Appender on table, runs fill and flushes the rows.
func (s *Store) appendRows(table string, fill func(*goduckdb.Appender) error) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender for %s: %w", table, err)
	}

	if err := fill(appender); err != nil {
		appender.Close()
		return err
	}
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", table, err)
	}
	return nil
}

// Runs lists exported runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		run_id, created_at, mode, invert_score,
		truth_path, truth_size, truth_mtime, truth_records,
		candidate_path, candidate_size, candidate_mtime, candidate_records
		FROM comparison_runs
		ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID, &r.CreatedAt, &r.Mode, &r.InvertScore,
			&r.Truth.Path, &r.Truth.Size, &r.Truth.ModTime, &r.TruthRecords,
			&r.Candidate.Path, &r.Candidate.Size, &r.Candidate.ModTime, &r.CandidateRecords,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Counts returns the per-category counts of a run in evaluation order.
func (s *Store) Counts(runID string) ([]CategoryCounts, error) {
	rows, err := s.db.Query(`SELECT
		category, tp, fp, fn, cm, candidate_total, truth_total, warnings
		FROM category_counts
		WHERE run_id=?
		ORDER BY ord`, runID)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	var out []CategoryCounts
	for rows.Next() {
		var c CategoryCounts
		if err := rows.Scan(&c.Category, &c.TP, &c.FP, &c.FN, &c.CM,
			&c.CandidateTotal, &c.TruthTotal, &c.Warnings); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return out, nil
}

// Strata returns the stored stratification of one category and axis in
// bucket order. It is empty when the run was not stratified on that axis.
func (s *Store) Strata(runID string, cat variantset.Category, axis quality.Axis) ([]report.Stratum, error) {
	rows, err := s.db.Query(`SELECT
		bucket, tp_count, fp_count, tp_pct, tp_cum, fp_pct, fp_cum
		FROM stratification
		WHERE run_id=? AND category=? AND axis=?
		ORDER BY bucket`, runID, cat.String(), axis.String())
	if err != nil {
		return nil, fmt.Errorf("query strata: %w", err)
	}
	defer rows.Close()

	var out []report.Stratum
	for rows.Next() {
		var bucket, tp, fp int64
		var st report.Stratum
		if err := rows.Scan(&bucket, &tp, &fp, &st.TP, &st.TPCum, &st.FP, &st.FPCum); err != nil {
			return nil, fmt.Errorf("scan stratum: %w", err)
		}
		st.Bucket, st.TPCount, st.FPCount = int(bucket), int(tp), int(fp)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strata: %w", err)
	}
	return out, nil
}

// DeleteRun removes every row of a run.
func (s *Store) DeleteRun(runID string) error {
	for _, table := range []string{"stratification", "category_counts", "comparison_runs"} {
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE run_id=?", runID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}
