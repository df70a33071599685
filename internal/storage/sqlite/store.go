// Package sqlite persists verification run history in a local SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opencontainers/go-digest"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/drydock/internal/artifact"
	"github.com/tjfontaine/drydock/internal/engine"
)

// Store is a SQLite implementation of engine.Store.
type Store struct {
	db *sql.DB
}

var _ engine.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			artifact_digest TEXT,
			artifact_tag TEXT,
			artifact_port INTEGER,
			verdict TEXT NOT NULL,
			warnings TEXT,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stage_results (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			stage TEXT NOT NULL,
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT,
			required INTEGER NOT NULL DEFAULT 0,
			cases TEXT,
			duration_ns INTEGER NOT NULL,
			PRIMARY KEY (run_id, position),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_verdict ON runs(verdict)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at)`,
		`CREATE INDEX IF NOT EXISTS idx_stage_results_run ON stage_results(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun writes a completed run report and its stage results in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, report *engine.RunReport) error {
	warnings, err := json.Marshal(report.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var artDigest, artTag string
	var artPort int
	if report.Artifact != nil {
		artDigest = report.Artifact.ID.String()
		artTag = report.Artifact.Tag
		artPort = report.Artifact.Port
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, artifact_digest, artifact_tag, artifact_port, verdict, warnings, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, artDigest, artTag, artPort, string(report.Verdict),
		string(warnings), report.Started, report.Finished)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, stage := range report.Stages {
		cases, err := json.Marshal(stage.Cases)
		if err != nil {
			return fmt.Errorf("marshal cases for stage %s: %w", stage.Stage, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO stage_results (run_id, position, stage, kind, status, reason, required, cases, duration_ns)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.ID, i, stage.Stage, string(stage.Kind), string(stage.Status),
			stage.Reason, stage.Required, string(cases), int64(stage.Duration))
		if err != nil {
			return fmt.Errorf("insert stage result: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun loads one run report with its full stage breakdown.
func (s *Store) GetRun(ctx context.Context, id string) (*engine.RunReport, error) {
	report, err := s.scanRun(s.db.QueryRowContext(ctx,
		`SELECT id, artifact_digest, artifact_tag, artifact_port, verdict, warnings, started_at, finished_at
		 FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	stages, err := s.getStages(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Stages = stages
	return report, nil
}

// RecentRuns lists the most recently finished runs, newest first, with
// their stage breakdowns.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*engine.RunReport, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, artifact_digest, artifact_tag, artifact_port, verdict, warnings, started_at, finished_at
		 FROM runs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var reports []*engine.RunReport
	for rows.Next() {
		report, err := s.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, report := range reports {
		stages, err := s.getStages(ctx, report.ID)
		if err != nil {
			return nil, err
		}
		report.Stages = stages
	}
	return reports, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRun(row rowScanner) (*engine.RunReport, error) {
	var report engine.RunReport
	var artDigest, artTag, warningsJSON sql.NullString
	var artPort sql.NullInt64

	err := row.Scan(&report.ID, &artDigest, &artTag, &artPort,
		&report.Verdict, &warningsJSON, &report.Started, &report.Finished)
	if err != nil {
		return nil, err
	}

	if artDigest.Valid && artDigest.String != "" {
		report.Artifact = &artifact.Artifact{
			ID:   digest.Digest(artDigest.String),
			Tag:  artTag.String,
			Port: int(artPort.Int64),
		}
	}
	if warningsJSON.Valid && warningsJSON.String != "" {
		if err := json.Unmarshal([]byte(warningsJSON.String), &report.Warnings); err != nil {
			return nil, fmt.Errorf("unmarshal warnings: %w", err)
		}
	}
	return &report, nil
}

func (s *Store) getStages(ctx context.Context, runID string) ([]engine.StageResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, kind, status, reason, required, cases, duration_ns
		 FROM stage_results WHERE run_id = ? ORDER BY position ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query stage results: %w", err)
	}
	defer rows.Close()

	var stages []engine.StageResult
	for rows.Next() {
		var stage engine.StageResult
		var casesJSON sql.NullString
		var durationNS int64

		if err := rows.Scan(&stage.Stage, &stage.Kind, &stage.Status,
			&stage.Reason, &stage.Required, &casesJSON, &durationNS); err != nil {
			return nil, fmt.Errorf("scan stage result: %w", err)
		}
		stage.Duration = time.Duration(durationNS)

		if casesJSON.Valid && casesJSON.String != "" {
			if err := json.Unmarshal([]byte(casesJSON.String), &stage.Cases); err != nil {
				return nil, fmt.Errorf("unmarshal cases: %w", err)
			}
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
