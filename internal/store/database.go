package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

// Database is the optional Postgres sink for built artifacts, so weighted
// stats and training examples can be queried alongside other analytics
// data. The pipeline itself never reads from it.
type Database struct {
	conn *sql.DB
}

// NewDatabase opens and pings a Postgres connection.
func NewDatabase(dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Database{conn: db}, nil
}

// Close closes the connection.
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

var migrations = []struct {
	version string
	sql     string
}{
	{
		"001_create_team_game_stats",
		`CREATE TABLE IF NOT EXISTS team_game_stats (
			year INT NOT NULL,
			seq INT NOT NULL,
			game_idx INT NOT NULL,
			home_team TEXT NOT NULL,
			away_team TEXT NOT NULL,
			is_home BOOLEAN NOT NULL,
			efg_pct DOUBLE PRECISION,
			drtg DOUBLE PRECISION,
			ortg DOUBLE PRECISION,
			tov_pct DOUBLE PRECISION,
			blk_pct DOUBLE PRECISION,
			orb_pct DOUBLE PRECISION,
			drb_pct DOUBLE PRECISION,
			trb_pct DOUBLE PRECISION,
			ast_pct DOUBLE PRECISION,
			stl_pct DOUBLE PRECISION,
			ft_rate DOUBLE PRECISION,
			three_par DOUBLE PRECISION,
			ts_pct DOUBLE PRECISION,
			ft_pct DOUBLE PRECISION,
			pts DOUBLE PRECISION,
			PRIMARY KEY (year, game_idx, is_home)
		)`,
	},
	{
		"002_create_training_examples",
		`CREATE TABLE IF NOT EXISTS training_examples (
			year INT NOT NULL,
			game_idx INT NOT NULL,
			home_team TEXT NOT NULL,
			away_team TEXT NOT NULL,
			score_diff DOUBLE PRECISION NOT NULL,
			features JSONB NOT NULL,
			PRIMARY KEY (year, game_idx)
		)`,
	},
	{
		"003_index_team_game_stats_seq",
		`CREATE INDEX IF NOT EXISTS idx_team_game_stats_seq
			ON team_game_stats (year, seq)`,
	},
}

// RunMigrations applies the schema, tracking applied versions.
func (db *Database) RunMigrations() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		err := db.conn.QueryRow(
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.version, err)
		}
		if exists {
			continue
		}
		if _, err := db.conn.Exec(m.sql); err != nil {
			return fmt.Errorf("run migration %s: %w", m.version, err)
		}
		if _, err := db.conn.Exec(
			"INSERT INTO schema_migrations (version) VALUES ($1)", m.version,
		); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
	}
	return nil
}

// UpsertTeamGameStats loads one season's weighted stats. Re-running with
// the same inputs is idempotent.
func (db *Database) UpsertTeamGameStats(ctx context.Context, year int, rows []stats.TeamGameStats) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO team_game_stats (
			year, seq, game_idx, home_team, away_team, is_home,
			efg_pct, drtg, ortg, tov_pct, blk_pct, orb_pct, drb_pct,
			trb_pct, ast_pct, stl_pct, ft_rate, three_par, ts_pct, ft_pct, pts
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21
		)
		ON CONFLICT (year, game_idx, is_home) DO UPDATE SET
			seq = EXCLUDED.seq,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			efg_pct = EXCLUDED.efg_pct,
			drtg = EXCLUDED.drtg,
			ortg = EXCLUDED.ortg,
			tov_pct = EXCLUDED.tov_pct,
			blk_pct = EXCLUDED.blk_pct,
			orb_pct = EXCLUDED.orb_pct,
			drb_pct = EXCLUDED.drb_pct,
			trb_pct = EXCLUDED.trb_pct,
			ast_pct = EXCLUDED.ast_pct,
			stl_pct = EXCLUDED.stl_pct,
			ft_rate = EXCLUDED.ft_rate,
			three_par = EXCLUDED.three_par,
			ts_pct = EXCLUDED.ts_pct,
			ft_pct = EXCLUDED.ft_pct,
			pts = EXCLUDED.pts`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			year, r.Seq, r.GameIdx, r.HomeTeam, r.AwayTeam, r.Home,
			nullable(r.EFGPct), nullable(r.DRtg), nullable(r.ORtg), nullable(r.TOVPct),
			nullable(r.BLKPct), nullable(r.ORBPct), nullable(r.DRBPct), nullable(r.TRBPct),
			nullable(r.ASTPct), nullable(r.STLPct), nullable(r.FTr), nullable(r.ThreePAr),
			nullable(r.TSPct), nullable(r.FTPct), nullable(r.PTS),
		); err != nil {
			return fmt.Errorf("upsert team game stats year=%d gameIdx=%d: %w", year, r.GameIdx, err)
		}
	}
	return tx.Commit()
}

// UpsertTrainingExamples loads the training set; features go to JSONB
// keyed by feature column, missing values as nulls.
func (db *Database) UpsertTrainingExamples(ctx context.Context, examples []stats.TrainingExample) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO training_examples (year, game_idx, home_team, away_team, score_diff, features)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (year, game_idx) DO UPDATE SET
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			score_diff = EXCLUDED.score_diff,
			features = EXCLUDED.features`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ex := range examples {
		features, err := featureJSON(ex.Features)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			ex.Year, ex.GameIdx, ex.HomeTeam, ex.AwayTeam, ex.ScoreDiff, features,
		); err != nil {
			return fmt.Errorf("upsert training example year=%d gameIdx=%d: %w", ex.Year, ex.GameIdx, err)
		}
	}
	return tx.Commit()
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
