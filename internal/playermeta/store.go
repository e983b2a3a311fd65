package playermeta

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

// ErrNotFound means no metadata row exists for the requested key.
var ErrNotFound = errors.New("player not found")

// Source resolves season-scoped player metadata. The master builder depends
// on this rather than the concrete store so tests can supply fixtures.
type Source interface {
	// Lookup resolves by the primary key (year, team, name).
	Lookup(ctx context.Context, year int, team, name string) (*stats.PlayerMeta, error)
	// LookupByName is the trade-tolerant fallback; it returns every row
	// matching (year, name) so the caller can decide what multiple distinct
	// players mean.
	LookupByName(ctx context.Context, year int, name string) ([]stats.PlayerMeta, error)
}

// Store is the SQLite-backed metadata source. One row per player per team
// per season; a mid-season trade yields two rows sharing PlayerIdx.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS players (
	player_idx INTEGER NOT NULL,
	year       INTEGER NOT NULL,
	team       TEXT NOT NULL,
	name       TEXT NOT NULL,
	pos        TEXT NOT NULL DEFAULT '',
	height_in  REAL NOT NULL DEFAULT 0,
	weight_lb  REAL NOT NULL DEFAULT 0,
	birth_year INTEGER NOT NULL DEFAULT 0,
	experience REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (year, team, name)
);
CREATE INDEX IF NOT EXISTS idx_players_year_name ON players (year, name);
`

// Open opens or creates the metadata database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open player db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure player db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure player schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup resolves a player by (year, team, name).
func (s *Store) Lookup(ctx context.Context, year int, team, name string) (*stats.PlayerMeta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT player_idx, year, team, name, pos, height_in, weight_lb, birth_year, experience
		FROM players WHERE year = ? AND team = ? AND name = ?`,
		year, team, name)

	meta, err := scanMeta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// LookupByName resolves by (year, name) alone, returning every match.
func (s *Store) LookupByName(ctx context.Context, year int, name string) ([]stats.PlayerMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_idx, year, team, name, pos, height_in, weight_lb, birth_year, experience
		FROM players WHERE year = ? AND name = ? ORDER BY team`,
		year, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []stats.PlayerMeta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, *meta)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, ErrNotFound
	}
	return metas, nil
}

// Insert adds one metadata row, replacing any existing row for the key.
func (s *Store) Insert(ctx context.Context, meta stats.PlayerMeta) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO players
			(player_idx, year, team, name, pos, height_in, weight_lb, birth_year, experience)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.PlayerIdx, meta.Year, meta.Team, meta.Name, meta.Pos,
		meta.HeightIn, meta.WeightLb, meta.BirthYear, meta.Experience)
	return err
}

// ImportCSV loads metadata rows from CSV with a header of
// player_idx,year,team,name,pos,height_in,weight_lb,birth_year,experience.
// Returns the number of rows imported.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"player_idx", "year", "team", "name"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("csv missing required column %q", required)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO players
			(player_idx, year, team, name, pos, height_in, weight_lb, birth_year, experience)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read csv row %d: %w", count+1, err)
		}

		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		playerIdx, err := strconv.Atoi(get("player_idx"))
		if err != nil {
			return count, fmt.Errorf("csv row %d: bad player_idx %q", count+1, get("player_idx"))
		}
		year, err := strconv.Atoi(get("year"))
		if err != nil {
			return count, fmt.Errorf("csv row %d: bad year %q", count+1, get("year"))
		}

		if _, err := stmt.ExecContext(ctx,
			playerIdx, year, get("team"), get("name"), get("pos"),
			floatOrZero(get("height_in")), floatOrZero(get("weight_lb")),
			intOrZero(get("birth_year")), floatOrZero(get("experience"))); err != nil {
			return count, fmt.Errorf("insert csv row %d: %w", count+1, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return count, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeta(row rowScanner) (*stats.PlayerMeta, error) {
	var m stats.PlayerMeta
	err := row.Scan(&m.PlayerIdx, &m.Year, &m.Team, &m.Name, &m.Pos,
		&m.HeightIn, &m.WeightLb, &m.BirthYear, &m.Experience)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func floatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func intOrZero(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
