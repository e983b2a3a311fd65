package dataset

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

// Store owns every pipeline artifact under one data directory. Each stage
// writes season-partitioned gob files named by year; gob keeps the missing
// marker (NaN) intact through a round trip, which JSON cannot.
type Store struct {
	dir string
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory root.
func (s *Store) Dir() string { return s.dir }

func (s *Store) BoxscorePath(year int) string {
	return filepath.Join(s.dir, "boxscores", fmt.Sprintf("%d.gob", year))
}

func (s *Store) AllYearsPath() string {
	return filepath.Join(s.dir, "all_years.gob")
}

func (s *Store) MasterPath(year int) string {
	return filepath.Join(s.dir, "master", fmt.Sprintf("%d_master.gob", year))
}

func (s *Store) WeightedPath(year int) string {
	return filepath.Join(s.dir, "weighted", fmt.Sprintf("%d_weighted.gob", year))
}

func (s *Store) TrainingPath() string {
	return filepath.Join(s.dir, "training.gob")
}

func (s *Store) GamesIndexPath() string {
	return filepath.Join(s.dir, "games_index.gob")
}

func (s *Store) TeamsIndexPath() string {
	return filepath.Join(s.dir, "teams_index.gob")
}

func (s *Store) ModelPath() string {
	return filepath.Join(s.dir, "baseline_logreg.gob")
}

// Exists reports whether an artifact is already on disk, which is how every
// stage implements skip-unless-overwrite.
func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *Store) SaveBoxscores(year int, games []stats.Game) error {
	return writeGob(s.BoxscorePath(year), games)
}

func (s *Store) LoadBoxscores(year int) ([]stats.Game, error) {
	var games []stats.Game
	if err := readGob(s.BoxscorePath(year), &games); err != nil {
		return nil, err
	}
	return games, nil
}

func (s *Store) SaveAllYears(games []stats.Game) error {
	return writeGob(s.AllYearsPath(), games)
}

func (s *Store) LoadAllYears() ([]stats.Game, error) {
	var games []stats.Game
	if err := readGob(s.AllYearsPath(), &games); err != nil {
		return nil, err
	}
	return games, nil
}

func (s *Store) SaveMaster(year int, rows []stats.PlayerGameRow) error {
	return writeGob(s.MasterPath(year), rows)
}

func (s *Store) LoadMaster(year int) ([]stats.PlayerGameRow, error) {
	var rows []stats.PlayerGameRow
	if err := readGob(s.MasterPath(year), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) SaveWeighted(year int, rows []stats.TeamGameStats) error {
	return writeGob(s.WeightedPath(year), rows)
}

func (s *Store) LoadWeighted(year int) ([]stats.TeamGameStats, error) {
	var rows []stats.TeamGameStats
	if err := readGob(s.WeightedPath(year), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) SaveTraining(examples []stats.TrainingExample) error {
	return writeGob(s.TrainingPath(), examples)
}

func (s *Store) LoadTraining() ([]stats.TrainingExample, error) {
	var examples []stats.TrainingExample
	if err := readGob(s.TrainingPath(), &examples); err != nil {
		return nil, err
	}
	return examples, nil
}

func (s *Store) SaveGamesIndex(months []stats.ScheduleMonth) error {
	return writeGob(s.GamesIndexPath(), months)
}

func (s *Store) LoadGamesIndex() ([]stats.ScheduleMonth, error) {
	var months []stats.ScheduleMonth
	if err := readGob(s.GamesIndexPath(), &months); err != nil {
		return nil, err
	}
	return months, nil
}

func (s *Store) SaveTeamsIndex(seasons []stats.TeamSeason) error {
	return writeGob(s.TeamsIndexPath(), seasons)
}

func (s *Store) LoadTeamsIndex() ([]stats.TeamSeason, error) {
	var seasons []stats.TeamSeason
	if err := readGob(s.TeamsIndexPath(), &seasons); err != nil {
		return nil, err
	}
	return seasons, nil
}

// BoxscoreYears lists the seasons that have a boxscore artifact, ascending.
func (s *Store) BoxscoreYears() ([]int, error) {
	return artifactYears(filepath.Join(s.dir, "boxscores"), "")
}

// WeightedYears lists the seasons that have a weighted-stats artifact,
// ascending.
func (s *Store) WeightedYears() ([]int, error) {
	return artifactYears(filepath.Join(s.dir, "weighted"), "_weighted")
}

// Combine concatenates every per-season boxscore table into one ordered
// table, season ascending, preserving within-season row order.
func (s *Store) Combine() ([]stats.Game, error) {
	years, err := s.BoxscoreYears()
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("no boxscore files found in %s", filepath.Join(s.dir, "boxscores"))
	}

	var all []stats.Game
	for _, year := range years {
		games, err := s.LoadBoxscores(year)
		if err != nil {
			return nil, fmt.Errorf("load boxscores for %d: %w", year, err)
		}
		all = append(all, games...)
	}
	return all, nil
}

// SplitBySeason partitions a combined table back into per-season tables,
// preserving row order. Combine followed by SplitBySeason recovers the
// original per-season row sets.
func SplitBySeason(games []stats.Game) map[int][]stats.Game {
	seasons := make(map[int][]stats.Game)
	for _, g := range games {
		seasons[g.Season] = append(seasons[g.Season], g)
	}
	return seasons
}

// Years returns the season keys of a split table, ascending.
func Years(seasons map[int][]stats.Game) []int {
	years := make([]int, 0, len(seasons))
	for y := range seasons {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func artifactYears(dir, suffix string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var years []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".gob") {
			continue
		}
		name = strings.TrimSuffix(name, ".gob")
		name = strings.TrimSuffix(name, suffix)
		year, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}

func writeGob(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
