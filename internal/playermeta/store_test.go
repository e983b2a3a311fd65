package playermeta

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "players.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	meta := stats.PlayerMeta{
		PlayerIdx: 17, Year: 2020, Team: "LAL", Name: "LeBron James",
		Pos: "F", HeightIn: 81, WeightLb: 250, BirthYear: 1984, Experience: 17,
	}
	require.NoError(t, s.Insert(ctx, meta))

	got, err := s.Lookup(ctx, 2020, "LAL", "LeBron James")
	require.NoError(t, err)
	assert.Equal(t, meta, *got)

	_, err = s.Lookup(ctx, 2020, "LAL", "Nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Lookup(ctx, 2019, "LAL", "LeBron James")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertReplacesExistingKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	meta := stats.PlayerMeta{PlayerIdx: 1, Year: 2020, Team: "BOS", Name: "Jayson Tatum", Experience: 3}
	require.NoError(t, s.Insert(ctx, meta))

	meta.Experience = 4
	require.NoError(t, s.Insert(ctx, meta))

	got, err := s.Lookup(ctx, 2020, "BOS", "Jayson Tatum")
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Experience)
}

func TestLookupByNameReturnsTradedRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// A traded player has one row per team, sharing the index.
	require.NoError(t, s.Insert(ctx, stats.PlayerMeta{
		PlayerIdx: 5, Year: 2020, Team: "HOU", Name: "James Harden",
	}))
	require.NoError(t, s.Insert(ctx, stats.PlayerMeta{
		PlayerIdx: 5, Year: 2020, Team: "BKN", Name: "James Harden",
	}))

	matches, err := s.LookupByName(ctx, 2020, "James Harden")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "BKN", matches[0].Team)
	assert.Equal(t, "HOU", matches[1].Team)
	assert.Equal(t, matches[0].PlayerIdx, matches[1].PlayerIdx)

	_, err = s.LookupByName(ctx, 2021, "James Harden")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImportCSV(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	csvData := strings.Join([]string{
		"player_idx,year,team,name,pos,height_in,weight_lb,birth_year,experience",
		"1,2020,LAL,LeBron James,F,81,250,1984,17",
		"2,2020,GSW,Stephen Curry,G,74,185,1988,11",
		"2,2020,GSW,Stephen Curry,G,74,185,1988,11",
	}, "\n")

	count, err := s.ImportCSV(ctx, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	got, err := s.Lookup(ctx, 2020, "GSW", "Stephen Curry")
	require.NoError(t, err)
	assert.Equal(t, 2, got.PlayerIdx)
	assert.Equal(t, 74.0, got.HeightIn)
	assert.Equal(t, 1988, got.BirthYear)
}

func TestImportCSVColumnOrderIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	csvData := strings.Join([]string{
		"name,team,year,player_idx",
		"Nikola Jokic,DEN,2021,42",
	}, "\n")

	count, err := s.ImportCSV(ctx, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := s.Lookup(ctx, 2021, "DEN", "Nikola Jokic")
	require.NoError(t, err)
	assert.Equal(t, 42, got.PlayerIdx)
	assert.Equal(t, "", got.Pos)
}

func TestImportCSVMissingRequiredColumn(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ImportCSV(context.Background(), strings.NewReader("name,team\nA,B"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "player_idx")
}

func TestImportCSVBadRow(t *testing.T) {
	s := openTestStore(t)

	csvData := strings.Join([]string{
		"player_idx,year,team,name",
		"not-a-number,2020,LAL,Someone",
	}, "\n")

	_, err := s.ImportCSV(context.Background(), strings.NewReader(csvData))
	assert.Error(t, err)
}
