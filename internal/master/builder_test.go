package master

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evansbrianrobert/NBAStats/internal/playermeta"
	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

// fakeSource serves player metadata from memory, mirroring the store's
// lookup semantics: exact (year, team, name) first, (year, name) fallback.
type fakeSource struct {
	players []stats.PlayerMeta
}

func (f *fakeSource) Lookup(_ context.Context, year int, team, name string) (*stats.PlayerMeta, error) {
	for _, p := range f.players {
		if p.Year == year && p.Team == team && p.Name == name {
			meta := p
			return &meta, nil
		}
	}
	return nil, playermeta.ErrNotFound
}

func (f *fakeSource) LookupByName(_ context.Context, year int, name string) ([]stats.PlayerMeta, error) {
	var matches []stats.PlayerMeta
	for _, p := range f.players {
		if p.Year == year && p.Name == name {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return nil, playermeta.ErrNotFound
	}
	return matches, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func playedLine(name string, fga float64) stats.BasicLine {
	return stats.BasicLine{Player: name, MP: 1800, FGA: fga, PTS: 10}
}

func advLine(name string) stats.AdvancedLine {
	return stats.AdvancedLine{Player: name, MP: 1800, ORtg: 110, DRtg: 105}
}

func simpleGame(year int) stats.Game {
	return stats.Game{
		Season: year,
		Home:   "LAL",
		Away:   "GSW",
		HomeBasic: []stats.BasicLine{
			playedLine("LeBron James", 18),
			playedLine("Anthony Davis", 15),
		},
		HomeAdvanced: []stats.AdvancedLine{
			advLine("LeBron James"),
			advLine("Anthony Davis"),
		},
		AwayBasic: []stats.BasicLine{
			playedLine("Stephen Curry", 20),
		},
		AwayAdvanced: []stats.AdvancedLine{
			advLine("Stephen Curry"),
		},
	}
}

func simpleMeta(year int) *fakeSource {
	return &fakeSource{players: []stats.PlayerMeta{
		{PlayerIdx: 1, Year: year, Team: "LAL", Name: "LeBron James"},
		{PlayerIdx: 2, Year: year, Team: "LAL", Name: "Anthony Davis"},
		{PlayerIdx: 3, Year: year, Team: "GSW", Name: "Stephen Curry"},
	}}
}

func TestBuildSeasonJoinsBothSides(t *testing.T) {
	b := NewBuilder(simpleMeta(2020), nil, testLogger())

	rows, err := b.BuildSeason(context.Background(), []stats.Game{simpleGame(2020)}, 2020)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Home rows first, then away.
	assert.Equal(t, 1, rows[0].PlayerIdx)
	assert.True(t, rows[0].Home)
	assert.Equal(t, 2, rows[1].PlayerIdx)
	assert.Equal(t, 3, rows[2].PlayerIdx)
	assert.False(t, rows[2].Home)

	for _, r := range rows {
		assert.Equal(t, 0, r.GameIdx)
		assert.Equal(t, "LAL", r.HomeTeam)
		assert.Equal(t, "GSW", r.AwayTeam)
	}

	assert.Equal(t, []int{1, 2}, rows[0].Team)
	assert.Equal(t, []int{3}, rows[0].Opponent)
	assert.Equal(t, []int{3}, rows[2].Team)
	assert.Equal(t, []int{1, 2}, rows[2].Opponent)

	assert.Equal(t, 110.0, rows[0].Advanced.ORtg)
}

func TestBuildSeasonExcludesDidNotPlay(t *testing.T) {
	game := simpleGame(2020)
	game.HomeBasic = append(game.HomeBasic, stats.BasicLine{
		Player: "Bench Warmer", FGA: stats.Missing(),
	})

	b := NewBuilder(simpleMeta(2020), nil, testLogger())
	rows, err := b.BuildSeason(context.Background(), []stats.Game{game}, 2020)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestBuildSeasonSkipsFailedGameKeepsIndex(t *testing.T) {
	games := []stats.Game{
		{Season: 2020, Home: "MIA", Failed: true},
		simpleGame(2020),
	}

	b := NewBuilder(simpleMeta(2020), nil, testLogger())
	rows, err := b.BuildSeason(context.Background(), games, 2020)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].GameIdx)
}

func TestBuildSeasonAppliesNameOverride(t *testing.T) {
	game := simpleGame(2020)
	// The boxscore page carries a garbled spelling; both tables use it.
	game.AwayBasic[0].Player = "Peja Stojakoviæ"
	game.AwayAdvanced[0].Player = "Peja Stojakoviæ"

	meta := simpleMeta(2020)
	meta.players = append(meta.players, stats.PlayerMeta{
		PlayerIdx: 9, Year: 2020, Team: "GSW", Name: "Peja Stojaković",
	})

	overrides := map[string]string{"Peja Stojakoviæ": "Peja Stojaković"}
	b := NewBuilder(meta, overrides, testLogger())

	rows, err := b.BuildSeason(context.Background(), []stats.Game{game}, 2020)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 9, rows[2].PlayerIdx)
}

func TestBuildSeasonNameFallbackForTradedPlayer(t *testing.T) {
	game := simpleGame(2020)

	// Curry's metadata row carries his pre-trade team, so the exact
	// lookup misses and the name-only fallback must find him.
	meta := simpleMeta(2020)
	meta.players[2].Team = "CLE"

	b := NewBuilder(meta, nil, testLogger())
	rows, err := b.BuildSeason(context.Background(), []stats.Game{game}, 2020)
	require.NoError(t, err)
	assert.Equal(t, 3, rows[2].PlayerIdx)
}

func TestBuildSeasonAmbiguousFallbackFails(t *testing.T) {
	game := simpleGame(2020)
	meta := simpleMeta(2020)
	meta.players[2].Team = "CLE"
	meta.players = append(meta.players, stats.PlayerMeta{
		PlayerIdx: 99, Year: 2020, Team: "NYK", Name: "Stephen Curry",
	})

	b := NewBuilder(meta, nil, testLogger())
	_, err := b.BuildSeason(context.Background(), []stats.Game{game}, 2020)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousPlayer)
}

func TestBuildSeasonFallbackTradedRowsShareIndex(t *testing.T) {
	game := simpleGame(2020)
	meta := simpleMeta(2020)
	meta.players[2].Team = "CLE"
	// A traded player's second metadata row keeps the same index, so
	// the fallback is unambiguous.
	meta.players = append(meta.players, stats.PlayerMeta{
		PlayerIdx: 3, Year: 2020, Team: "POR", Name: "Stephen Curry",
	})

	b := NewBuilder(meta, nil, testLogger())
	rows, err := b.BuildSeason(context.Background(), []stats.Game{game}, 2020)
	require.NoError(t, err)
	assert.Equal(t, 3, rows[2].PlayerIdx)
}

func TestBuildSeasonUnknownPlayerFails(t *testing.T) {
	game := simpleGame(2020)
	game.HomeBasic[0].Player = "Total Unknown"
	game.HomeAdvanced[0].Player = "Total Unknown"

	b := NewBuilder(simpleMeta(2020), nil, testLogger())
	_, err := b.BuildSeason(context.Background(), []stats.Game{game}, 2020)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Contains(t, err.Error(), "Total Unknown")
	assert.Contains(t, err.Error(), "2020")
}

func TestBuildSeasonMissingAdvancedRowFails(t *testing.T) {
	game := simpleGame(2020)
	game.AwayAdvanced = nil

	b := NewBuilder(simpleMeta(2020), nil, testLogger())
	_, err := b.BuildSeason(context.Background(), []stats.Game{game}, 2020)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAdvancedMatch)
	assert.Contains(t, err.Error(), "Stephen Curry")
}
