package weighted

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

func playerRow(gameIdx int, home bool, mp float64) stats.PlayerGameRow {
	return stats.PlayerGameRow{
		GameIdx:  gameIdx,
		Home:     home,
		HomeTeam: "LAL",
		AwayTeam: "GSW",
		Basic: stats.BasicLine{
			MP: mp, FG: 5, FGA: 10, ThreeP: 1, ThreePA: 2,
			FT: 2, FTA: 2, PTS: 13,
		},
		Advanced: stats.AdvancedLine{
			ORtg: 110, DRtg: 105, TOVPct: 10,
			BLKPct: 2, ORBPct: 4, DRBPct: 20, TRBPct: 12,
			ASTPct: 15, STLPct: 1.5,
		},
	}
}

func TestAggregateEmitsTwoRowsPerGameInOrder(t *testing.T) {
	rows := []stats.PlayerGameRow{
		playerRow(1, true, 1440),
		playerRow(1, false, 1440),
		playerRow(0, true, 1440),
		playerRow(0, false, 1440),
	}

	out := Aggregate(rows)
	require.Len(t, out, 4)

	for i, r := range out {
		assert.Equal(t, i, r.Seq)
	}
	assert.Equal(t, 0, out[0].GameIdx)
	assert.True(t, out[0].Home)
	assert.Equal(t, 0, out[1].GameIdx)
	assert.False(t, out[1].Home)
	assert.Equal(t, 1, out[2].GameIdx)
	assert.Equal(t, "LAL", out[0].HomeTeam)
	assert.Equal(t, "GSW", out[0].AwayTeam)
}

func TestTeamStatsHandComputed(t *testing.T) {
	p1 := playerRow(0, true, 1440)
	p1.Basic = stats.BasicLine{
		MP: 1440, FG: 10, FGA: 20, ThreeP: 2, ThreePA: 6,
		FT: 4, FTA: 5, PTS: 26,
	}
	p1.Advanced = stats.AdvancedLine{
		ORtg: 120, DRtg: 100, TOVPct: 10,
		BLKPct: 2, ORBPct: 4, DRBPct: 20, TRBPct: 12,
		ASTPct: 25, STLPct: 1.5,
	}

	p2 := playerRow(0, true, 1440)
	p2.Advanced = stats.AdvancedLine{
		ORtg: 100, DRtg: 110, TOVPct: 12,
		BLKPct: 4, ORBPct: 6, DRBPct: 10, TRBPct: 8,
		ASTPct: 5, STLPct: 2.5,
	}

	out := Aggregate([]stats.PlayerGameRow{p1, p2})
	require.Len(t, out, 2)
	home := out[0]

	// Totals: FG 15, FGA 30, 3P 3, 3PA 8, FT 6, FTA 7, PTS 39.
	assert.InDelta(t, (15.0+3.0/2.0)/30.0, home.EFGPct, 1e-9)
	assert.InDelta(t, 7.0/30.0, home.FTr, 1e-9)
	assert.InDelta(t, 8.0/30.0, home.ThreePAr, 1e-9)
	assert.InDelta(t, 39.0/(2.0*(30.0+0.44*7.0)), home.TSPct, 1e-9)
	assert.InDelta(t, 6.0/7.0, home.FTPct, 1e-9)
	assert.InDelta(t, 39.0, home.PTS, 1e-9)

	// Each player logged half the 2880-second budget.
	assert.InDelta(t, (120.0*0.5+100.0*0.5)/5.0, home.ORtg, 1e-9)
	assert.InDelta(t, (100.0*0.5+110.0*0.5)/5.0, home.DRtg, 1e-9)
	assert.InDelta(t, (10.0*0.5+12.0*0.5)/5.0, home.TOVPct, 1e-9)
	assert.InDelta(t, 2.0*0.5+4.0*0.5, home.BLKPct, 1e-9)
	assert.InDelta(t, 20.0*0.5+10.0*0.5, home.DRBPct, 1e-9)
	assert.InDelta(t, 25.0*0.5+5.0*0.5, home.ASTPct, 1e-9)
}

func TestTeamStatsEFGStaysInRange(t *testing.T) {
	rows := []stats.PlayerGameRow{
		playerRow(0, true, 1440), playerRow(0, true, 1200), playerRow(0, false, 1440),
	}
	out := Aggregate(rows)
	for _, r := range out {
		assert.GreaterOrEqual(t, r.EFGPct, 0.0)
		assert.LessOrEqual(t, r.EFGPct, 1.5)
	}
}

func TestTeamStatsSkipsMissingValues(t *testing.T) {
	p1 := playerRow(0, true, 1440)
	p2 := playerRow(0, true, 1440)
	p2.Advanced.ORtg = stats.Missing()
	p2.Basic.PTS = stats.Missing()

	out := Aggregate([]stats.PlayerGameRow{p1, p2, playerRow(0, false, 1440)})
	home := out[0]

	// Only p1 contributes to ORtg and PTS.
	assert.InDelta(t, 110.0*0.5/5.0, home.ORtg, 1e-9)
	assert.InDelta(t, 13.0, home.PTS, 1e-9)
}

func TestTeamStatsZeroFreeThrowAttempts(t *testing.T) {
	p := playerRow(0, true, 1440)
	p.Basic.FT = 0
	p.Basic.FTA = 0

	out := Aggregate([]stats.PlayerGameRow{p, playerRow(0, false, 1440)})
	assert.True(t, stats.IsMissing(out[0].FTPct))
	assert.Equal(t, 0.0, out[0].FTr)
}

func TestTeamStatsZeroAttemptsDenominatorGuard(t *testing.T) {
	p := playerRow(0, true, 60)
	p.Basic = stats.BasicLine{MP: 60}

	out := Aggregate([]stats.PlayerGameRow{p, playerRow(0, false, 1440)})
	home := out[0]
	assert.Equal(t, 0.0, home.EFGPct)
	assert.Equal(t, 0.0, home.TSPct)
}

func TestAggregateEmptySideIsAllMissing(t *testing.T) {
	out := Aggregate([]stats.PlayerGameRow{playerRow(3, true, 1440)})
	require.Len(t, out, 2)

	away := out[1]
	assert.False(t, away.Home)
	assert.Equal(t, 3, away.GameIdx)
	for i, v := range away.Features() {
		assert.True(t, stats.IsMissing(v), "feature %s should be missing", stats.FeatureColumns[i])
	}
	assert.True(t, stats.IsMissing(away.PTS))
}
