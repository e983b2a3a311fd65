package weighted

import (
	"sort"

	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

// teamSecondsBudget is the total on-court seconds for one team in a
// 48-minute game: five players times 48 minutes times 60.
const teamSecondsBudget = 2880.0

// Aggregate reduces a season's master rows to team-game stat rows: exactly
// two per game (home, away), in game order, each minutes-weighted across
// that side's players. Seq is assigned in emission order and is the
// season's chronological sequence from here on.
func Aggregate(rows []stats.PlayerGameRow) []stats.TeamGameStats {
	byGame := make(map[int][]stats.PlayerGameRow)
	for _, r := range rows {
		byGame[r.GameIdx] = append(byGame[r.GameIdx], r)
	}

	gameIdxs := make([]int, 0, len(byGame))
	for idx := range byGame {
		gameIdxs = append(gameIdxs, idx)
	}
	sort.Ints(gameIdxs)

	out := make([]stats.TeamGameStats, 0, 2*len(gameIdxs))
	for _, gameIdx := range gameIdxs {
		game := byGame[gameIdx]

		var home, away []stats.PlayerGameRow
		for _, r := range game {
			if r.Home {
				home = append(home, r)
			} else {
				away = append(away, r)
			}
		}

		homeTeam, awayTeam := game[0].HomeTeam, game[0].AwayTeam

		homeStats := teamStats(home)
		homeStats.Seq = len(out)
		homeStats.GameIdx = gameIdx
		homeStats.HomeTeam = homeTeam
		homeStats.AwayTeam = awayTeam
		homeStats.Home = true
		out = append(out, homeStats)

		awayStats := teamStats(away)
		awayStats.Seq = len(out)
		awayStats.GameIdx = gameIdx
		awayStats.HomeTeam = homeTeam
		awayStats.AwayTeam = awayTeam
		awayStats.Home = false
		out = append(out, awayStats)
	}
	return out
}

// teamStats computes the minutes-weighted aggregate for one side of one
// game. An empty player set (a scrape failure) yields an all-missing row;
// downstream tolerates sparse rows.
func teamStats(players []stats.PlayerGameRow) stats.TeamGameStats {
	if len(players) == 0 {
		return stats.TeamGameStats{
			EFGPct: stats.Missing(), DRtg: stats.Missing(), ORtg: stats.Missing(),
			TOVPct: stats.Missing(), BLKPct: stats.Missing(), ORBPct: stats.Missing(),
			DRBPct: stats.Missing(), TRBPct: stats.Missing(), ASTPct: stats.Missing(),
			STLPct: stats.Missing(), FTr: stats.Missing(), ThreePAr: stats.Missing(),
			TSPct: stats.Missing(), FTPct: stats.Missing(), PTS: stats.Missing(),
		}
	}

	var t stats.TeamGameStats

	fg := sum(players, func(p *stats.PlayerGameRow) float64 { return p.Basic.FG })
	fga := sum(players, func(p *stats.PlayerGameRow) float64 { return p.Basic.FGA })
	threeP := sum(players, func(p *stats.PlayerGameRow) float64 { return p.Basic.ThreeP })
	threePA := sum(players, func(p *stats.PlayerGameRow) float64 { return p.Basic.ThreePA })
	ft := sum(players, func(p *stats.PlayerGameRow) float64 { return p.Basic.FT })
	fta := sum(players, func(p *stats.PlayerGameRow) float64 { return p.Basic.FTA })
	pts := sum(players, func(p *stats.PlayerGameRow) float64 { return p.Basic.PTS })

	t.EFGPct = (fg + threeP/2.0) / max1(fga)

	// Ratings and turnover rate are per-player averages scaled by each
	// player's share of the 2880-second budget, divided across the five
	// on-court slots.
	t.DRtg = weightedSum(players, func(p *stats.PlayerGameRow) float64 { return p.Advanced.DRtg }) / 5.0
	t.ORtg = weightedSum(players, func(p *stats.PlayerGameRow) float64 { return p.Advanced.ORtg }) / 5.0
	t.TOVPct = weightedSum(players, func(p *stats.PlayerGameRow) float64 { return p.Advanced.TOVPct }) / 5.0

	// Rate percentages are already per-100-possession figures; the
	// minutes-weighted contributions sum without the /5.
	t.BLKPct = weightedSum(players, func(p *stats.PlayerGameRow) float64 { return p.Advanced.BLKPct })
	t.ORBPct = weightedSum(players, func(p *stats.PlayerGameRow) float64 { return p.Advanced.ORBPct })
	t.DRBPct = weightedSum(players, func(p *stats.PlayerGameRow) float64 { return p.Advanced.DRBPct })
	t.TRBPct = weightedSum(players, func(p *stats.PlayerGameRow) float64 { return p.Advanced.TRBPct })
	t.ASTPct = weightedSum(players, func(p *stats.PlayerGameRow) float64 { return p.Advanced.ASTPct })
	t.STLPct = weightedSum(players, func(p *stats.PlayerGameRow) float64 { return p.Advanced.STLPct })

	t.FTr = fta / max1(fga)
	t.ThreePAr = threePA / max1(fga)
	t.TSPct = pts / max1(2.0*(fga+0.44*fta))

	if fta > 0 {
		t.FTPct = ft / fta
	} else {
		t.FTPct = stats.Missing()
	}

	t.PTS = pts
	return t
}

// sum adds a stat across players, skipping missing values.
func sum(players []stats.PlayerGameRow, stat func(*stats.PlayerGameRow) float64) float64 {
	var total float64
	for i := range players {
		if v := stat(&players[i]); !stats.IsMissing(v) {
			total += v
		}
	}
	return total
}

// weightedSum adds stat × minutes/2880 across players, skipping missing
// values.
func weightedSum(players []stats.PlayerGameRow, stat func(*stats.PlayerGameRow) float64) float64 {
	var total float64
	for i := range players {
		v := stat(&players[i])
		if stats.IsMissing(v) {
			continue
		}
		contribution := v * players[i].Basic.MP / teamSecondsBudget
		if !stats.IsMissing(contribution) {
			total += contribution
		}
	}
	return total
}

// max1 guards ratio denominators against zero-attempt degenerate games.
func max1(v float64) float64 {
	if v > 1.0 {
		return v
	}
	return 1.0
}
