package training

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

// DefaultMinHistory is the trailing-window size: the number of prior games
// each team must have before a game can become a training example.
const DefaultMinHistory = 20

// Builder turns season team-game tables into supervised-learning examples.
// Every window is cut on the explicit Seq ordering, never on slice
// position, so the no-leakage guarantee survives any upstream reordering.
type Builder struct {
	minHistory int
	log        *logrus.Entry
}

// NewBuilder creates a Builder with the given window size; sizes below one
// fall back to the default.
func NewBuilder(minHistory int, log *logrus.Logger) *Builder {
	if minHistory < 1 {
		minHistory = DefaultMinHistory
	}
	return &Builder{
		minHistory: minHistory,
		log:        log.WithField("component", "training"),
	}
}

// BuildSeason emits one training example per game with sufficient history
// on both sides. Games whose teams lack minHistory prior appearances are
// filtered out, not errors.
func (b *Builder) BuildSeason(year int, season []stats.TeamGameStats) []stats.TrainingExample {
	rows := make([]stats.TeamGameStats, len(season))
	copy(rows, season)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seq < rows[j].Seq })

	byGame := make(map[int][]stats.TeamGameStats)
	gameOrder := make([]int, 0)
	for _, r := range rows {
		if _, seen := byGame[r.GameIdx]; !seen {
			gameOrder = append(gameOrder, r.GameIdx)
		}
		byGame[r.GameIdx] = append(byGame[r.GameIdx], r)
	}

	var examples []stats.TrainingExample
	for _, gameIdx := range gameOrder {
		home, away, ok := splitGame(byGame[gameIdx])
		if !ok {
			continue
		}

		// The cutoff is the earlier of the two rows' season positions:
		// neither window may see this game's rows, including the
		// opponent's, or anything after.
		cutoff := home.Seq
		if away.Seq < cutoff {
			cutoff = away.Seq
		}

		homeHist := teamHistory(rows, home.HomeTeam, cutoff)
		awayHist := teamHistory(rows, away.AwayTeam, cutoff)
		if len(homeHist) < b.minHistory || len(awayHist) < b.minHistory {
			continue
		}

		homeMean := windowMean(homeHist[len(homeHist)-b.minHistory:])
		awayMean := windowMean(awayHist[len(awayHist)-b.minHistory:])

		features := make([]float64, len(homeMean))
		for i := range features {
			features[i] = homeMean[i] - awayMean[i]
		}

		examples = append(examples, stats.TrainingExample{
			Features:  features,
			ScoreDiff: home.PTS - away.PTS,
			HomeTeam:  home.HomeTeam,
			AwayTeam:  away.AwayTeam,
			GameIdx:   gameIdx,
			Year:      year,
		})
	}

	b.log.WithFields(logrus.Fields{
		"year": year, "games": len(gameOrder), "examples": len(examples),
	}).Info("built training examples")
	return examples
}

// Build processes every season in ascending year order and concatenates
// the results.
func (b *Builder) Build(seasons map[int][]stats.TeamGameStats) []stats.TrainingExample {
	years := make([]int, 0, len(seasons))
	for y := range seasons {
		years = append(years, y)
	}
	sort.Ints(years)

	var all []stats.TrainingExample
	for _, year := range years {
		all = append(all, b.BuildSeason(year, seasons[year])...)
	}
	return all
}

// splitGame picks the home and away rows of one game; games missing either
// side (sparse scrape output) are skipped.
func splitGame(rows []stats.TeamGameStats) (home, away stats.TeamGameStats, ok bool) {
	var haveHome, haveAway bool
	for _, r := range rows {
		if r.Home && !haveHome {
			home = r
			haveHome = true
		}
		if !r.Home && !haveAway {
			away = r
			haveAway = true
		}
	}
	return home, away, haveHome && haveAway
}

// teamHistory collects a team's own rows, home or away, with Seq strictly
// before the cutoff, in Seq order. rows must already be Seq-sorted.
func teamHistory(rows []stats.TeamGameStats, team string, cutoff int) []stats.TeamGameStats {
	var hist []stats.TeamGameStats
	for _, r := range rows {
		if r.Seq >= cutoff {
			break
		}
		if (r.Home && r.HomeTeam == team) || (!r.Home && r.AwayTeam == team) {
			hist = append(hist, r)
		}
	}
	return hist
}

// windowMean computes the per-column mean of the feature vector across the
// window, skipping missing values; a column that is missing everywhere
// stays missing.
func windowMean(window []stats.TeamGameStats) []float64 {
	mean := make([]float64, len(stats.FeatureColumns))
	counts := make([]int, len(mean))

	for _, r := range window {
		for i, v := range r.Features() {
			if !stats.IsMissing(v) {
				mean[i] += v
				counts[i]++
			}
		}
	}
	for i := range mean {
		if counts[i] == 0 {
			mean[i] = stats.Missing()
			continue
		}
		mean[i] /= float64(counts[i])
	}
	return mean
}
