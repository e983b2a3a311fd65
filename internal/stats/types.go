package stats

import "math"

// Missing is the marker for a stat value that could not be parsed from the
// source page. The pipeline carries it through aggregation the same way the
// source data carries blanks: sums skip it, means skip it, and the Postgres
// sink maps it to NULL.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// BasicLine is one player's row from a boxscore basic table, after
// normalization. MP is in seconds. Unparseable fields are Missing.
type BasicLine struct {
	Player    string
	MP        float64
	FG        float64
	FGA       float64
	FGPct     float64
	ThreeP    float64
	ThreePA   float64
	ThreePPct float64
	FT        float64
	FTA       float64
	FTPct     float64
	ORB       float64
	DRB       float64
	TRB       float64
	AST       float64
	STL       float64
	BLK       float64
	TOV       float64
	PF        float64
	PTS       float64
}

// AdvancedLine is one player's row from a boxscore advanced table, after
// normalization.
type AdvancedLine struct {
	Player   string
	MP       float64
	TSPct    float64
	EFGPct   float64
	ThreePAr float64
	FTr      float64
	ORBPct   float64
	DRBPct   float64
	TRBPct   float64
	ASTPct   float64
	STLPct   float64
	BLKPct   float64
	TOVPct   float64
	USGPct   float64
	ORtg     float64
	DRtg     float64
}

// Game is one scraped contest: identifying fields plus the four normalized
// stat tables. A Game is immutable once the scraper emits it.
type Game struct {
	Season int
	Month  string
	Day    string
	Home   string
	Away   string

	HomeBasic    []BasicLine
	HomeAdvanced []AdvancedLine
	AwayBasic    []BasicLine
	AwayAdvanced []AdvancedLine

	// Failed marks a placeholder row for a game page that could not be
	// scraped. Downstream stages skip it but keep its game index.
	Failed bool
}

// PlayerMeta is season-scoped biographical data for one player, keyed by
// (Year, Team, Name) in the metadata store.
type PlayerMeta struct {
	PlayerIdx  int
	Year       int
	Team       string
	Name       string
	Pos        string
	HeightIn   float64
	WeightLb   float64
	BirthYear  int
	Experience float64
}

// PlayerGameRow is the master row: one player's full record for one game
// appearance, the join of boxscore basic, boxscore advanced, and season
// metadata.
type PlayerGameRow struct {
	GameIdx   int
	PlayerIdx int
	Home      bool

	// Team and Opponent are the player indices of each side, in box-score
	// order. Team always means the row's own side.
	Team     []int
	Opponent []int

	// HomeTeam and AwayTeam are the game's team codes, carried so the
	// aggregator can tag its output without re-deriving them.
	HomeTeam string
	AwayTeam string

	Meta     PlayerMeta
	Basic    BasicLine
	Advanced AdvancedLine
}

// TeamGameStats is the minutes-weighted aggregate of one team's player rows
// for one game. Exactly two rows exist per game, home and away, sharing
// GameIdx. Seq is the row's position in its season table and is the only
// ordering the training builder trusts.
type TeamGameStats struct {
	Seq      int
	GameIdx  int
	HomeTeam string
	AwayTeam string
	Home     bool

	EFGPct   float64
	DRtg     float64
	ORtg     float64
	TOVPct   float64
	BLKPct   float64
	ORBPct   float64
	DRBPct   float64
	TRBPct   float64
	ASTPct   float64
	STLPct   float64
	FTr      float64
	ThreePAr float64
	TSPct    float64
	FTPct    float64
	PTS      float64
}

// FeatureColumns names the TeamGameStats columns that feed the trailing
// window mean, in the order Features returns them. PTS, the team codes,
// GameIdx, Seq and the home flag are excluded.
var FeatureColumns = []string{
	"eFG%", "DRtg", "ORtg", "TOV%",
	"BLK%", "ORB%", "DRB%", "TRB%", "AST%", "STL%",
	"FTr", "3PAr", "TS%", "FT%",
}

// Features returns the mean-able stat vector in FeatureColumns order.
func (t TeamGameStats) Features() []float64 {
	return []float64{
		t.EFGPct, t.DRtg, t.ORtg, t.TOVPct,
		t.BLKPct, t.ORBPct, t.DRBPct, t.TRBPct, t.ASTPct, t.STLPct,
		t.FTr, t.ThreePAr, t.TSPct, t.FTPct,
	}
}

// TrainingExample is one supervised-learning row: the home-minus-away
// difference of each team's trailing-window feature means, labeled with the
// actual score differential.
type TrainingExample struct {
	// Features is ordered by FeatureColumns.
	Features  []float64
	ScoreDiff float64
	HomeTeam  string
	AwayTeam  string
	GameIdx   int
	Year      int
}

// ScheduleMonth is one month of a season's schedule: the boxscore game ids
// extracted from the schedule page.
type ScheduleMonth struct {
	Year    int
	Month   string
	GameIDs []string
}

// TeamSeason lists the team abbreviations active in one season.
type TeamSeason struct {
	Year  int
	Teams []string
}
