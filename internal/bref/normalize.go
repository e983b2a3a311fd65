package bref

import (
	"strconv"
	"strings"

	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

const (
	basicCols    = 20
	advancedCols = 16

	// Subtotal separator position: the row introducing bench players sits
	// after the five starters in every boxscore table layout.
	reservesRow = 5
)

// ParseMinutes converts a clock-format minutes value ("MM:SS") to seconds.
// Malformed input yields 0.0, never an error; the source uses the minutes
// cell for "Did Not Play" annotations.
func ParseMinutes(mp string) float64 {
	parts := strings.Split(mp, ":")
	if len(parts) != 2 {
		return 0.0
	}
	mins, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0.0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0.0
	}
	return float64(mins*60 + secs)
}

// coerce parses a stat cell to float64. The source leaves percentage cells
// blank and sometimes fills counting cells with annotations, so coercion
// failure is recovered to the missing marker, never surfaced as an error.
func coerce(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return stats.Missing()
	}
	return v
}

// NormalizeBasic cleans one raw basic table: the reserves separator row and
// the trailing team-totals row are dropped, only the first 20 columns are
// kept, minutes become seconds and numeric fields are coerced.
func NormalizeBasic(t RawTable) []stats.BasicLine {
	cols := columnIndex(t.Header, basicCols)
	var lines []stats.BasicLine
	for _, row := range playerRows(t.Rows) {
		get := func(name string) float64 { return cellValue(row, cols, name, basicCols) }
		lines = append(lines, stats.BasicLine{
			Player:    cellText(row, cols, "Starters"),
			MP:        ParseMinutes(cellText(row, cols, "MP")),
			FG:        get("FG"),
			FGA:       get("FGA"),
			FGPct:     get("FG%"),
			ThreeP:    get("3P"),
			ThreePA:   get("3PA"),
			ThreePPct: get("3P%"),
			FT:        get("FT"),
			FTA:       get("FTA"),
			FTPct:     get("FT%"),
			ORB:       get("ORB"),
			DRB:       get("DRB"),
			TRB:       get("TRB"),
			AST:       get("AST"),
			STL:       get("STL"),
			BLK:       get("BLK"),
			TOV:       get("TOV"),
			PF:        get("PF"),
			PTS:       get("PTS"),
		})
	}
	return lines
}

// NormalizeAdvanced cleans one raw advanced table, keeping the first 16
// columns.
func NormalizeAdvanced(t RawTable) []stats.AdvancedLine {
	cols := columnIndex(t.Header, advancedCols)
	var lines []stats.AdvancedLine
	for _, row := range playerRows(t.Rows) {
		get := func(name string) float64 { return cellValue(row, cols, name, advancedCols) }
		lines = append(lines, stats.AdvancedLine{
			Player:   cellText(row, cols, "Starters"),
			MP:       ParseMinutes(cellText(row, cols, "MP")),
			TSPct:    get("TS%"),
			EFGPct:   get("eFG%"),
			ThreePAr: get("3PAr"),
			FTr:      get("FTr"),
			ORBPct:   get("ORB%"),
			DRBPct:   get("DRB%"),
			TRBPct:   get("TRB%"),
			ASTPct:   get("AST%"),
			STLPct:   get("STL%"),
			BLKPct:   get("BLK%"),
			TOVPct:   get("TOV%"),
			USGPct:   get("USG%"),
			ORtg:     get("ORtg"),
			DRtg:     get("DRtg"),
		})
	}
	return lines
}

// playerRows drops the reserves separator (row 5) and the team-totals row
// (last). Short tables keep whatever rows they have minus the trailing
// totals row.
func playerRows(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}
	body := rows[:len(rows)-1]
	if len(body) <= reservesRow {
		return body
	}
	kept := make([][]string, 0, len(body)-1)
	kept = append(kept, body[:reservesRow]...)
	kept = append(kept, body[reservesRow+1:]...)
	return kept
}

// columnIndex maps header names to cell positions, restricted to the first
// max columns. Columns past the cutoff are decorative duplicates in the
// source layout.
func columnIndex(header []string, max int) map[string]int {
	idx := make(map[string]int, max)
	for i, name := range header {
		if i >= max {
			break
		}
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

func cellText(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func cellValue(row []string, cols map[string]int, name string, max int) float64 {
	i, ok := cols[name]
	if !ok || i >= max || i >= len(row) {
		return stats.Missing()
	}
	return coerce(row[i])
}
