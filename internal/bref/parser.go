package bref

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RawTable is a boxscore stat table as it appears on the page, before
// normalization: the header names from the last header row and one string
// slice per body row.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// BoxscoreTables holds the four raw tables of a game page in the order the
// rest of the pipeline expects them.
type BoxscoreTables struct {
	HomeBasic    RawTable
	HomeAdvanced RawTable
	AwayBasic    RawTable
	AwayAdvanced RawTable
}

// ParseBoxscoreTables extracts the four stat tables from a boxscore page.
// The page carries the away tables first and may include quarter-split
// tables between them; the basic and advanced full-game tables sit at
// positions 0, n/2-1, n/2 and n-1 of the document's table list.
func ParseBoxscoreTables(doc *goquery.Document) (*BoxscoreTables, error) {
	var tables []RawTable
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		tables = append(tables, parseTable(sel))
	})

	n := len(tables)
	if n < 4 {
		return nil, fmt.Errorf("boxscore page has %d tables, need at least 4", n)
	}

	return &BoxscoreTables{
		AwayBasic:    tables[0],
		AwayAdvanced: tables[n/2-1],
		HomeBasic:    tables[n/2],
		HomeAdvanced: tables[n-1],
	}, nil
}

// parseTable flattens one HTML table. Boxscore tables carry a two-row
// header ("Basic Box Score Stats" spanner over the column names); only the
// last header row holds real column names.
func parseTable(sel *goquery.Selection) RawTable {
	var t RawTable

	sel.Find("thead tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.HasClass("over_header") {
			return
		}
		var header []string
		tr.Find("th").Each(func(_ int, th *goquery.Selection) {
			header = append(header, strings.TrimSpace(th.Text()))
		})
		t.Header = header
	})

	sel.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, strings.TrimSpace(cell.Text()))
		})
		t.Rows = append(t.Rows, row)
	})

	return t
}

// ScheduleGameIDs pulls boxscore game ids from a schedule page's hrefs.
// Game links look like "/boxscores/202110190LAL.html".
func ScheduleGameIDs(links []string) []string {
	var ids []string
	for _, link := range links {
		if !strings.HasPrefix(link, "/") {
			continue
		}
		parts := strings.Split(link[1:], "/")
		if len(parts) == 2 && parts[0] == "boxscores" && strings.HasSuffix(parts[1], ".html") {
			ids = append(ids, strings.TrimSuffix(parts[1], ".html"))
		}
	}
	return ids
}

// TeamAbbrevs pulls the team codes for one season from a league summary
// page's hrefs. Team links look like "/teams/BOS/2020.html"; only links for
// the requested year count, and duplicates collapse in first-seen order.
func TeamAbbrevs(links []string, year int) []string {
	seen := make(map[string]bool)
	var teams []string
	for _, link := range links {
		if len(link) < 4 || !strings.HasPrefix(link, "/") {
			continue
		}
		parts := strings.Split(link[1:], "/")
		if len(parts) != 3 || parts[0] != "teams" || parts[1] == "" {
			continue
		}
		if parts[2] != fmt.Sprintf("%d.html", year) {
			continue
		}
		if !seen[parts[1]] {
			seen[parts[1]] = true
			teams = append(teams, parts[1])
		}
	}
	return teams
}

// GameTeams returns the two team codes on a boxscore page, away first then
// home, which is the order the page links them in.
func GameTeams(links []string) (away, home string, err error) {
	var teams []string
	for _, link := range links {
		if !strings.HasPrefix(link, "/") {
			continue
		}
		parts := strings.Split(link[1:], "/")
		if len(parts) > 2 && parts[0] == "teams" {
			teams = append(teams, parts[1])
		}
		if len(teams) == 2 {
			return teams[0], teams[1], nil
		}
	}
	return "", "", fmt.Errorf("boxscore page links name %d teams, need 2", len(teams))
}

// HomeTeamFromGameID recovers the home team code embedded in a boxscore
// game id ("202110190LAL" ends in the home code). Used to tag placeholder
// rows for games whose pages failed to scrape.
func HomeTeamFromGameID(gameID string) string {
	if len(gameID) < 3 {
		return gameID
	}
	return gameID[len(gameID)-3:]
}
