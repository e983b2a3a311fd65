package scrape

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/evansbrianrobert/NBAStats/internal/bref"
	"github.com/evansbrianrobert/NBAStats/internal/dataset"
	"github.com/evansbrianrobert/NBAStats/internal/fetch"
	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

const defaultBaseURL = "https://www.basketball-reference.com"

// Season months in schedule order. The site serves one schedule page per
// month per season.
var months = []string{
	"october", "november", "december", "january",
	"february", "march", "april", "may", "june",
}

// Scraper drives the fetcher through schedule and boxscore pages and
// persists per-season artifacts.
type Scraper struct {
	client  *fetch.Client
	store   *dataset.Store
	baseURL string
	log     *logrus.Entry
}

// New builds a Scraper.
func New(client *fetch.Client, store *dataset.Store, log *logrus.Logger) *Scraper {
	return &Scraper{
		client:  client,
		store:   store,
		baseURL: defaultBaseURL,
		log:     log.WithField("component", "scrape"),
	}
}

// Schedules scrapes the schedule pages for [startYear, endYear], collecting
// boxscore game ids per season month, and persists the games index.
// Missing months (short seasons) are skipped, not errors.
func (s *Scraper) Schedules(ctx context.Context, startYear, endYear int) ([]stats.ScheduleMonth, error) {
	var index []stats.ScheduleMonth
	for year := startYear; year <= endYear; year++ {
		for _, month := range months {
			url := fmt.Sprintf("%s/leagues/NBA_%d_games-%s.html", s.baseURL, year, month)
			page, err := s.client.Page(ctx, url)
			if err != nil {
				s.log.WithFields(logrus.Fields{"year": year, "month": month}).
					WithError(err).Warn("skipping schedule page")
				continue
			}
			ids := bref.ScheduleGameIDs(page.Links)
			if len(ids) == 0 {
				continue
			}
			index = append(index, stats.ScheduleMonth{Year: year, Month: month, GameIDs: ids})
		}
	}

	if err := s.store.SaveGamesIndex(index); err != nil {
		return nil, fmt.Errorf("save games index: %w", err)
	}
	s.log.WithField("months", len(index)).Info("wrote games index")
	return index, nil
}

// TeamList scrapes the league summary pages for [startYear, endYear] and
// persists the team abbreviations active in each season.
func (s *Scraper) TeamList(ctx context.Context, startYear, endYear int) ([]stats.TeamSeason, error) {
	var seasons []stats.TeamSeason
	for year := startYear; year <= endYear; year++ {
		url := fmt.Sprintf("%s/leagues/NBA_%d.html", s.baseURL, year)
		page, err := s.client.Page(ctx, url)
		if err != nil {
			s.log.WithField("year", year).WithError(err).Warn("skipping league page")
			continue
		}
		seasons = append(seasons, stats.TeamSeason{
			Year:  year,
			Teams: bref.TeamAbbrevs(page.Links, year),
		})
	}

	if err := s.store.SaveTeamsIndex(seasons); err != nil {
		return nil, fmt.Errorf("save teams index: %w", err)
	}
	s.log.WithField("seasons", len(seasons)).Info("wrote teams index")
	return seasons, nil
}

// Boxscores scrapes every game in the games index for [startYear, endYear]
// into per-year boxscore artifacts. Existing year files are skipped unless
// overwrite is set. A game page that fails to scrape becomes a placeholder
// row so the season keeps its game ordering.
func (s *Scraper) Boxscores(ctx context.Context, startYear, endYear int, overwrite bool) error {
	index, err := s.store.LoadGamesIndex()
	if err != nil {
		s.log.Info("no games index found, scraping schedules first")
		index, err = s.Schedules(ctx, startYear, endYear)
		if err != nil {
			return fmt.Errorf("build games index: %w", err)
		}
	}

	byYear := make(map[int][]stats.ScheduleMonth)
	for _, m := range index {
		byYear[m.Year] = append(byYear[m.Year], m)
	}

	for year := startYear; year <= endYear; year++ {
		yearLog := s.log.WithField("year", year)

		out := s.store.BoxscorePath(year)
		if s.store.Exists(out) && !overwrite {
			yearLog.Info("skipping existing boxscore file")
			continue
		}
		monthsForYear := byYear[year]
		if len(monthsForYear) == 0 {
			yearLog.Warn("no scheduled games for season")
			continue
		}

		var games []stats.Game
		for _, m := range monthsForYear {
			for _, gameID := range m.GameIDs {
				game, err := s.scrapeGame(ctx, year, m.Month, gameID)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					yearLog.WithField("game", gameID).WithError(err).Warn("scrape failed, keeping placeholder")
					game = &stats.Game{
						Season: year,
						Month:  m.Month,
						Day:    gameDay(gameID),
						Home:   bref.HomeTeamFromGameID(gameID),
						Failed: true,
					}
				}
				games = append(games, *game)
			}
		}

		if err := s.store.SaveBoxscores(year, games); err != nil {
			return fmt.Errorf("save boxscores for %d: %w", year, err)
		}
		yearLog.WithField("games", len(games)).Info("wrote boxscores")
	}
	return nil
}

func (s *Scraper) scrapeGame(ctx context.Context, year int, month, gameID string) (*stats.Game, error) {
	url := fmt.Sprintf("%s/boxscores/%s.html", s.baseURL, gameID)
	doc, err := s.client.Document(ctx, url)
	if err != nil {
		return nil, err
	}

	tables, err := bref.ParseBoxscoreTables(doc)
	if err != nil {
		return nil, err
	}

	page := fetch.PageFromDocument(doc)
	away, home, err := bref.GameTeams(page.Links)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"year": year, "month": month, "day": gameDay(gameID),
		"home": home, "away": away,
	}).Info("scraped game")

	return &stats.Game{
		Season:       year,
		Month:        month,
		Day:          gameDay(gameID),
		Home:         home,
		Away:         away,
		HomeBasic:    bref.NormalizeBasic(tables.HomeBasic),
		HomeAdvanced: bref.NormalizeAdvanced(tables.HomeAdvanced),
		AwayBasic:    bref.NormalizeBasic(tables.AwayBasic),
		AwayAdvanced: bref.NormalizeAdvanced(tables.AwayAdvanced),
	}, nil
}

// gameDay pulls the day-of-month out of a game id ("202110190LAL" -> "19").
func gameDay(gameID string) string {
	if len(gameID) < 8 {
		return ""
	}
	return gameID[6:8]
}
