package master

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/evansbrianrobert/NBAStats/internal/playermeta"
	"github.com/evansbrianrobert/NBAStats/internal/stats"
)

// Sentinel causes for a failed join. Wrapped errors carry the identifying
// keys (player, year, team, game index) needed to fix the upstream data.
var (
	ErrNoAdvancedMatch = errors.New("no advanced-table row for player")
	ErrPlayerNotFound  = errors.New("no metadata for player")
	ErrAmbiguousPlayer = errors.New("name-only fallback matched multiple players")
)

// Builder joins boxscore rows with season-scoped player metadata into
// master rows, one per player per game appearance. Join failures are fatal
// for the enclosing season build: a silently dropped player shrinks a
// roster and corrupts every downstream aggregate.
type Builder struct {
	meta      playermeta.Source
	overrides map[string]string
	log       *logrus.Entry
}

// NewBuilder creates a Builder. overrides maps garbled source spellings to
// canonical ones and is applied before every metadata lookup.
func NewBuilder(meta playermeta.Source, overrides map[string]string, log *logrus.Logger) *Builder {
	return &Builder{
		meta:      meta,
		overrides: overrides,
		log:       log.WithField("component", "master"),
	}
}

// BuildSeason produces the master table for one season. Games keep their
// positional index even when a scrape-failed placeholder emits no rows, so
// game indices stay aligned with the season's boxscore table.
func (b *Builder) BuildSeason(ctx context.Context, games []stats.Game, year int) ([]stats.PlayerGameRow, error) {
	var master []stats.PlayerGameRow

	for gameIdx, game := range games {
		if game.Failed {
			b.log.WithFields(logrus.Fields{"year": year, "gameIdx": gameIdx}).
				Warn("skipping scrape-failed game")
			continue
		}

		homeRows, err := b.sideRows(ctx, &game, gameIdx, true)
		if err != nil {
			return nil, err
		}
		awayRows, err := b.sideRows(ctx, &game, gameIdx, false)
		if err != nil {
			return nil, err
		}

		homeIdx := playerIndices(homeRows)
		awayIdx := playerIndices(awayRows)
		for i := range homeRows {
			homeRows[i].Team = homeIdx
			homeRows[i].Opponent = awayIdx
		}
		for i := range awayRows {
			awayRows[i].Team = awayIdx
			awayRows[i].Opponent = homeIdx
		}

		master = append(master, homeRows...)
		master = append(master, awayRows...)

		if gameIdx%100 == 0 {
			b.log.WithFields(logrus.Fields{"year": year, "gameIdx": gameIdx, "games": len(games)}).
				Info("building master rows")
		}
	}

	return master, nil
}

// sideRows builds one side's master rows for a game. Players without a
// recorded field-goal-attempts value did not play and are excluded.
func (b *Builder) sideRows(ctx context.Context, game *stats.Game, gameIdx int, home bool) ([]stats.PlayerGameRow, error) {
	team := game.Away
	basic := game.AwayBasic
	advanced := game.AwayAdvanced
	if home {
		team = game.Home
		basic = game.HomeBasic
		advanced = game.HomeAdvanced
	}

	var rows []stats.PlayerGameRow
	for _, line := range basic {
		if stats.IsMissing(line.FGA) {
			continue
		}

		adv, ok := advancedFor(advanced, line.Player)
		if !ok {
			return nil, fmt.Errorf("%w: player=%q year=%d team=%s gameIdx=%d",
				ErrNoAdvancedMatch, line.Player, game.Season, team, gameIdx)
		}

		meta, err := b.resolveMeta(ctx, game.Season, team, line.Player)
		if err != nil {
			return nil, fmt.Errorf("gameIdx=%d: %w", gameIdx, err)
		}

		rows = append(rows, stats.PlayerGameRow{
			GameIdx:   gameIdx,
			PlayerIdx: meta.PlayerIdx,
			Home:      home,
			HomeTeam:  game.Home,
			AwayTeam:  game.Away,
			Meta:      *meta,
			Basic:     line,
			Advanced:  adv,
		})
	}
	return rows, nil
}

// resolveMeta looks a player up by (year, team, name), falling back to
// (year, name) for mid-season trades where the metadata's team attribution
// lags the boxscore. A fallback that matches more than one distinct player
// is fatal: picking one would silently join the wrong player.
func (b *Builder) resolveMeta(ctx context.Context, year int, team, name string) (*stats.PlayerMeta, error) {
	if canonical, ok := b.overrides[name]; ok {
		name = canonical
	}

	meta, err := b.meta.Lookup(ctx, year, team, name)
	if err == nil {
		return meta, nil
	}
	if !errors.Is(err, playermeta.ErrNotFound) {
		return nil, fmt.Errorf("lookup player=%q year=%d team=%s: %w", name, year, team, err)
	}

	matches, err := b.meta.LookupByName(ctx, year, name)
	if errors.Is(err, playermeta.ErrNotFound) {
		return nil, fmt.Errorf("%w: player=%q year=%d team=%s", ErrPlayerNotFound, name, year, team)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup player=%q year=%d: %w", name, year, err)
	}

	if n := distinctPlayers(matches); n > 1 {
		return nil, fmt.Errorf("%w: player=%q year=%d team=%s matches=%d",
			ErrAmbiguousPlayer, name, year, team, n)
	}
	return &matches[0], nil
}

// advancedFor finds the advanced-table row for a player by exact name
// match; basic and advanced tables are one-to-one per game.
func advancedFor(advanced []stats.AdvancedLine, name string) (stats.AdvancedLine, bool) {
	for _, adv := range advanced {
		if adv.Player == name {
			return adv, true
		}
	}
	return stats.AdvancedLine{}, false
}

// distinctPlayers counts unique player indices; a traded player appears
// once per team with the same index.
func distinctPlayers(metas []stats.PlayerMeta) int {
	seen := make(map[int]bool, len(metas))
	for _, m := range metas {
		seen[m.PlayerIdx] = true
	}
	return len(seen)
}

func playerIndices(rows []stats.PlayerGameRow) []int {
	idx := make([]int, len(rows))
	for i, r := range rows {
		idx[i] = r.PlayerIdx
	}
	return idx
}
