package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/evansbrianrobert/NBAStats/internal/api/rest"
	"github.com/evansbrianrobert/NBAStats/internal/cache"
	"github.com/evansbrianrobert/NBAStats/internal/config"
	"github.com/evansbrianrobert/NBAStats/internal/dataset"
	"github.com/evansbrianrobert/NBAStats/internal/fetch"
	"github.com/evansbrianrobert/NBAStats/internal/logging"
	"github.com/evansbrianrobert/NBAStats/internal/master"
	"github.com/evansbrianrobert/NBAStats/internal/model"
	"github.com/evansbrianrobert/NBAStats/internal/playermeta"
	"github.com/evansbrianrobert/NBAStats/internal/scrape"
	"github.com/evansbrianrobert/NBAStats/internal/stats"
	"github.com/evansbrianrobert/NBAStats/internal/store"
	"github.com/evansbrianrobert/NBAStats/internal/training"
	"github.com/evansbrianrobert/NBAStats/internal/weighted"
)

const appName = "nbastats"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [flags]

Pipeline commands, in data-flow order:
  scrape          Scrape boxscore pages into per-season tables
  scrape-teams    Scrape team abbreviations per season
  combine         Concatenate per-season boxscore tables
  build-master    Join boxscores with player metadata into master tables
  weighted-stats  Aggregate master rows into team-game stat tables
  make-training   Build the rolling-history training set
  train           Fit and evaluate the baseline classifier

Supporting commands:
  import-players  Import player metadata CSV into the local database
  load            Load built artifacts into Postgres
  serve           Serve built artifacts over HTTP

Run "%s <command> -h" for command flags.
`, appName, appName)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "scrape":
		err = runScrape(ctx, cfg, log, args)
	case "scrape-teams":
		err = runScrapeTeams(ctx, cfg, log, args)
	case "combine":
		err = runCombine(cfg, log, args)
	case "build-master":
		err = runBuildMaster(ctx, cfg, log, args)
	case "weighted-stats":
		err = runWeightedStats(cfg, log, args)
	case "make-training":
		err = runMakeTraining(cfg, log, args)
	case "train":
		err = runTrainBaseline(cfg, log, args)
	case "import-players":
		err = runImportPlayers(ctx, cfg, log, args)
	case "load":
		err = runLoad(ctx, cfg, log, args)
	case "serve":
		err = runServe(ctx, cfg, log, args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n\n", appName, cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.WithError(err).Fatalf("%s failed", cmd)
	}
}

// newFetcher builds the polite HTTP client, with a Redis page cache when
// one is configured.
func newFetcher(cfg *config.Config, rps float64, log *logrus.Logger) (*fetch.Client, func()) {
	var pageCache *cache.PageCache
	if cfg.RedisURL != "" {
		pc, err := cache.New(cfg.RedisURL, cfg.PageCacheTTL)
		if err != nil {
			log.WithError(err).Warn("page cache unavailable, fetching without it")
		} else {
			pageCache = pc
		}
	}

	client := fetch.NewClient(fetch.Options{
		RequestsPerSecond: rps,
		UserAgent:         cfg.UserAgent,
		Cache:             pageCache,
	}, log)

	return client, func() { pageCache.Close() }
}

func runScrape(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	dataDir := fs.String("data-dir", cfg.DataDir, "Base data directory")
	startYear := fs.Int("start-year", cfg.StartYear, "First season to scrape")
	endYear := fs.Int("end-year", cfg.EndYear, "Last season to scrape")
	rps := fs.Float64("rps", cfg.RequestsPerSecond, "Requests per second")
	overwrite := fs.Bool("overwrite", false, "Re-scrape seasons with existing files")
	fs.Parse(args)

	client, closeCache := newFetcher(cfg, *rps, log)
	defer closeCache()

	scraper := scrape.New(client, dataset.New(*dataDir), log)
	return scraper.Boxscores(ctx, *startYear, *endYear, *overwrite)
}

func runScrapeTeams(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("scrape-teams", flag.ExitOnError)
	dataDir := fs.String("data-dir", cfg.DataDir, "Base data directory")
	startYear := fs.Int("start-year", cfg.StartYear, "First season")
	endYear := fs.Int("end-year", cfg.EndYear, "Last season")
	rps := fs.Float64("rps", cfg.RequestsPerSecond, "Requests per second")
	fs.Parse(args)

	client, closeCache := newFetcher(cfg, *rps, log)
	defer closeCache()

	scraper := scrape.New(client, dataset.New(*dataDir), log)
	_, err := scraper.TeamList(ctx, *startYear, *endYear)
	return err
}

func runCombine(cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("combine", flag.ExitOnError)
	dataDir := fs.String("data-dir", cfg.DataDir, "Base data directory")
	fs.Parse(args)

	ds := dataset.New(*dataDir)
	games, err := ds.Combine()
	if err != nil {
		return err
	}
	if err := ds.SaveAllYears(games); err != nil {
		return err
	}
	log.WithField("rows", len(games)).Info("wrote combined boxscores")
	return nil
}

func runBuildMaster(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("build-master", flag.ExitOnError)
	dataDir := fs.String("data-dir", cfg.DataDir, "Base data directory")
	playerDB := fs.String("player-db", cfg.PlayerDB, "Player metadata SQLite path")
	overwrite := fs.Bool("overwrite", false, "Rebuild seasons with existing files")
	fs.Parse(args)

	ds := dataset.New(*dataDir)
	games, err := ds.LoadAllYears()
	if err != nil {
		return fmt.Errorf("load combined boxscores (run combine first): %w", err)
	}

	meta, err := playermeta.Open(*playerDB)
	if err != nil {
		return err
	}
	defer meta.Close()

	builder := master.NewBuilder(meta, cfg.NameOverrides, log)

	seasons := dataset.SplitBySeason(games)
	for _, year := range dataset.Years(seasons) {
		if ds.Exists(ds.MasterPath(year)) && !*overwrite {
			log.WithField("year", year).Info("skipping existing master file")
			continue
		}

		rows, err := builder.BuildSeason(ctx, seasons[year], year)
		if err != nil {
			return fmt.Errorf("build master for %d: %w", year, err)
		}
		if err := ds.SaveMaster(year, rows); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"year": year, "rows": len(rows)}).Info("wrote master table")
	}
	return nil
}

func runWeightedStats(cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("weighted-stats", flag.ExitOnError)
	dataDir := fs.String("data-dir", cfg.DataDir, "Base data directory")
	startYear := fs.Int("start-year", cfg.StartYear, "First season")
	endYear := fs.Int("end-year", cfg.EndYear, "Last season")
	overwrite := fs.Bool("overwrite", false, "Rebuild seasons with existing files")
	fs.Parse(args)

	ds := dataset.New(*dataDir)
	for year := *startYear; year <= *endYear; year++ {
		if !ds.Exists(ds.MasterPath(year)) {
			log.WithField("year", year).Warn("missing master file, skipping season")
			continue
		}
		if ds.Exists(ds.WeightedPath(year)) && !*overwrite {
			log.WithField("year", year).Info("skipping existing weighted file")
			continue
		}

		rows, err := ds.LoadMaster(year)
		if err != nil {
			return err
		}
		out := weighted.Aggregate(rows)
		if err := ds.SaveWeighted(year, out); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"year": year, "rows": len(out)}).Info("wrote weighted stats")
	}
	return nil
}

func runMakeTraining(cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("make-training", flag.ExitOnError)
	dataDir := fs.String("data-dir", cfg.DataDir, "Base data directory")
	startYear := fs.Int("start-year", cfg.StartYear, "First season")
	endYear := fs.Int("end-year", cfg.EndYear, "Last season")
	minHistory := fs.Int("min-history", cfg.MinHistory, "Trailing window size per team")
	fs.Parse(args)

	ds := dataset.New(*dataDir)
	builder := training.NewBuilder(*minHistory, log)

	input := make(map[int][]stats.TeamGameStats)
	for year := *startYear; year <= *endYear; year++ {
		if !ds.Exists(ds.WeightedPath(year)) {
			log.WithField("year", year).Warn("missing weighted stats, skipping season")
			continue
		}
		rows, err := ds.LoadWeighted(year)
		if err != nil {
			return err
		}
		input[year] = rows
	}

	out := builder.Build(input)
	if err := ds.SaveTraining(out); err != nil {
		return err
	}
	log.WithField("examples", len(out)).Info("wrote training set")
	return nil
}

func runTrainBaseline(cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	dataDir := fs.String("data-dir", cfg.DataDir, "Base data directory")
	testFrac := fs.Float64("test-frac", 0.2, "Held-out test fraction")
	seed := fs.Int64("seed", 0, "Split shuffle seed")
	fs.Parse(args)

	ds := dataset.New(*dataDir)
	examples, err := ds.LoadTraining()
	if err != nil {
		return fmt.Errorf("load training set (run make-training first): %w", err)
	}

	fitted, metrics, err := model.Train(examples, *testFrac, *seed, log)
	if err != nil {
		return err
	}
	if err := fitted.Save(ds.ModelPath()); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"accuracy":   metrics.Accuracy,
		"roc_auc":    metrics.ROCAUC,
		"n_train":    metrics.NTrain,
		"n_test":     metrics.NTest,
		"n_features": metrics.NFeatures,
		"model":      ds.ModelPath(),
	}).Info("baseline trained")
	return nil
}

func runImportPlayers(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("import-players", flag.ExitOnError)
	playerDB := fs.String("player-db", cfg.PlayerDB, "Player metadata SQLite path")
	csvPath := fs.String("csv", "", "Player metadata CSV to import")
	fs.Parse(args)

	if *csvPath == "" {
		return fmt.Errorf("import-players requires -csv")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	meta, err := playermeta.Open(*playerDB)
	if err != nil {
		return err
	}
	defer meta.Close()

	count, err := meta.ImportCSV(ctx, f)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"rows": count, "db": *playerDB}).Info("imported player metadata")
	return nil
}

func runLoad(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	dataDir := fs.String("data-dir", cfg.DataDir, "Base data directory")
	dsn := fs.String("dsn", cfg.PostgresDSN, "Postgres DSN")
	fs.Parse(args)

	if *dsn == "" {
		return fmt.Errorf("load requires a Postgres DSN (-dsn or NBASTATS_POSTGRES_DSN)")
	}

	db, err := store.NewDatabase(*dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return err
	}

	ds := dataset.New(*dataDir)
	years, err := ds.WeightedYears()
	if err != nil {
		return err
	}
	for _, year := range years {
		rows, err := ds.LoadWeighted(year)
		if err != nil {
			return err
		}
		if err := db.UpsertTeamGameStats(ctx, year, rows); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"year": year, "rows": len(rows)}).Info("loaded weighted stats")
	}

	if ds.Exists(ds.TrainingPath()) {
		examples, err := ds.LoadTraining()
		if err != nil {
			return err
		}
		if err := db.UpsertTrainingExamples(ctx, examples); err != nil {
			return err
		}
		log.WithField("examples", len(examples)).Info("loaded training set")
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dataDir := fs.String("data-dir", cfg.DataDir, "Base data directory")
	port := fs.String("port", cfg.HTTPPort, "HTTP listen port")
	fs.Parse(args)

	server := rest.NewServer(*port, dataset.New(*dataDir), log)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", *port).Info("serving artifacts")
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
