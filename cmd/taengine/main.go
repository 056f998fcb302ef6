package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/rodrigo-brito/taengine"
	"github.com/rodrigo-brito/taengine/config"
	"github.com/rodrigo-brito/taengine/export"
	"github.com/rodrigo-brito/taengine/feed"
	"github.com/rodrigo-brito/taengine/indicator"
	"github.com/rodrigo-brito/taengine/storage"
	"github.com/rodrigo-brito/taengine/tools/log"
)

// parseFeeds reads SYMBOL=FILE pairs.
func parseFeeds(values []string, timeframe string, heikinAshi bool) ([]feed.SymbolFeed, error) {
	feeds := make([]feed.SymbolFeed, 0, len(values))
	for _, value := range values {
		symbol, file, ok := strings.Cut(value, "=")
		if !ok || symbol == "" || file == "" {
			return nil, fmt.Errorf("invalid feed %q, expected SYMBOL=FILE", value)
		}
		feeds = append(feeds, feed.SymbolFeed{
			Symbol:     strings.ToUpper(symbol),
			File:       file,
			Timeframe:  timeframe,
			HeikinAshi: heikinAshi,
		})
	}
	return feeds, nil
}

func openStorage(c *cli.Context) (storage.Storage, error) {
	switch {
	case c.String("sqlite") != "":
		return storage.FromSQL(sqlite.Open(c.String("sqlite")))
	case c.String("bunt") != "":
		return storage.FromFile(c.String("bunt"))
	default:
		return storage.FromMemory()
	}
}

func loadFeed(c *cli.Context) (*feed.CSVFeed, error) {
	feeds, err := parseFeeds(c.StringSlice("feed"), c.String("timeframe"), c.Bool("heikin-ashi"))
	if err != nil {
		return nil, err
	}
	target := c.String("resample")
	if target == "" {
		target = c.String("timeframe")
	}

	csvFeed, err := feed.NewCSVFeed(target, feeds...)
	if err != nil {
		return nil, err
	}
	if days := c.Int("days"); days > 0 {
		csvFeed.Limit(time.Duration(days) * 24 * time.Hour)
	}
	return csvFeed, nil
}

var feedFlags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:     "feed",
		Aliases:  []string{"f"},
		Usage:    "eg. BTCUSDT=./btc.csv",
		Required: true,
	},
	&cli.StringFlag{
		Name:     "timeframe",
		Aliases:  []string{"t"},
		Usage:    "timeframe of the CSV bars, eg. 1h",
		Required: true,
	},
	&cli.StringFlag{
		Name:  "resample",
		Usage: "timeframe to compute on, eg. 1d (default to --timeframe)",
	},
	&cli.IntFlag{
		Name:    "days",
		Aliases: []string{"d"},
		Usage:   "only keep the last days of every feed",
	},
	&cli.BoolFlag{
		Name:  "heikin-ashi",
		Usage: "smooth the bars with Heikin-Ashi",
	},
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "eg. ./taengine.yml",
	},
}

var storageFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "bunt",
		Usage: "buntdb file, eg. ./records.db",
	},
	&cli.StringFlag{
		Name:  "sqlite",
		Usage: "sqlite file, eg. ./records.sqlite",
	},
}

func computeAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if !c.IsSet("log-level") {
		level, _ := cfg.Level()
		log.SetLevel(level)
	}

	csvFeed, err := loadFeed(c)
	if err != nil {
		return err
	}

	records, err := openStorage(c)
	if err != nil {
		return err
	}
	defer records.Close()

	backfill, err := taengine.New(cfg,
		taengine.WithStorage(records),
		taengine.WithProgress(c.Bool("progress")),
	)
	if err != nil {
		return err
	}
	if err := backfill.Run(c.Context, csvFeed.All()); err != nil {
		return err
	}
	for symbol, count := range backfill.Skipped() {
		log.Warnf("%s: %d invalid bars skipped", symbol, count)
	}

	if output := c.String("output"); output != "" {
		options := []export.Option{
			export.WithColumns(backfill.Columns()...),
			export.WithProgress(c.Bool("progress")),
		}
		if c.Bool("ready-only") {
			options = append(options, export.WithReadyOnly())
		}
		if err := export.NewExporter(records).Export(c.Context, output, options...); err != nil {
			return err
		}
	}

	if column := c.String("summary"); column != "" {
		return backfill.Summary(os.Stdout, column)
	}
	return nil
}

func summaryAction(c *cli.Context) error {
	if c.String("bunt") == "" && c.String("sqlite") == "" {
		return errors.New("--bunt or --sqlite is required")
	}
	source, err := openStorage(c)
	if err != nil {
		return err
	}
	defer source.Close()

	var filters []storage.RecordFilter
	if symbol := c.String("symbol"); symbol != "" {
		filters = append(filters, storage.WithSymbol(strings.ToUpper(symbol)))
	}
	records, err := source.Records(filters...)
	if err != nil {
		return err
	}
	return taengine.Summarize(os.Stdout, records, c.String("column"))
}

func resampleAction(c *cli.Context) error {
	csvFeed, err := loadFeed(c)
	if err != nil {
		return err
	}

	timeframe := csvFeed.TargetTimeframe
	for _, symbol := range csvFeed.Symbols() {
		path := filepath.Join(c.String("output-dir"), fmt.Sprintf("%s-%s.csv", strings.ToLower(symbol), timeframe))
		if err := csvFeed.WriteCSV(symbol, path, c.Int("precision")); err != nil {
			return err
		}
		log.WithField("symbol", symbol).Infof("%d bars saved to %s", len(csvFeed.Bars(symbol)), path)
	}
	return nil
}

func verifyAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	csvFeed, err := loadFeed(c)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Symbol", "Indicator", "Compared", "Max diff", "Status"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})

	tolerance := c.Float64("tolerance")
	failed := 0
	for _, symbol := range csvFeed.Symbols() {
		checks, err := verify(csvFeed.Bars(symbol), cfg.Indicators)
		if err != nil {
			return errors.Wrapf(err, "verify %s", symbol)
		}
		for _, check := range checks {
			status := "OK"
			if !check.diff.Within(tolerance) {
				status = "MISMATCH"
				failed++
			}
			table.Append([]string{
				symbol,
				check.name,
				fmt.Sprintf("%d", check.diff.Compared),
				fmt.Sprintf("%.3g", check.diff.MaxAbs),
				status,
			})
		}
	}
	table.Render()

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d indicators differ from TA-Lib by more than %g", failed, tolerance), 1)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:     "taengine",
		HelpName: "taengine",
		Usage:    "Technical indicator backfill",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: "info",
			},
		},
		Before: func(c *cli.Context) error {
			level, err := log.ParseLevel(c.String("log-level"))
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:     "compute",
				HelpName: "compute",
				Usage:    "Compute indicators from CSV bars",
				Flags: append(append(append([]cli.Flag{}, feedFlags...), storageFlags...),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "eg. ./indicators.csv",
					},
					&cli.BoolFlag{
						Name:  "ready-only",
						Usage: "skip rows with a column still warming up",
					},
					&cli.StringFlag{
						Name:  "summary",
						Usage: "print the statistics of a column, eg. rsi_14",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "show progress bars",
					},
				),
				Action: computeAction,
			},
			{
				Name:     "verify",
				HelpName: "verify",
				Usage:    "Compare the indicators with TA-Lib",
				Flags: append(append([]cli.Flag{}, feedFlags...),
					&cli.Float64Flag{
						Name:  "tolerance",
						Usage: "largest accepted absolute difference",
						Value: 1e-9,
					},
				),
				Action: verifyAction,
			},
			{
				Name:     "resample",
				HelpName: "resample",
				Usage:    "Save the bars of every feed in the --resample timeframe",
				Flags: append(append([]cli.Flag{}, feedFlags...),
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Value:   ".",
					},
					&cli.IntFlag{
						Name:  "precision",
						Usage: "decimal places, -1 keeps every significant digit",
						Value: -1,
					},
				),
				Action: resampleAction,
			},
			{
				Name:     "summary",
				HelpName: "summary",
				Usage:    "Summarize stored indicators",
				Flags: append(append([]cli.Flag{}, storageFlags...),
					&cli.StringFlag{
						Name:    "symbol",
						Aliases: []string{"s"},
					},
					&cli.StringFlag{
						Name:  "column",
						Value: indicator.RSIColumn(indicator.DefaultConfig().RSIPeriod),
					},
				),
				Action: summaryAction,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
