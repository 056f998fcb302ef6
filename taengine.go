// Package taengine computes indicator records for many symbols at once, merges them in
// time order and hands them to storage and subscribers.
package taengine

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/rodrigo-brito/taengine/config"
	"github.com/rodrigo-brito/taengine/indicator"
	"github.com/rodrigo-brito/taengine/model"
	"github.com/rodrigo-brito/taengine/storage"
	"github.com/rodrigo-brito/taengine/tools/log"
)

const saveBatchSize = 1000

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04",
	})
}

type RecordSubscriber interface {
	OnRecord(model.IndicatorRecord)
}

// Backfill runs one indicator engine per symbol.
type Backfill struct {
	config      config.Config
	storage     storage.Storage
	subscribers []RecordSubscriber
	skipInvalid bool
	session     time.Duration
	progress    bool

	queue *model.PriorityQueue

	mu      sync.Mutex
	columns []string
	records []model.IndicatorRecord
	skipped map[string]int
}

type Option func(*Backfill)

func New(cfg config.Config, options ...Option) (*Backfill, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	session, _ := cfg.SessionDuration()

	backfill := &Backfill{
		config:      cfg,
		skipInvalid: cfg.SkipInvalid,
		session:     session,
		queue:       model.NewPriorityQueue(nil),
		skipped:     make(map[string]int),
	}
	for _, option := range options {
		option(backfill)
	}

	if backfill.session < 0 {
		return nil, errors.Errorf("invalid session %s", backfill.session)
	}
	return backfill, nil
}

// WithStorage saves every record to s.
func WithStorage(s storage.Storage) Option {
	return func(backfill *Backfill) {
		backfill.storage = s
	}
}

func WithSubscriber(subscribers ...RecordSubscriber) Option {
	return func(backfill *Backfill) {
		backfill.subscribers = append(backfill.subscribers, subscribers...)
	}
}

// WithSkipInvalid logs and skips rejected bars instead of aborting the run.
func WithSkipInvalid(skip bool) Option {
	return func(backfill *Backfill) {
		backfill.skipInvalid = skip
	}
}

// WithSession resets the VWAP when a bar opens a new session of the given length.
func WithSession(session time.Duration) Option {
	return func(backfill *Backfill) {
		backfill.session = session
	}
}

func WithProgress(enabled bool) Option {
	return func(backfill *Backfill) {
		backfill.progress = enabled
	}
}

func WithLogLevel(level log.Level) Option {
	return func(*Backfill) {
		log.SetLevel(level)
	}
}

// Columns returns the record columns, empty before the first run.
func (b *Backfill) Columns() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.columns
}

// Records returns the records of the last run in time order.
func (b *Backfill) Records() []model.IndicatorRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.records
}

// Skipped returns the number of rejected bars per symbol in the last run.
func (b *Backfill) Skipped() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	skipped := make(map[string]int, len(b.skipped))
	for symbol, count := range b.skipped {
		skipped[symbol] = count
	}
	return skipped
}

// Run computes every series in parallel, then delivers the records ordered by time
// and symbol. A rejected bar aborts the run unless invalid bars are skipped; nothing is
// delivered when the run fails.
func (b *Backfill) Run(ctx context.Context, bars map[string][]model.PriceBar) error {
	b.mu.Lock()
	b.records = nil
	b.skipped = make(map[string]int)
	b.mu.Unlock()

	total := 0
	for _, series := range bars {
		total += len(series)
	}
	log.Infof("[SETUP] Computing %d bars of %d symbols", total, len(bars))
	progressBar := progressbar.NewOptions64(int64(total),
		progressbar.OptionSetDescription("computing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(b.progress),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	for symbol, series := range bars {
		symbol, series := symbol, series
		group.Go(func() error {
			return b.compute(groupCtx, symbol, series, progressBar)
		})
	}
	if err := group.Wait(); err != nil {
		b.queue = model.NewPriorityQueue(nil)
		return err
	}
	if err := progressBar.Close(); err != nil {
		log.Warnf("close progressbar fail: %v", err)
	}

	return b.deliver()
}

func (b *Backfill) compute(ctx context.Context, symbol string, bars []model.PriceBar,
	progressBar *progressbar.ProgressBar) error {
	engine, err := indicator.NewEngine(symbol, b.config.Indicators)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if b.columns == nil {
		b.columns = engine.Columns()
	}
	b.mu.Unlock()

	var session time.Time
	for _, bar := range bars {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := engine.Validate(bar); err != nil {
			if !b.skipInvalid {
				return errors.Wrapf(err, "compute %s", symbol)
			}
			log.WithFields(log.Fields{"symbol": symbol, "time": bar.Time}).Warnf("skipping bar: %v", err)
			b.mu.Lock()
			b.skipped[symbol]++
			b.mu.Unlock()
			continue
		}

		if b.session > 0 {
			start := bar.Time.Truncate(b.session)
			if engine.Count() > 0 && !start.Equal(session) {
				engine.ResetVWAP()
			}
			session = start
		}

		record, err := engine.Feed(bar)
		if err != nil {
			return errors.Wrapf(err, "compute %s", symbol)
		}
		b.queue.Push(record)

		if err := progressBar.Add(1); err != nil {
			log.Warnf("update progressbar fail: %v", err)
		}
	}

	log.WithField("symbol", symbol).Debugf("computed %d records", engine.Count())
	return nil
}

// deliver drains the queue from a single goroutine, so storage only sees one writer.
func (b *Backfill) deliver() error {
	records := make([]model.IndicatorRecord, 0, b.queue.Len())
	batch := make([]model.IndicatorRecord, 0, saveBatchSize)
	save := func() error {
		if b.storage == nil || len(batch) == 0 {
			return nil
		}
		if err := b.storage.SaveRecords(batch...); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	err := b.queue.Drain(func(item model.Item) error {
		record := item.(model.IndicatorRecord)
		for _, subscriber := range b.subscribers {
			subscriber.OnRecord(record)
		}
		records = append(records, record)

		batch = append(batch, record)
		if len(batch) == saveBatchSize {
			return save()
		}
		return nil
	})
	if err == nil {
		err = save()
	}

	b.mu.Lock()
	b.records = records
	b.mu.Unlock()

	if err != nil {
		return errors.Wrap(err, "save records")
	}
	log.Infof("[DONE] %d records", len(records))
	return nil
}
