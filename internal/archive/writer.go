// Package archive persists snapshots as a latest pointer and a yearly aggregate.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shinacap/internal/model"
	"shinacap/internal/storage"
)

// ErrCorruptArchive is returned when a stored yearly aggregate is not a JSON array of records.
var ErrCorruptArchive = errors.New("corrupt archive")

// Config controls key layout and the read-failure policy.
type Config struct {
	Folder  string
	Version string
	// TolerateReadErrors treats unreadable or unparseable yearly aggregates as
	// empty, which overwrites them. Only for parity with the legacy writer.
	TolerateReadErrors bool
}

// Result describes what a Persist call wrote.
type Result struct {
	LatestKey string
	YearKey   string
	Records   int
}

// Writer writes MarketData records to an ObjectStore.
type Writer struct {
	store  storage.ObjectStore
	cfg    Config
	logger *zap.Logger
}

func NewWriter(store storage.ObjectStore, cfg Config, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{store: store, cfg: cfg, logger: logger}
}

// LatestKey is the key of the single-record pointer.
func (w *Writer) LatestKey() string {
	return path.Join(w.cfg.Folder, "latest"+w.cfg.Version+".json")
}

// YearKey is the key of the aggregate for year.
func (w *Writer) YearKey(year int) string {
	return path.Join(w.cfg.Folder, strconv.Itoa(year)+w.cfg.Version+".json")
}

// Persist reads the yearly aggregate, then writes the latest pointer and the
// extended aggregate concurrently. A failed read writes nothing.
func (w *Writer) Persist(ctx context.Context, data model.MarketData) (Result, error) {
	if w.store == nil {
		return Result{}, fmt.Errorf("object store is nil")
	}
	year, err := recordYear(data)
	if err != nil {
		return Result{}, err
	}

	res := Result{LatestKey: w.LatestKey(), YearKey: w.YearKey(year)}
	records, opts, err := w.load(ctx, res.YearKey)
	if err != nil {
		return Result{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.WriteLatest(gctx, data)
	})
	g.Go(func() error {
		n, err := w.writeAggregate(gctx, res.YearKey, records, opts, data)
		res.Records = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// WriteLatest overwrites the latest pointer with data.
func (w *Writer) WriteLatest(ctx context.Context, data model.MarketData) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal latest: %w", err)
	}
	key := w.LatestKey()
	if err := w.store.Put(ctx, key, body, storage.PutOptions{ContentType: storage.ContentTypeJSON}); err != nil {
		w.logger.Error("write latest failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("write latest: %w", err)
	}
	w.logger.Info("latest written", zap.String("key", key), zap.Int("bytes", len(body)))
	return nil
}

// Append adds data to the yearly aggregate and returns its new length.
// Existing records are carried over byte for byte.
func (w *Writer) Append(ctx context.Context, year int, data model.MarketData) (int, error) {
	key := w.YearKey(year)
	records, opts, err := w.load(ctx, key)
	if err != nil {
		return 0, err
	}
	return w.writeAggregate(ctx, key, records, opts, data)
}

func (w *Writer) writeAggregate(ctx context.Context, key string, records []json.RawMessage, opts storage.PutOptions, data model.MarketData) (int, error) {
	record, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("marshal record: %w", err)
	}
	records = append(records, record)

	body, err := json.Marshal(records)
	if err != nil {
		return 0, fmt.Errorf("marshal aggregate: %w", err)
	}
	opts.ContentType = storage.ContentTypeJSON
	if err := w.store.Put(ctx, key, body, opts); err != nil {
		w.logger.Error("write aggregate failed", zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("write aggregate: %w", err)
	}

	w.logger.Info("aggregate written", zap.String("key", key), zap.Int("records", len(records)))
	return len(records), nil
}

func (w *Writer) load(ctx context.Context, key string) ([]json.RawMessage, storage.PutOptions, error) {
	obj, err := w.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.logger.Info("aggregate not found, starting new", zap.String("key", key))
			return nil, storage.PutOptions{IfNoneMatch: "*"}, nil
		}
		if w.cfg.TolerateReadErrors {
			w.logger.Warn("aggregate read failed, treating as empty", zap.String("key", key), zap.Error(err))
			return nil, storage.PutOptions{}, nil
		}
		w.logger.Error("aggregate read failed", zap.String("key", key), zap.Error(err))
		return nil, storage.PutOptions{}, fmt.Errorf("read aggregate: %w", err)
	}

	opts := storage.PutOptions{IfMatch: obj.ETag}
	records, err := decodeAggregate(obj.Data)
	if err != nil {
		if w.cfg.TolerateReadErrors {
			w.logger.Warn("aggregate unparseable, treating as empty", zap.String("key", key), zap.Error(err))
			return nil, opts, nil
		}
		w.logger.Error("aggregate unparseable", zap.String("key", key), zap.Error(err))
		return nil, storage.PutOptions{}, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, key, err)
	}
	w.logger.Debug("aggregate loaded", zap.String("key", key), zap.Int("records", len(records)))
	return records, opts, nil
}

// Load reads and decodes the aggregate for year.
func (w *Writer) Load(ctx context.Context, year int) ([]model.MarketData, error) {
	obj, err := w.store.Get(ctx, w.YearKey(year))
	if err != nil {
		return nil, err
	}
	var out []model.MarketData
	if err := json.Unmarshal(obj.Data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	return out, nil
}

// LoadLatest reads the latest pointer.
func (w *Writer) LoadLatest(ctx context.Context) (model.MarketData, error) {
	obj, err := w.store.Get(ctx, w.LatestKey())
	if err != nil {
		return model.MarketData{}, err
	}
	var out model.MarketData
	if err := json.Unmarshal(obj.Data, &out); err != nil {
		return model.MarketData{}, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	return out, nil
}

func decodeAggregate(data []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	for i, raw := range records {
		var rec model.MarketData
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}

func recordYear(data model.MarketData) (int, error) {
	ts, err := time.Parse(time.RFC3339Nano, data.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("parse record timestamp: %w", err)
	}
	return ts.UTC().Year(), nil
}
