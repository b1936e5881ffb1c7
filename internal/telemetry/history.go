package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/mrgeneko/namknob/internal/domain"
)

const (
	eventsBucket  = "events"
	batchesBucket = "batches"
)

// History persists events in a bbolt file. Batch summaries are also
// indexed in their own bucket so they can be listed without a full scan.
type History struct {
	db     *bbolt.DB
	logger *zap.Logger
}

func OpenHistory(path string, logger *zap.Logger) (*History, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{eventsBucket, batchesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create history buckets: %w", err)
	}

	return &History{db: db, logger: logger.Named("history")}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Record never fails the caller; storage errors are logged.
func (h *History) Record(ctx context.Context, event domain.Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("encode event", zap.Error(err))
		return
	}

	key, err := uuid.NewV7()
	if err != nil {
		h.logger.Warn("event key", zap.Error(err))
		return
	}

	err = h.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(eventsBucket)).Put(key[:], data); err != nil {
			return err
		}
		if event.Kind == domain.EventBatch {
			return tx.Bucket([]byte(batchesBucket)).Put(key[:], data)
		}
		return nil
	})
	if err != nil {
		h.logger.Warn("store event", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}

// Batches returns up to limit batch summaries, newest first. A limit of
// zero or less returns all of them.
func (h *History) Batches(limit int) ([]domain.Event, error) {
	return h.list(batchesBucket, limit)
}

// Events returns up to limit events of any kind, newest first.
func (h *History) Events(limit int) ([]domain.Event, error) {
	return h.list(eventsBucket, limit)
}

func (h *History) list(bucket string, limit int) ([]domain.Event, error) {
	var events []domain.Event
	err := h.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(events) >= limit {
				break
			}
			var event domain.Event
			if err := json.Unmarshal(v, &event); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
