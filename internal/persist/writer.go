package persist

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/quotefeed/matchbook/internal/book"
	"github.com/quotefeed/matchbook/internal/instrument"
)

// Writer persists executions and the instrument directory.
type Writer struct {
	store    *Store
	byID     map[int]string // instrument id -> ticker
	universe []instrument.Instrument
}

// NewWriter creates a trade writer over the instrument universe.
func NewWriter(store *Store, universe []instrument.Instrument) *Writer {
	byID := make(map[int]string, len(universe))
	for _, ins := range universe {
		byID[ins.ID] = ins.Ticker
	}
	return &Writer{store: store, byID: byID, universe: universe}
}

// SaveInstruments upserts the instrument directory. Called once on
// startup so queries can join tickers without the process running.
func (w *Writer) SaveInstruments(ctx context.Context) error {
	coll := w.store.db.Collection("instruments")
	for _, ins := range w.universe {
		_, err := coll.UpdateOne(ctx,
			bson.M{"instrument": ins.ID},
			bson.M{"$set": bson.M{
				"instrument": ins.ID,
				"ticker":     ins.Ticker,
				"name":       ins.Name,
				"sector":     string(ins.Sector),
				"base_price": ins.BasePrice,
				"tick_size":  ins.TickSize,
				"updated_at": time.Now(),
			}},
			options.UpdateOne().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveTrade persists a single execution to the trades log.
func (w *Writer) SaveTrade(ctx context.Context, t book.Trade) error {
	_, err := w.store.db.Collection("trades").InsertOne(ctx, bson.M{
		"seq":         int64(t.Seq),
		"instrument":  t.Instrument,
		"ticker":      w.byID[t.Instrument],
		"price":       t.Price,
		"quantity":    t.Quantity,
		"executed_at": t.ExecutedAt,
	})
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil // idempotent — ignore duplicates
	}
	return err
}
