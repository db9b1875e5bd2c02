package etl

import (
	"context"
)

// ── Repository ─────────────────────────────────────────────
// A Repository durably stores merged records under a partition key,
// sorted by date. Implementations live in internal/dbclient, one file
// per driver.

// USDataset is the partition every record of this system is stored under.
const USDataset = 1

// MaxBatchSize is the largest number of items a grouped write may carry.
const MaxBatchSize = 25

// Item is a record rendered for storage.
type Item struct {
	Dataset   int    `json:"dataset" db:"dataset" bson:"dataset" dynamodbav:"dataset"`
	Date      string `json:"date" db:"date" bson:"date" dynamodbav:"date"`
	Cases     int64  `json:"cases" db:"cases" bson:"cases" dynamodbav:"cases"`
	Deaths    int64  `json:"deaths" db:"deaths" bson:"deaths" dynamodbav:"deaths"`
	Recovered int64  `json:"recovered" db:"recovered" bson:"recovered" dynamodbav:"recovered"`
}

// Page is one page of a partition query.
type Page struct {
	Items []Item
	// NextKey is the opaque continuation token; empty means no more pages.
	NextKey string
}

// Repository is the storage contract the loader depends on.
type Repository interface {
	// QueryPage returns items of the partition ascending by date, starting
	// after startKey (empty for the first page).
	QueryPage(ctx context.Context, partition int, startKey string) (Page, error)

	// PutItem stores a single item.
	PutItem(ctx context.Context, item Item) error

	// BatchWriteItems stores up to MaxBatchSize items in one grouped write.
	BatchWriteItems(ctx context.Context, items []Item) error
}

// RenderItem renders a record for insertion, adding the partition key and
// converting the date to a string.
func RenderItem(r Record) Item {
	return Item{
		Dataset:   USDataset,
		Date:      r.DateString(),
		Cases:     r.Cases,
		Deaths:    r.Deaths,
		Recovered: r.Recovered,
	}
}

// DecodeItem converts a stored item back into a record.
func DecodeItem(it Item) (Record, error) {
	d, err := ParseDate(it.Date)
	if err != nil {
		return Record{}, err
	}
	return Record{Date: d, Cases: it.Cases, Deaths: it.Deaths, Recovered: it.Recovered}, nil
}
