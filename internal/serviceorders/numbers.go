package serviceorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
)

const defaultNumberPrefix = "OS"

// NumberGenerator issues order numbers of the form PREFIX-YYYY-NNNNNN from a
// per-year counter row. The upsert runs on the caller's transaction, so a
// rolled back order does not consume a number.
type NumberGenerator struct {
	prefix string
}

func NewNumberGenerator(prefix string) NumberGenerator {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultNumberPrefix
	}
	return NumberGenerator{prefix: prefix}
}

// Next increments the counter for the year of now and formats the result.
func (g NumberGenerator) Next(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	if tx == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "order number requires a transaction")
	}
	year := now.UTC().Year()

	var value int64
	err := tx.WithContext(ctx).Raw(`
		INSERT INTO order_number_sequences (year, last_value) VALUES (?, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = order_number_sequences.last_value + 1
		RETURNING last_value`, year).
		Scan(&value).Error
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
	}
	if value <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeIntegrity, "order number counter returned no value")
	}
	return FormatNumber(g.prefix, year, value), nil
}

// FormatNumber renders an order number, e.g. OS-2024-000042.
func FormatNumber(prefix string, year int, value int64) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, value)
}
