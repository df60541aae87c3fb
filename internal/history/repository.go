// Package history supplies the historical sales series the forecast
// pipeline extrapolates from.
package history

import (
	"context"
	"strings"

	"github.com/angelmondragon/packfinderz-forecast/internal/forecast"
	"github.com/angelmondragon/packfinderz-forecast/pkg/db/models"
	pkgerrors "github.com/angelmondragon/packfinderz-forecast/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads sales transactions through gorm.
type Repository struct {
	db *gorm.DB
}

var _ forecast.HistoryProvider = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Fetch returns the newest MaxObservations transactions for the product
// owned by ownerID. Product ids that are not UUIDs cannot exist in the table
// and yield an empty series.
func (r *Repository) Fetch(ctx context.Context, productID string, ownerID uuid.UUID, window forecast.Window) ([]forecast.HistoricalObservation, error) {
	pid, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return nil, nil
	}

	q := r.db.WithContext(ctx).
		Model(&models.SalesTransaction{}).
		Where("store_id = ? AND product_id = ?", ownerID, pid)
	if window.From != nil {
		q = q.Where("occurred_on >= ?", *window.From)
	}
	if window.To != nil {
		q = q.Where("occurred_on <= ?", *window.To)
	}

	var rows []models.SalesTransaction
	if err := q.Order("occurred_on DESC").Order("created_at DESC").Limit(forecast.MaxObservations).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sales transactions")
	}

	out := make([]forecast.HistoricalObservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, forecast.HistoricalObservation{
			Date:     row.OccurredOn,
			Quantity: row.Quantity,
			Price:    row.UnitPrice,
		})
	}
	return out, nil
}

// Record stores a transaction. Used by seeding and tests; the CRUD surface
// for sales lives outside this service.
func (r *Repository) Record(ctx context.Context, tx *models.SalesTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record sales transaction")
	}
	return nil
}
