package models

import (
	"time"

	"github.com/angelmondragon/packfinderz-forecast/pkg/types"
	"github.com/google/uuid"
)

// SalesTransaction is one recorded sale of a product by a vendor store.
type SalesTransaction struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID    uuid.UUID  `gorm:"column:store_id;type:uuid;not null"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	OccurredOn types.Date `gorm:"column:occurred_on;type:date;not null"`
	Quantity   float64    `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice  float64    `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (SalesTransaction) TableName() string {
	return "sales_transactions"
}
