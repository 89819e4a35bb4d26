package core

import (
	"time"

	"gorm.io/gorm"
)

// Order status values this subsystem reads. Order CRUD and approval
// workflows live elsewhere; only approved orders are schedulable.
const (
	OrderApproved = "approved"
)

// ProductionOrder is the read-side view of an order owned by the order
// management subsystem. The request builder selects orders from it and
// the reconciler maps engine output back onto its numeric id.
type ProductionOrder struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	OrderNo     string `gorm:"index;size:64"` // natural key addressed by the engine
	Status      string `gorm:"index;size:20"`
	ProcessType string `gorm:"size:32"`
	Qty         int
	DueDate     time.Time
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// OrderAttribute is one key/value attribute row of an order (color,
// mold code, fixture). Multiple rows per key may exist; resolution takes
// the first non-blank value.
type OrderAttribute struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	OrderID   int64  `gorm:"index;not null"`
	AttrKey   string `gorm:"index;size:64;not null"`
	AttrValue string `gorm:"size:255"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
