package model

import "time"

type OrderStatus string

// 状態遷移はなし（作成時は常にpending）
const OrderStatusPending OrderStatus = "pending"

type Order struct {
	ID              int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID          string      `gorm:"type:varchar(128);not null;index" json:"cartId"`
	CustomerName    string      `gorm:"type:varchar(255);not null" json:"customerName"`
	CustomerEmail   string      `gorm:"type:varchar(255);not null" json:"customerEmail"`
	CustomerPhone   string      `gorm:"type:varchar(64);not null" json:"customerPhone"`
	ShippingAddress string      `gorm:"type:text" json:"shippingAddress"`
	Status          OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	Subtotal        int64       `gorm:"not null" json:"subtotal"`
	TaxAmount       int64       `gorm:"not null" json:"taxAmount"`
	TotalAmount     int64       `gorm:"not null" json:"totalAmount"`
	// 空文字はキーなし（NULLで保存して一意制約から外す）
	IdempotencyKey *string   `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	CreatedAt      time.Time `gorm:"not null" json:"createdAt"`
}
