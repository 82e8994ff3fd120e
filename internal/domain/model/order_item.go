package model

// 注文明細
// Price は作成時点の実売価格のスナップショット。後から商品価格が変わっても変えない。
type OrderItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64 `gorm:"not null;index" json:"orderId"`
	ProductID int64 `gorm:"not null;index" json:"productId"`
	Quantity  int64 `gorm:"not null" json:"quantity"`
	Price     int64 `gorm:"not null" json:"price"`
}
