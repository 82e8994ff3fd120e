package model

import "time"

type StockStatus string

const (
	StockStatusInStock    StockStatus = "In Stock"
	StockStatusLowStock   StockStatus = "Low Stock"
	StockStatusOutOfStock StockStatus = "Out of Stock"
)

// 在庫少なめの上限
const LowStockThreshold int64 = 10

// 商品（シード後は不変）
// DiscountPrice は nil なら割引なし。あるときは Price より小さい。
type Product struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug          string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description   string    `gorm:"type:text" json:"description"`
	Price         int64     `gorm:"not null" json:"price"`
	DiscountPrice *int64    `json:"discountPrice"`
	ImageURL      string    `gorm:"type:text;column:image_url" json:"imageUrl"`
	CategoryID    int64     `gorm:"not null;index" json:"categoryId"`
	StockLevel    int64     `gorm:"not null;default:0" json:"stockLevel"`
	IsNew         bool      `gorm:"not null;default:false" json:"isNew"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"-"`
}

// 在庫数を表示用ステータスに変換
func (p Product) StockStatus() StockStatus {
	switch {
	case p.StockLevel <= 0:
		return StockStatusOutOfStock
	case p.StockLevel <= LowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// 割引価格が有効か
func (p Product) HasDiscount() bool {
	return p.DiscountPrice != nil && *p.DiscountPrice < p.Price
}
