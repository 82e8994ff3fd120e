package model

// カートの明細
// (cart_id, product_id) は一意。数量は 1..99 の間だけ存在する。
type CartItem struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    string `gorm:"type:varchar(128);not null;uniqueIndex:idx_cart_product" json:"cartId"`
	ProductID int64  `gorm:"not null;uniqueIndex:idx_cart_product" json:"productId"`
	Quantity  int64  `gorm:"not null" json:"quantity"`
}

const (
	MinQuantity int64 = 1
	MaxQuantity int64 = 99
)
