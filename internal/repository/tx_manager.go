package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Catalog() CatalogRepository
	CartItems() CartItemRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返したら（panicでも）書き込みはすべて無かったことになる。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}

// 読み取り専用の入口（Txなし）
type Store interface {
	TransactionManager
	Catalog() CatalogRepository
}
