package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
// STOREFRONT_STORE=postgres なら DATABASE_URL、sqlite なら SQLITE_PATH を使う。
func Connect(cfg config.StoreConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Backend) {
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database url is required")
		}
		dialector = postgres.New(postgres.Config{DSN: cfg.DatabaseURL, PreferSimpleProtocol: true})
	case config.StoreSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported sql backend %q", cfg.Backend)
	}

	conn, err := gorm.Open(dialector, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	applyPoolSettings(sqlDB, cfg)

	return conn, nil
}

// OpenSQLite は主にテスト用（"file::memory:?cache=shared" など）
func OpenSQLite(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	return conn, nil
}

// gormのログは出さない（アプリ側でzerologに出す）
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
		TranslateError: true,
	}
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.StoreConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
	)
}

// SeedCatalog はカテゴリが空のときだけ投入する。投入したら true。
// 商品の CategoryID はカテゴリの並び順（1始まり）で解決する。
func SeedCatalog(ctx context.Context, conn *gorm.DB, categories []model.Category, products []model.Product) (bool, error) {
	seeded := false
	err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Category{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		ids := make(map[int64]int64, len(categories))
		for i := range categories {
			c := categories[i]
			c.ID = 0
			if err := tx.Create(&c).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Slug, err)
			}
			ids[int64(i+1)] = c.ID
		}
		for i := range products {
			p := products[i]
			p.ID = 0
			if id, ok := ids[p.CategoryID]; ok {
				p.CategoryID = id
			}
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", p.Slug, err)
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}

func Ping(ctx context.Context, conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
