package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"folio/internal/application/port"
	"folio/internal/infrastructure/config"
	"folio/internal/infrastructure/pricing"
	postgresrepo "folio/internal/infrastructure/storage/postgres"
	sqliterepo "folio/internal/infrastructure/storage/sqlite"
	"folio/internal/infrastructure/svc"
)

// Container 包含所有应用依赖
type Container struct {
	cfg          *config.Config
	redisClient  *redis.Client
	sqliteRepo   *sqliterepo.Repo
	postgresRepo *postgresrepo.Repo
	prices       port.PriceProvider
	closeOnce    sync.Once
	closerChain  []func() error
}

// New 创建新的容器实例
func New(cfg *config.Config) (*Container, error) {
	c := &Container{
		cfg:         cfg,
		closerChain: make([]func() error, 0),
	}

	if err := c.initStorage(); err != nil {
		// 清理已初始化的资源
		_ = c.Close()
		return nil, fmt.Errorf("%w: %v", svc.ErrStorageInitFailed, err)
	}
	if err := c.initPricing(); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// initStorage 初始化存储层（SQLite、Postgres）
func (c *Container) initStorage() error {
	if c.cfg.Storage.SQLite.Enabled {
		if err := c.initSQLite(); err != nil {
			return fmt.Errorf("sqlite init failed: %w", err)
		}
	}

	if c.cfg.Storage.Postgres.Enabled {
		if err := c.initPostgres(); err != nil {
			return fmt.Errorf("postgres init failed: %w", err)
		}
	}

	if c.sqliteRepo == nil && c.postgresRepo == nil {
		return svc.ErrNoStoreEnabled
	}
	return nil
}

func (c *Container) initSQLite() error {
	repo, err := sqliterepo.New(c.cfg.Storage.SQLite.Path)
	if err != nil {
		return err
	}

	c.sqliteRepo = repo
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})

	log.Info().
		Str("path", c.cfg.Storage.SQLite.Path).
		Msg("sqlite initialized")

	return nil
}

func (c *Container) initPostgres() error {
	repo, err := postgresrepo.New(c.cfg.Storage.Postgres.DSN)
	if err != nil {
		return err
	}

	c.postgresRepo = repo
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing postgres connection")
		return repo.Close()
	})

	log.Info().Msg("postgres initialized")

	return nil
}

// initPricing 初始化报价层（Redis 缓存 + 静态报价表）
func (c *Container) initPricing() error {
	providers := make([]port.PriceProvider, 0, 2)

	if c.cfg.Pricing.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.cfg.Pricing.Redis.Addr,
			Password: c.cfg.Pricing.Redis.Password,
			DB:       c.cfg.Pricing.Redis.DB,
		})

		// 测试连接
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}

		c.redisClient = rdb
		c.closerChain = append(c.closerChain, func() error {
			log.Info().Msg("closing redis connection")
			return rdb.Close()
		})

		ttl := time.Duration(c.cfg.Pricing.Redis.TTLSeconds) * time.Second
		providers = append(providers, pricing.NewRedisProvider(rdb, c.cfg.Pricing.Redis.Prefix, ttl))

		log.Info().
			Str("addr", c.cfg.Pricing.Redis.Addr).
			Int("db", c.cfg.Pricing.Redis.DB).
			Msg("redis quotes initialized")
	}

	if len(c.cfg.Pricing.Static.Quotes) > 0 {
		static, err := pricing.NewStaticProvider(c.cfg.Pricing.Static.Quotes)
		if err != nil {
			return err
		}
		providers = append(providers, static)

		log.Info().
			Int("symbols", len(c.cfg.Pricing.Static.Quotes)).
			Msg("static quotes loaded")
	}

	c.prices = pricing.NewChain(providers...)
	return nil
}

// Config 获取配置
func (c *Container) Config() *config.Config {
	return c.cfg
}

// RedisClient 获取 Redis 客户端
func (c *Container) RedisClient() *redis.Client {
	return c.redisClient
}

// TransactionStore 获取事务日志存储（优先 Postgres）
func (c *Container) TransactionStore() port.TransactionStore {
	if c.postgresRepo != nil {
		return c.postgresRepo
	}
	return c.sqliteRepo
}

// IdentityStore 获取用户与组合存储
func (c *Container) IdentityStore() port.IdentityStore {
	if c.postgresRepo != nil {
		return c.postgresRepo
	}
	return c.sqliteRepo
}

// PriceProvider 获取报价链
func (c *Container) PriceProvider() port.PriceProvider {
	return c.prices
}

// SQLiteRepo 获取 SQLite 仓储
func (c *Container) SQLiteRepo() *sqliterepo.Repo {
	return c.sqliteRepo
}

// Close 关闭所有资源（按后进先出顺序）
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if e := c.closerChain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
		log.Info().Msg("container closed")
	})
	return err
}
