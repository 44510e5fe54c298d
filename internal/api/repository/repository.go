package repository

import (
	"context"
	"strings"
	"sync"

	"token-pulse/internal/api/config"
	"token-pulse/internal/api/dao"
	"token-pulse/internal/api/model"
	"token-pulse/pkg/database"
	"token-pulse/pkg/evm_client"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var once sync.Once
var r *repositoryImpl

func New(cfg config.Config, logger *zap.Logger) Repository {
	once.Do(func() {
		r = &repositoryImpl{
			cfg:    cfg,
			logger: logger,
		}
		r.init()
	})
	return r
}

type repositoryImpl struct {
	cfg        config.Config
	logger     *zap.Logger
	db         *gorm.DB
	mainRdb    *redis.Client
	evmClients *evm_client.Manager
	daoManager *dao.DAOManager
}

func (r *repositoryImpl) init() {
	var err error
	r.db, err = database.InitPG(r.cfg.Postgres.DSN)

	if err != nil {
		panic(err)
	}

	// 初始化 Redis（可选，address 为空则只用本地缓存）
	if strings.TrimSpace(r.cfg.Redis.Address) != "" {
		r.mainRdb = redis.NewClient(&redis.Options{
			Addr:     r.cfg.Redis.Address,
			Password: r.cfg.Redis.Password,
			DB:       r.cfg.Redis.DB,
			PoolSize: 20,
		})

		if err := r.mainRdb.Ping(context.Background()).Err(); err != nil {
			r.logger.Warn("failed to connect to redis, continue without second cache tier", zap.Error(err))
		}
	} else {
		r.logger.Info("redis address empty, skip redis initialization")
	}

	// 初始化 rpc client 管理器，实际连接按需建立
	r.evmClients = evm_client.NewManager(r.cfg.RPC.Endpoints, model.DefaultChain)

	r.daoManager = dao.NewDAOManager(r.db)
}

func (r *repositoryImpl) GetDB() *gorm.DB {
	return r.db
}

func (r *repositoryImpl) GetMainRDB() *redis.Client {
	return r.mainRdb
}

func (r *repositoryImpl) GetEvmClients() *evm_client.Manager {
	return r.evmClients
}

func (r *repositoryImpl) GetDAOManager() *dao.DAOManager {
	return r.daoManager
}

func (r *repositoryImpl) Close() error {
	if r.db != nil {
		sqlDB, _ := r.db.DB()
		sqlDB.Close()
	}
	if r.mainRdb != nil {
		r.mainRdb.Close()
	}
	if r.evmClients != nil {
		r.evmClients.Close()
	}
	return nil
}
