package repository

import (
	"token-pulse/internal/api/dao"
	"token-pulse/pkg/evm_client"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Repository 持有进程内共享的外部资源句柄
type Repository interface {
	GetDB() *gorm.DB
	GetMainRDB() *redis.Client // 可能为 nil（未配置 Redis）
	GetEvmClients() *evm_client.Manager
	GetDAOManager() *dao.DAOManager
	Close() error
}
