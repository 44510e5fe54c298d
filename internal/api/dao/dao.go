package dao

import (
	"gorm.io/gorm"
)

// DAOManager 管理所有DAO实例
type DAOManager struct {
	ActivityDAO ActivityDAO
}

// NewDAOManager 创建DAO管理器实例
func NewDAOManager(db *gorm.DB) *DAOManager {
	return &DAOManager{
		ActivityDAO: NewActivityDAO(db),
	}
}
