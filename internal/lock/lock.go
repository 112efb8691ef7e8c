package lock

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	apperrors "airdrop/internal/errors"
)

// Locker 归属锁定协作方
// 锁定失败必须使调用方整体失败，不保留部分状态
type Locker interface {
	// Lock 为beneficiary锁定amount，受益人按归属计划逐步解锁
	Lock(ctx context.Context, beneficiary common.Address, amount *big.Int) error
}

// Grant 一条锁定授予记录
type Grant struct {
	Beneficiary common.Address `json:"beneficiary"`
	Amount      *big.Int       `json:"amount"`
	LockedAt    time.Time      `json:"locked_at"`
}

// MemoryLock 内存锁定实现
// 本地模式与测试使用，只记录授予，不模拟解锁进度
type MemoryLock struct {
	logger *logrus.Logger
	mu     sync.RWMutex
	grants []Grant
}

// NewMemoryLock 创建内存锁定实现
func NewMemoryLock(logger *logrus.Logger) *MemoryLock {
	return &MemoryLock{logger: logger}
}

// Lock 为beneficiary锁定amount
func (m *MemoryLock) Lock(ctx context.Context, beneficiary common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return apperrors.ErrLockFailed.Clone().WithContext("reason", "锁定金额无效")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.grants = append(m.grants, Grant{
		Beneficiary: beneficiary,
		Amount:      new(big.Int).Set(amount),
		LockedAt:    time.Now(),
	})

	m.logger.Infof("已锁定归属份额: 受益人 %s, 金额 %s", beneficiary.Hex(), amount.String())
	return nil
}

// Grants 返回全部授予记录的副本
func (m *MemoryLock) Grants() []Grant {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Grant, len(m.grants))
	copy(out, m.grants)
	return out
}
