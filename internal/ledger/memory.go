package ledger

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	apperrors "airdrop/internal/errors"
)

// MemoryLedger 内存账本
// 本地模式与测试使用的参考实现，语义与标准代币账本一致：
// 余额不足立即失败、不产生部分状态。
type MemoryLedger struct {
	logger     *logrus.Logger
	mu         sync.RWMutex
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
	supply     *big.Int
}

// NewMemoryLedger 创建内存账本
func NewMemoryLedger(logger *logrus.Logger) *MemoryLedger {
	return &MemoryLedger{
		logger:     logger,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
		supply:     new(big.Int),
	}
}

// Transfer 从from向to转移amount
func (l *MemoryLedger) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return apperrors.ErrDataValidation.Clone().WithContext("reason", "转账金额无效")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromBalance := l.balanceLocked(from)
	if fromBalance.Cmp(amount) < 0 {
		return apperrors.ErrInsufficientBalance.Clone().
			WithAccount(from.Hex()).
			WithAmount(amount.String())
	}

	l.balances[from] = new(big.Int).Sub(fromBalance, amount)
	l.balances[to] = new(big.Int).Add(l.balanceLocked(to), amount)

	l.logger.Debugf("账本转账: %s -> %s, 金额 %s", from.Hex(), to.Hex(), amount.String())
	return nil
}

// Mint 向to铸造amount
func (l *MemoryLedger) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return apperrors.ErrDataValidation.Clone().WithContext("reason", "铸造金额无效")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[to] = new(big.Int).Add(l.balanceLocked(to), amount)
	l.supply = new(big.Int).Add(l.supply, amount)

	l.logger.Debugf("账本铸造: %s, 金额 %s", to.Hex(), amount.String())
	return nil
}

// Approve 授权spender代表owner转移至多amount
func (l *MemoryLedger) Approve(ctx context.Context, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return apperrors.ErrDataValidation.Clone().WithContext("reason", "授权金额无效")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[common.Address]*big.Int)
	}
	l.allowances[owner][spender] = new(big.Int).Set(amount)

	l.logger.Debugf("账本授权: %s 授权 %s 额度 %s", owner.Hex(), spender.Hex(), amount.String())
	return nil
}

// BalanceOf 查询account的余额
func (l *MemoryLedger) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.balanceLocked(account)), nil
}

// Allowance 查询owner对spender的授权额度
func (l *MemoryLedger) Allowance(owner, spender common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.allowances[owner] == nil || l.allowances[owner][spender] == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(l.allowances[owner][spender])
}

// TotalSupply 查询总供给
func (l *MemoryLedger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.supply)
}

// balanceLocked 读取余额（须持有锁）
func (l *MemoryLedger) balanceLocked(account common.Address) *big.Int {
	if b, exists := l.balances[account]; exists {
		return b
	}
	return new(big.Int)
}
