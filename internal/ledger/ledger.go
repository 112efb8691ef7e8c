package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger 同质化代币账本协作方
// 核心只依赖该接口，不重新实现余额、转账与授权的账本机制；
// 实现方必须保证恰好一次执行，余额不足时整体失败。
type Ledger interface {
	// Transfer 从from向to转移amount
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error

	// Mint 向to铸造amount
	Mint(ctx context.Context, to common.Address, amount *big.Int) error

	// Approve 授权spender代表owner转移至多amount
	Approve(ctx context.Context, owner, spender common.Address, amount *big.Int) error

	// BalanceOf 查询account的余额
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}
