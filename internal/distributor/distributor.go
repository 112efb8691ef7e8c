package distributor

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	apperrors "airdrop/internal/errors"
	"airdrop/internal/events"
	"airdrop/internal/ledger"
	"airdrop/internal/lock"
	"airdrop/internal/logging"
	"airdrop/internal/merkle"
	"airdrop/internal/store"
	"airdrop/pkg/models"
)

// Params 分发参数
// 部署时一次性确定，运行期间不可变
type Params struct {
	TotalSupply   *big.Int // 代币总供给
	AirdropPool   *big.Int // 空投池份额
	DeveloperPool *big.Int // 开发者池份额
	LiquidityPool *big.Int // 流动性池份额
	TreasuryPool  *big.Int // 国库池份额

	ServiceFee      *big.Int  // 每次领取的固定服务费
	ClaimPeriodEnds time.Time // 领取期截止时间

	PoolAddress        common.Address // 空投池与开发者池的持有账户
	FeeRecipient       common.Address // 服务费接收账户
	LiquidityRecipient common.Address // 流动性份额接收账户
	DevBeneficiary     common.Address // 开发者份额受益人
	Treasury           common.Address // 国库账户
	LockAddress        common.Address // 归属锁定账户
}

// Validate 校验分发参数
// 四个池的份额之和必须恰好等于总供给
func (p *Params) Validate() error {
	for name, v := range map[string]*big.Int{
		"total_supply":   p.TotalSupply,
		"airdrop_pool":   p.AirdropPool,
		"developer_pool": p.DeveloperPool,
		"liquidity_pool": p.LiquidityPool,
		"treasury_pool":  p.TreasuryPool,
		"service_fee":    p.ServiceFee,
	} {
		if v == nil || v.Sign() < 0 {
			return apperrors.ErrConfigInvalid.Clone().WithContext("field", name)
		}
	}

	sum := new(big.Int).Add(p.AirdropPool, p.DeveloperPool)
	sum.Add(sum, p.LiquidityPool)
	sum.Add(sum, p.TreasuryPool)
	if sum.Cmp(p.TotalSupply) != 0 {
		return apperrors.ErrConfigInvalid.Clone().
			WithContext("reason", "池份额之和不等于总供给").
			WithContext("sum", sum.String()).
			WithContext("total_supply", p.TotalSupply.String())
	}

	if p.ClaimPeriodEnds.IsZero() {
		return apperrors.ErrConfigInvalid.Clone().WithContext("field", "claim_period_ends")
	}

	return nil
}

// Distributor 一次性代币分发控制器
// 所有状态变更操作持同一把互斥锁，严格串行执行，
// 观察不到任何操作的中间状态。
type Distributor struct {
	params  *Params
	store   *store.Store
	ledger  ledger.Ledger
	locker  lock.Locker
	output  events.Output
	logger  *logrus.Logger
	slogger *logging.StructuredLogger // 结构化日志器

	mu  sync.Mutex
	now func() time.Time // 测试注入时钟
}

// NewDistributor 创建分发控制器
func NewDistributor(params *Params, s *store.Store, l ledger.Ledger, locker lock.Locker, output events.Output, logger *logrus.Logger) (*Distributor, error) {
	return NewDistributorWithLogging(params, s, l, locker, output, logger, nil)
}

// NewDistributorWithLogging 创建带结构化日志的分发控制器
func NewDistributorWithLogging(params *Params, s *store.Store, l ledger.Ledger, locker lock.Locker, output events.Output, logger *logrus.Logger, logConfig *logging.LogConfig) (*Distributor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// 初始化结构化日志器
	var slogger *logging.StructuredLogger
	if logConfig != nil {
		var err error
		slogger, err = logging.NewStructuredLogger(logConfig)
		if err != nil {
			logger.Warnf("初始化结构化日志器失败: %v，将使用默认日志", err)
		}
	}

	return &Distributor{
		params:  params,
		store:   s,
		ledger:  l,
		locker:  locker,
		output:  output,
		logger:  logger,
		slogger: slogger,
		now:     time.Now,
	}, nil
}

// Bootstrap 铸造四个池的初始份额，仅允许一次
// 空投池与开发者池由分发池账户持有，流动性与国库份额直接发放。
// 先落地铸造标记再执行铸造，重复调用返回ALREADY_BOOTSTRAPPED，
// 铸造中途失败时撤销标记，允许修复后重试。
// 仅用于内存账本模式，链上模式的供给在代币合约部署时已固定。
func (d *Distributor) Bootstrap(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.store.SetBootstrapDone(); err != nil {
		return err
	}

	mints := []struct {
		to     common.Address
		amount *big.Int
		name   string
	}{
		{d.params.PoolAddress, d.params.AirdropPool, "空投池"},
		{d.params.PoolAddress, d.params.DeveloperPool, "开发者池"},
		{d.params.LiquidityRecipient, d.params.LiquidityPool, "流动性池"},
		{d.params.Treasury, d.params.TreasuryPool, "国库池"},
	}

	for _, m := range mints {
		if err := d.ledger.Mint(ctx, m.to, m.amount); err != nil {
			if revertErr := d.store.RevertBootstrap(); revertErr != nil {
				d.logger.Errorf("撤销铸造标记失败: %v", revertErr)
			}
			return fmt.Errorf("铸造%s份额失败: %w", m.name, err)
		}
		d.logger.Infof("已铸造%s份额: %s -> %s", m.name, m.amount.String(), m.to.Hex())
	}

	if d.slogger != nil {
		logging.NewAdminLogger(d.slogger, "bootstrap").Info("初始份额铸造完成",
			"total_supply", d.params.TotalSupply.String())
	}

	return nil
}

// SetRoot 配置资格承诺，仅允许一次
// 承诺一经配置不可更换，重复调用返回ALREADY_CONFIGURED
func (d *Distributor) SetRoot(ctx context.Context, root common.Hash) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if root == (common.Hash{}) {
		return apperrors.ErrDataValidation.Clone().WithContext("reason", "承诺不能为零值")
	}

	if err := d.store.SetRoot(root); err != nil {
		return err
	}

	if err := d.output.WriteRootChanged(&models.RootChangedEvent{
		Root:      root.Hex(),
		Timestamp: d.now(),
	}); err != nil {
		d.logger.Errorf("写入承诺配置事件失败: %v", err)
	}

	if d.slogger != nil {
		logging.NewAdminLogger(d.slogger, "set_root").Info("资格承诺已配置", "root", root.Hex())
	}

	return nil
}

// Claim 处理一次领取
// 执行顺序：验证证明 -> 查重 -> 校验服务费 -> 标记已领取 ->
// 发出事件 -> 服务费转账 -> 份额转账。
// 已领取标记先于一切外部转账落地；协作方调用失败时撤销标记，
// 使整个操作等价于从未发生。
func (d *Distributor) Claim(ctx context.Context, req *models.ParsedClaim) (*models.ClaimReceipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// 承诺未配置时任何证明都不可能成立
	root := d.store.Root()
	if !merkle.VerifyEligibility(req.Account, req.Amount, req.Proof, root) {
		return nil, apperrors.ErrInvalidProof.Clone().
			WithAccount(req.Account.Hex()).
			WithAmount(req.Amount.String())
	}

	claimed, err := d.store.HasClaimed(req.Account)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeStorage,
			apperrors.SeverityHigh, "STORAGE_FAILED", "查询领取状态失败")
	}
	if claimed {
		return nil, apperrors.ErrAlreadyClaimed.Clone().WithAccount(req.Account.Hex())
	}

	// 服务费必须与固定费额完全一致，多付同样拒绝
	payment := req.Payment
	if payment == nil {
		payment = new(big.Int)
	}
	if payment.Cmp(d.params.ServiceFee) != 0 {
		return nil, apperrors.ErrInsufficientFee.Clone().
			WithAccount(req.Account.Hex()).
			WithContext("required", d.params.ServiceFee.String()).
			WithContext("attached", payment.String())
	}

	// 先落地已领取标记，再做任何外部转账
	if err := d.store.MarkClaimed(req.Account, req.Amount); err != nil {
		return nil, err
	}

	claimedAt := d.now()
	if err := d.output.WriteClaim(&models.ClaimEvent{
		Account:   req.Account.Hex(),
		Amount:    new(big.Int).Set(req.Amount),
		Fee:       new(big.Int).Set(d.params.ServiceFee),
		Timestamp: claimedAt,
	}); err != nil {
		// 事件流是审计通道，不阻断领取
		d.logger.Errorf("写入领取事件失败: %v", err)
	}

	// 服务费转账
	feePaid := false
	if d.params.ServiceFee.Sign() > 0 {
		if err := d.ledger.Transfer(ctx, req.Account, d.params.FeeRecipient, d.params.ServiceFee); err != nil {
			if d.slogger != nil {
				logging.NewLedgerLogger(d.slogger, "transfer", d.params.PoolAddress.Hex()).Error(
					"服务费转账失败", "account", req.Account.Hex(), "error", err.Error())
			}
			d.rollbackClaim(req.Account, req.Amount, feePaid)
			return nil, fmt.Errorf("服务费转账失败: %w", err)
		}
		feePaid = true
	}

	// 份额转账
	if err := d.ledger.Transfer(ctx, d.params.PoolAddress, req.Account, req.Amount); err != nil {
		if d.slogger != nil {
			logging.NewLedgerLogger(d.slogger, "transfer", d.params.PoolAddress.Hex()).Error(
				"份额转账失败", "account", req.Account.Hex(), "error", err.Error())
		}
		d.rollbackClaim(req.Account, req.Amount, feePaid)
		return nil, fmt.Errorf("份额转账失败: %w", err)
	}

	if d.slogger != nil {
		logging.NewClaimLogger(d.slogger, req.Account.Hex()).Info("领取完成",
			"amount", req.Amount.String(),
			"fee", d.params.ServiceFee.String())
	}
	d.logger.Infof("领取成功: 账户 %s, 金额 %s", req.Account.Hex(), req.Amount.String())

	return &models.ClaimReceipt{
		Account:   req.Account.Hex(),
		Amount:    new(big.Int).Set(req.Amount),
		Fee:       new(big.Int).Set(d.params.ServiceFee),
		ClaimedAt: claimedAt,
	}, nil
}

// rollbackClaim 撤销一次未完成的领取
// 对应串行执行环境中整笔操作回滚的语义
func (d *Distributor) rollbackClaim(account common.Address, amount *big.Int, feePaid bool) {
	if err := d.store.RevertClaim(account, amount); err != nil {
		d.logger.Errorf("撤销领取标记失败，账户 %s: %v", account.Hex(), err)
	}

	if feePaid {
		if err := d.ledger.Transfer(context.Background(), d.params.FeeRecipient, account, d.params.ServiceFee); err != nil {
			d.logger.Errorf("退还服务费失败，账户 %s: %v", account.Hex(), err)
		}
	}
}

// Sweep 领取期结束后清扫分发池剩余份额到destination
// 截止时刻当下仍属领取期，严格晚于截止时间才允许清扫；
// destination为零值时落入国库账户。
func (d *Distributor) Sweep(ctx context.Context, destination common.Address) (*models.SweepEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !now.After(d.params.ClaimPeriodEnds) {
		return nil, apperrors.ErrPeriodNotEnded.Clone().
			WithContext("claim_period_ends", d.params.ClaimPeriodEnds.Format(time.RFC3339)).
			WithContext("now", now.Format(time.RFC3339))
	}

	if destination == (common.Address{}) {
		destination = d.params.Treasury
	}

	balance, err := d.ledger.BalanceOf(ctx, d.params.PoolAddress)
	if err != nil {
		return nil, fmt.Errorf("查询分发池余额失败: %w", err)
	}

	if balance.Sign() > 0 {
		if err := d.ledger.Transfer(ctx, d.params.PoolAddress, destination, balance); err != nil {
			return nil, fmt.Errorf("清扫转账失败: %w", err)
		}
	}

	event := &models.SweepEvent{
		Destination: destination.Hex(),
		Amount:      balance,
		Timestamp:   now,
	}
	if err := d.output.WriteSweep(event); err != nil {
		d.logger.Errorf("写入清扫事件失败: %v", err)
	}

	if d.slogger != nil {
		logging.NewAdminLogger(d.slogger, "sweep").Info("清扫完成",
			"destination", destination.Hex(),
			"amount", balance.String())
	}
	d.logger.Infof("清扫完成: %s -> %s", balance.String(), destination.Hex())
	return event, nil
}

// StartVest 启动开发者份额的归属锁定，仅允许一次
// 执行顺序：落地启动标记 -> 授权锁定账户 -> 锁定份额；
// 协作方调用失败时撤销标记，允许修复后重试。
// lockAddress为零值时使用配置的锁定账户。
func (d *Distributor) StartVest(ctx context.Context, lockAddress common.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if lockAddress == (common.Address{}) {
		lockAddress = d.params.LockAddress
	}

	if err := d.store.SetVestStarted(); err != nil {
		return err
	}

	if err := d.ledger.Approve(ctx, d.params.PoolAddress, lockAddress, d.params.DeveloperPool); err != nil {
		d.rollbackVest()
		return fmt.Errorf("授权锁定账户失败: %w", err)
	}

	if err := d.locker.Lock(ctx, d.params.DevBeneficiary, d.params.DeveloperPool); err != nil {
		d.rollbackVest()
		return fmt.Errorf("锁定开发者份额失败: %w", err)
	}

	if err := d.output.WriteVestStarted(&models.VestStartedEvent{
		Lock:        lockAddress.Hex(),
		Beneficiary: d.params.DevBeneficiary.Hex(),
		Amount:      new(big.Int).Set(d.params.DeveloperPool),
		Timestamp:   d.now(),
	}); err != nil {
		d.logger.Errorf("写入锁仓启动事件失败: %v", err)
	}

	if d.slogger != nil {
		logging.NewAdminLogger(d.slogger, "start_vest").Info("归属锁定已启动",
			"lock", lockAddress.Hex(),
			"beneficiary", d.params.DevBeneficiary.Hex(),
			"amount", d.params.DeveloperPool.String())
	}
	d.logger.Infof("归属锁定已启动: 受益人 %s, 金额 %s",
		d.params.DevBeneficiary.Hex(), d.params.DeveloperPool.String())
	return nil
}

// rollbackVest 撤销锁仓启动标记
func (d *Distributor) rollbackVest() {
	if err := d.store.RevertVestStarted(); err != nil {
		d.logger.Errorf("撤销锁仓启动标记失败: %v", err)
	}
}

// Status 返回分发器当前状态
func (d *Distributor) Status(ctx context.Context) map[string]interface{} {
	status := d.store.GetStats()

	status["service_fee"] = d.params.ServiceFee.String()
	status["claim_period_ends"] = d.params.ClaimPeriodEnds.Format(time.RFC3339)
	status["claim_period_active"] = !d.now().After(d.params.ClaimPeriodEnds)

	if balance, err := d.ledger.BalanceOf(ctx, d.params.PoolAddress); err == nil {
		status["pool_balance"] = balance.String()
	}

	return status
}

// Params 返回分发参数
func (d *Distributor) Params() *Params {
	return d.params
}

// Store 返回状态存储
func (d *Distributor) Store() *store.Store {
	return d.store
}
