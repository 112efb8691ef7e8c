package distributor

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	apperrors "airdrop/internal/errors"
	"airdrop/internal/events"
	"airdrop/internal/ledger"
	"airdrop/internal/lock"
	"airdrop/internal/logging"
	"airdrop/internal/merkle"
	"airdrop/internal/store"
	"airdrop/pkg/models"
)

var (
	poolAddr      = common.HexToAddress("0xaaaa000000000000000000000000000000000001")
	feeRecipient  = common.HexToAddress("0xaaaa000000000000000000000000000000000002")
	liquidityAddr = common.HexToAddress("0xaaaa000000000000000000000000000000000003")
	devAddr       = common.HexToAddress("0xaaaa000000000000000000000000000000000004")
	treasuryAddr  = common.HexToAddress("0xaaaa000000000000000000000000000000000005")
	lockAddr      = common.HexToAddress("0xaaaa000000000000000000000000000000000006")

	accountX = common.HexToAddress("0x1111111111111111111111111111111111111111")
	accountY = common.HexToAddress("0x2222222222222222222222222222222222222222")
	accountZ = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// testEnv 测试装置：内存账本 + 临时状态库 + 文件事件输出
type testEnv struct {
	dist   *Distributor
	store  *store.Store
	ledger *ledger.MemoryLedger
	locker *lock.MemoryLock
	tree   *merkle.Tree
}

func defaultParams(fee int64, deadline time.Time) *Params {
	return &Params{
		TotalSupply:        big.NewInt(2000),
		AirdropPool:        big.NewInt(1000),
		DeveloperPool:      big.NewInt(500),
		LiquidityPool:      big.NewInt(300),
		TreasuryPool:       big.NewInt(200),
		ServiceFee:         big.NewInt(fee),
		ClaimPeriodEnds:    deadline,
		PoolAddress:        poolAddr,
		FeeRecipient:       feeRecipient,
		LiquidityRecipient: liquidityAddr,
		DevBeneficiary:     devAddr,
		Treasury:           treasuryAddr,
		LockAddress:        lockAddr,
	}
}

func newTestEnv(t *testing.T, params *Params) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	s, err := store.NewStore(filepath.Join(t.TempDir(), "airdrop.db"), logger)
	assert.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	output, err := events.NewOutput(t.TempDir(), "json")
	assert.NoError(t, err)
	t.Cleanup(func() { output.Close() })

	memLedger := ledger.NewMemoryLedger(logger)
	memLock := lock.NewMemoryLock(logger)

	dist, err := NewDistributor(params, s, memLedger, memLock, output, logger)
	assert.NoError(t, err)

	assert.NoError(t, dist.Bootstrap(context.Background()))

	// X有100额度，Y有200额度，Z不在集合中
	tree, err := merkle.NewTree([]models.Eligibility{
		{Address: accountX, Amount: big.NewInt(100)},
		{Address: accountY, Amount: big.NewInt(200)},
	})
	assert.NoError(t, err)

	return &testEnv{
		dist:   dist,
		store:  s,
		ledger: memLedger,
		locker: memLock,
		tree:   tree,
	}
}

func (e *testEnv) claimFor(t *testing.T, account common.Address, payment int64) (*models.ClaimReceipt, error) {
	t.Helper()

	proof, amount, err := e.tree.Proof(account)
	assert.NoError(t, err)

	return e.dist.Claim(context.Background(), &models.ParsedClaim{
		Account: account,
		Amount:  amount,
		Proof:   proof,
		Payment: big.NewInt(payment),
	})
}

func (e *testEnv) balance(t *testing.T, account common.Address) *big.Int {
	t.Helper()
	b, err := e.ledger.BalanceOf(context.Background(), account)
	assert.NoError(t, err)
	return b
}

func TestParams_Validate(t *testing.T) {
	deadline := time.Now().Add(time.Hour)

	params := defaultParams(0, deadline)
	assert.NoError(t, params.Validate())

	// 池份额之和不等于总供给
	bad := defaultParams(0, deadline)
	bad.TreasuryPool = big.NewInt(201)
	assert.Error(t, bad.Validate())

	// 截止时间缺失
	bad = defaultParams(0, time.Time{})
	assert.Error(t, bad.Validate())

	// 负数份额
	bad = defaultParams(0, deadline)
	bad.AirdropPool = big.NewInt(-1)
	assert.Error(t, bad.Validate())
}

func TestDistributor_Bootstrap(t *testing.T) {
	env := newTestEnv(t, defaultParams(0, time.Now().Add(time.Hour)))

	// 空投池与开发者池都由分发池账户持有
	assert.Equal(t, big.NewInt(1500), env.balance(t, poolAddr))
	assert.Equal(t, big.NewInt(300), env.balance(t, liquidityAddr))
	assert.Equal(t, big.NewInt(200), env.balance(t, treasuryAddr))
	assert.Equal(t, big.NewInt(2000), env.ledger.TotalSupply())
}

func TestDistributor_Bootstrap_Once(t *testing.T) {
	// 装置创建时已执行过一次铸造
	env := newTestEnv(t, defaultParams(0, time.Now().Add(time.Hour)))

	// 重复铸造必须失败，供给不翻倍
	err := env.dist.Bootstrap(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyBootstrapped))
	assert.Equal(t, big.NewInt(2000), env.ledger.TotalSupply())
	assert.Equal(t, big.NewInt(1500), env.balance(t, poolAddr))
}

// failingMintLedger 铸造必败的账本，用于验证标记回滚
type failingMintLedger struct {
	*ledger.MemoryLedger
}

func (f *failingMintLedger) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	return apperrors.ErrInsufficientBalance
}

func TestDistributor_Bootstrap_RollbackOnMintFailure(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	s, err := store.NewStore(filepath.Join(t.TempDir(), "airdrop.db"), logger)
	assert.NoError(t, err)
	defer s.Close()

	output, err := events.NewOutput(t.TempDir(), "json")
	assert.NoError(t, err)
	defer output.Close()

	memLedger := ledger.NewMemoryLedger(logger)
	params := defaultParams(0, time.Now().Add(time.Hour))
	dist, err := NewDistributor(params, s, &failingMintLedger{MemoryLedger: memLedger}, lock.NewMemoryLock(logger), output, logger)
	assert.NoError(t, err)

	err = dist.Bootstrap(context.Background())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrAlreadyBootstrapped))

	// 标记已撤销，修复账本后允许重试
	assert.False(t, s.BootstrapDone())
	dist2, err := NewDistributor(params, s, memLedger, lock.NewMemoryLock(logger), output, logger)
	assert.NoError(t, err)
	assert.NoError(t, dist2.Bootstrap(context.Background()))
	assert.Equal(t, big.NewInt(2000), memLedger.TotalSupply())
}

func TestDistributor_SetRoot_Once(t *testing.T) {
	env := newTestEnv(t, defaultParams(0, time.Now().Add(time.Hour)))
	ctx := context.Background()

	assert.NoError(t, env.dist.SetRoot(ctx, env.tree.Root()))

	// 二次配置必须失败
	err := env.dist.SetRoot(ctx, common.HexToHash("0x01"))
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyConfigured))

	// 零值承诺拒绝
	env2 := newTestEnv(t, defaultParams(0, time.Now().Add(time.Hour)))
	assert.Error(t, env2.dist.SetRoot(ctx, common.Hash{}))
}

func TestDistributor_Claim(t *testing.T) {
	env := newTestEnv(t, defaultParams(0, time.Now().Add(time.Hour)))
	assert.NoError(t, env.dist.SetRoot(context.Background(), env.tree.Root()))

	receipt, err := env.claimFor(t, accountX, 0)
	assert.NoError(t, err)
	assert.Equal(t, accountX.Hex(), receipt.Account)
	assert.Equal(t, big.NewInt(100), receipt.Amount)

	assert.Equal(t, big.NewInt(100), env.balance(t, accountX))
	assert.Equal(t, big.NewInt(1400), env.balance(t, poolAddr))
	assert.Equal(t, uint64(1), env.store.ClaimedCount())
}

func TestDistributor_Claim_BeforeRootConfigured(t *testing.T) {
	env := newTestEnv(t, defaultParams(0, time.Now().Add(time.Hour)))

	// 承诺未配置时任何证明都不成立
	_, err := env.claimFor(t, accountX, 0)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidProof))
}

func TestDistributor_Claim_AlreadyClaimed(t *testing.T) {
	env := newTestEnv(t, defaultParams(0, time.Now().Add(time.Hour)))
	assert.NoError(t, env.dist.SetRoot(context.Background(), env.tree.Root()))

	_, err := env.claimFor(t, accountX, 0)
	assert.NoError(t, err)

	// 同一账户重复领取必须失败，余额不再变化
	_, err = env.claimFor(t, accountX, 0)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyClaimed))
	assert.Equal(t, big.NewInt(100), env.balance(t, accountX))
}

func TestDistributor_Claim_InvalidProof(t *testing.T) {
	env := newTestEnv(t, defaultParams(0, time.Now().Add(time.Hour)))
	ctx := context.Background()
	assert.NoError(t, env.dist.SetRoot(ctx, env.tree.Root()))

	proof, _, err := env.tree.Proof(accountX)
	assert.NoError(t, err)

	// 篡改金额
	_, err = env.dist.Claim(ctx, &models.ParsedClaim{
		Account: accountX,
		Amount:  big.NewInt(999),
		Proof:   proof,
		Payment: new(big.Int),
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidProof))

	// 换账户用他人证明
	_, err = env.dist.Claim(ctx, &models.ParsedClaim{
		Account: accountZ,
		Amount:  big.NewInt(100),
		Proof:   proof,
		Payment: new(big.Int),
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidProof))

	// 失败不留任何痕迹
	assert.Equal(t, uint64(0), env.store.ClaimedCount())
}

func TestDistributor_Claim_ServiceFee(t *testing.T) {
	env := newTestEnv(t, defaultParams(10, time.Now().Add(time.Hour)))
	ctx := context.Background()
	assert.NoError(t, env.dist.SetRoot(ctx, env.tree.Root()))

	// 账户需要先持有服务费
	assert.NoError(t, env.ledger.Mint(ctx, accountX, big.NewInt(10)))

	// 未附费拒绝
	_, err := env.claimFor(t, accountX, 0)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientFee))

	// 多付同样拒绝
	_, err = env.claimFor(t, accountX, 20)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientFee))

	// 足额通过，服务费到账
	_, err = env.claimFor(t, accountX, 10)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(10), env.balance(t, feeRecipient))
	assert.Equal(t, big.NewInt(100), env.balance(t, accountX))
}

// orderingLedger 在份额转账时断言已领取标记已经落地
type orderingLedger struct {
	*ledger.MemoryLedger
	t     *testing.T
	store *store.Store
	check common.Address
}

func (o *orderingLedger) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	claimed, err := o.store.HasClaimed(o.check)
	assert.NoError(o.t, err)
	assert.True(o.t, claimed, "转账发生时已领取标记必须已落地")
	return o.MemoryLedger.Transfer(ctx, from, to, amount)
}

func TestDistributor_Claim_StateBeforeTransfer(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	s, err := store.NewStore(filepath.Join(t.TempDir(), "airdrop.db"), logger)
	assert.NoError(t, err)
	defer s.Close()

	output, err := events.NewOutput(t.TempDir(), "json")
	assert.NoError(t, err)
	defer output.Close()

	memLedger := ledger.NewMemoryLedger(logger)
	wrapped := &orderingLedger{MemoryLedger: memLedger, t: t, store: s, check: accountX}

	params := defaultParams(0, time.Now().Add(time.Hour))
	dist, err := NewDistributor(params, s, wrapped, lock.NewMemoryLock(logger), output, logger)
	assert.NoError(t, err)
	assert.NoError(t, memLedger.Mint(context.Background(), poolAddr, big.NewInt(1000)))

	tree, err := merkle.NewTree([]models.Eligibility{
		{Address: accountX, Amount: big.NewInt(100)},
	})
	assert.NoError(t, err)
	assert.NoError(t, dist.SetRoot(context.Background(), tree.Root()))

	proof, amount, err := tree.Proof(accountX)
	assert.NoError(t, err)

	_, err = dist.Claim(context.Background(), &models.ParsedClaim{
		Account: accountX,
		Amount:  amount,
		Proof:   proof,
		Payment: new(big.Int),
	})
	assert.NoError(t, err)
}

func TestDistributor_Claim_RollbackOnLedgerFailure(t *testing.T) {
	// 分发池为空，份额转账必然失败
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	s, err := store.NewStore(filepath.Join(t.TempDir(), "airdrop.db"), logger)
	assert.NoError(t, err)
	defer s.Close()

	output, err := events.NewOutput(t.TempDir(), "json")
	assert.NoError(t, err)
	defer output.Close()

	memLedger := ledger.NewMemoryLedger(logger)
	params := defaultParams(0, time.Now().Add(time.Hour))
	dist, err := NewDistributor(params, s, memLedger, lock.NewMemoryLock(logger), output, logger)
	assert.NoError(t, err)

	tree, err := merkle.NewTree([]models.Eligibility{
		{Address: accountX, Amount: big.NewInt(100)},
	})
	assert.NoError(t, err)
	assert.NoError(t, dist.SetRoot(context.Background(), tree.Root()))

	proof, amount, err := tree.Proof(accountX)
	assert.NoError(t, err)
	req := &models.ParsedClaim{
		Account: accountX,
		Amount:  amount,
		Proof:   proof,
		Payment: new(big.Int),
	}

	_, err = dist.Claim(context.Background(), req)
	assert.Error(t, err)

	// 标记必须已撤销，补足资金后可重新领取
	claimed, err := s.HasClaimed(accountX)
	assert.NoError(t, err)
	assert.False(t, claimed)

	assert.NoError(t, memLedger.Mint(context.Background(), poolAddr, big.NewInt(1000)))
	_, err = dist.Claim(context.Background(), req)
	assert.NoError(t, err)
}

func TestDistributor_Sweep(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	env := newTestEnv(t, defaultParams(0, deadline))
	ctx := context.Background()
	assert.NoError(t, env.dist.SetRoot(ctx, env.tree.Root()))

	// 领取期内拒绝清扫
	_, err := env.dist.Sweep(ctx, treasuryAddr)
	assert.True(t, errors.Is(err, apperrors.ErrPeriodNotEnded))

	// 截止时刻当下仍属领取期
	env.dist.now = func() time.Time { return deadline }
	_, err = env.dist.Sweep(ctx, treasuryAddr)
	assert.True(t, errors.Is(err, apperrors.ErrPeriodNotEnded))

	// X与Y领完后清扫，余量归国库
	env.dist.now = time.Now
	_, err = env.claimFor(t, accountX, 0)
	assert.NoError(t, err)
	_, err = env.claimFor(t, accountY, 0)
	assert.NoError(t, err)

	// 未指定目标时落入国库
	env.dist.now = func() time.Time { return deadline.Add(time.Second) }
	event, err := env.dist.Sweep(ctx, common.Address{})
	assert.NoError(t, err)

	// 池中持有空投池1000-300已领，加上未启动锁仓的开发者池500
	assert.Equal(t, treasuryAddr.Hex(), event.Destination)
	assert.Equal(t, big.NewInt(1200), event.Amount)
	assert.Equal(t, big.NewInt(0), env.balance(t, poolAddr))
	assert.Equal(t, big.NewInt(1400), env.balance(t, treasuryAddr))
}

func TestDistributor_Sweep_DoesNotBlockClaims(t *testing.T) {
	// 领取不受截止时间限制，清扫后的领取因池空而失败，而非被拒之门外
	deadline := time.Now().Add(-time.Hour)
	env := newTestEnv(t, defaultParams(0, deadline))
	ctx := context.Background()
	assert.NoError(t, env.dist.SetRoot(ctx, env.tree.Root()))

	// 截止时间已过，领取仍然允许
	_, err := env.claimFor(t, accountX, 0)
	assert.NoError(t, err)

	_, err = env.dist.Sweep(ctx, treasuryAddr)
	assert.NoError(t, err)

	// 池已清空，后续领取失败但原因是余额不足
	_, err = env.claimFor(t, accountY, 0)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrPeriodNotEnded))
}

func TestDistributor_StartVest(t *testing.T) {
	env := newTestEnv(t, defaultParams(0, time.Now().Add(time.Hour)))
	ctx := context.Background()

	assert.NoError(t, env.dist.StartVest(ctx, lockAddr))

	// 授权与锁定都已发生
	assert.Equal(t, big.NewInt(500), env.ledger.Allowance(poolAddr, lockAddr))
	grants := env.locker.Grants()
	assert.Len(t, grants, 1)
	assert.Equal(t, devAddr, grants[0].Beneficiary)
	assert.Equal(t, big.NewInt(500), grants[0].Amount)

	// 二次启动必须失败
	err := env.dist.StartVest(ctx, lockAddr)
	assert.True(t, errors.Is(err, apperrors.ErrVestAlreadyStarted))
	assert.Len(t, env.locker.Grants(), 1)
}

// failingLock 锁定必败的实现，用于验证回滚
type failingLock struct{}

func (f *failingLock) Lock(ctx context.Context, beneficiary common.Address, amount *big.Int) error {
	return apperrors.ErrLockFailed
}

func TestDistributor_StartVest_RollbackOnLockFailure(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	s, err := store.NewStore(filepath.Join(t.TempDir(), "airdrop.db"), logger)
	assert.NoError(t, err)
	defer s.Close()

	output, err := events.NewOutput(t.TempDir(), "json")
	assert.NoError(t, err)
	defer output.Close()

	params := defaultParams(0, time.Now().Add(time.Hour))
	dist, err := NewDistributor(params, s, ledger.NewMemoryLedger(logger), &failingLock{}, output, logger)
	assert.NoError(t, err)

	err = dist.StartVest(context.Background(), lockAddr)
	assert.Error(t, err)

	// 启动标记已撤销，修复后允许重试
	assert.False(t, s.VestStarted())
}

func TestDistributor_FullLifecycle(t *testing.T) {
	// 空投池1000，X领100，Y领200，清扫后国库拿走剩余
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	deadline := time.Now().Add(time.Hour)
	params := defaultParams(0, deadline)

	s, err := store.NewStore(filepath.Join(t.TempDir(), "airdrop.db"), logger)
	assert.NoError(t, err)
	defer s.Close()

	output, err := events.NewOutput(t.TempDir(), "json")
	assert.NoError(t, err)
	defer output.Close()

	memLedger := ledger.NewMemoryLedger(logger)
	memLock := lock.NewMemoryLock(logger)
	dist, err := NewDistributor(params, s, memLedger, memLock, output, logger)
	assert.NoError(t, err)

	ctx := context.Background()

	// 只铸空投池，便于核对清扫金额
	assert.NoError(t, memLedger.Mint(ctx, poolAddr, big.NewInt(1000)))

	tree, err := merkle.NewTree([]models.Eligibility{
		{Address: accountX, Amount: big.NewInt(100)},
		{Address: accountY, Amount: big.NewInt(200)},
	})
	assert.NoError(t, err)
	assert.NoError(t, dist.SetRoot(ctx, tree.Root()))

	for _, tc := range []struct {
		account common.Address
		want    int64
	}{
		{accountX, 100},
		{accountY, 200},
	} {
		proof, amount, err := tree.Proof(tc.account)
		assert.NoError(t, err)
		receipt, err := dist.Claim(ctx, &models.ParsedClaim{
			Account: tc.account,
			Amount:  amount,
			Proof:   proof,
			Payment: new(big.Int),
		})
		assert.NoError(t, err)
		assert.Equal(t, big.NewInt(tc.want), receipt.Amount)
	}

	dist.now = func() time.Time { return deadline.Add(time.Minute) }
	event, err := dist.Sweep(ctx, treasuryAddr)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(700), event.Amount)

	treasuryBalance, err := memLedger.BalanceOf(ctx, treasuryAddr)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(700), treasuryBalance)

	status := dist.Status(ctx)
	assert.Equal(t, uint64(2), status["claimed_count"])
	assert.Equal(t, "300", status["claimed_total"])
	assert.Equal(t, "0", status["pool_balance"])
}

func TestDistributor_ZeroAmountClaim(t *testing.T) {
	// 资格集合中的零额度条目允许领取，领取后同样进入已领取集合
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	s, err := store.NewStore(filepath.Join(t.TempDir(), "airdrop.db"), logger)
	assert.NoError(t, err)
	defer s.Close()

	output, err := events.NewOutput(t.TempDir(), "json")
	assert.NoError(t, err)
	defer output.Close()

	memLedger := ledger.NewMemoryLedger(logger)
	params := defaultParams(0, time.Now().Add(time.Hour))
	dist, err := NewDistributor(params, s, memLedger, lock.NewMemoryLock(logger), output, logger)
	assert.NoError(t, err)

	tree, err := merkle.NewTree([]models.Eligibility{
		{Address: accountX, Amount: big.NewInt(0)},
		{Address: accountY, Amount: big.NewInt(200)},
	})
	assert.NoError(t, err)
	assert.NoError(t, dist.SetRoot(context.Background(), tree.Root()))

	proof, amount, err := tree.Proof(accountX)
	assert.NoError(t, err)
	req := &models.ParsedClaim{
		Account: accountX,
		Amount:  amount,
		Proof:   proof,
		Payment: new(big.Int),
	}

	_, err = dist.Claim(context.Background(), req)
	assert.NoError(t, err)

	_, err = dist.Claim(context.Background(), req)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyClaimed))
}

func TestDistributor_StructuredLogging(t *testing.T) {
	// 配置了日志区段时，领取与管理操作写入结构化日志
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	logPath := filepath.Join(t.TempDir(), "airdrop.log")
	logConfig := &logging.LogConfig{
		Level:  "info",
		Format: "json",
		Output: logPath,
	}

	s, err := store.NewStore(filepath.Join(t.TempDir(), "airdrop.db"), logger)
	assert.NoError(t, err)
	defer s.Close()

	output, err := events.NewOutput(t.TempDir(), "json")
	assert.NoError(t, err)
	defer output.Close()

	memLedger := ledger.NewMemoryLedger(logger)
	params := defaultParams(0, time.Now().Add(time.Hour))
	dist, err := NewDistributorWithLogging(params, s, memLedger, lock.NewMemoryLock(logger), output, logger, logConfig)
	assert.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, dist.Bootstrap(ctx))

	tree, err := merkle.NewTree([]models.Eligibility{
		{Address: accountX, Amount: big.NewInt(100)},
	})
	assert.NoError(t, err)
	assert.NoError(t, dist.SetRoot(ctx, tree.Root()))

	proof, amount, err := tree.Proof(accountX)
	assert.NoError(t, err)
	_, err = dist.Claim(ctx, &models.ParsedClaim{
		Account: accountX,
		Amount:  amount,
		Proof:   proof,
		Payment: new(big.Int),
	})
	assert.NoError(t, err)

	data, err := os.ReadFile(logPath)
	assert.NoError(t, err)
	content := string(data)

	// 管理操作带admin组件与操作名
	assert.Contains(t, content, `"component":"admin"`)
	assert.Contains(t, content, `"operation":"bootstrap"`)
	assert.Contains(t, content, `"operation":"set_root"`)

	// 领取日志带claim_processor组件与账户字段
	assert.Contains(t, content, `"component":"claim_processor"`)
	assert.Contains(t, content, accountX.Hex())
}

func TestDistributor_StructuredLogging_NilConfig(t *testing.T) {
	// 未配置日志区段时退化为普通日志器，操作照常执行
	env := newTestEnv(t, defaultParams(0, time.Now().Add(time.Hour)))
	assert.Nil(t, env.dist.slogger)

	assert.NoError(t, env.dist.SetRoot(context.Background(), env.tree.Root()))
	_, err := env.claimFor(t, accountX, 0)
	assert.NoError(t, err)
}
