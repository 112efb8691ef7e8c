package distributor

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"airdrop/internal/config"
)

// ParamsFromConfig 从分发配置构建分发参数
func ParamsFromConfig(dc *config.DistributionConfig) (*Params, error) {
	if dc == nil {
		return nil, fmt.Errorf("分发配置为空")
	}

	params := &Params{}

	for _, f := range []struct {
		name  string
		value string
		dst   **big.Int
	}{
		{"total_supply", dc.TotalSupply, &params.TotalSupply},
		{"airdrop_pool", dc.AirdropPool, &params.AirdropPool},
		{"developer_pool", dc.DeveloperPool, &params.DeveloperPool},
		{"liquidity_pool", dc.LiquidityPool, &params.LiquidityPool},
		{"treasury_pool", dc.TreasuryPool, &params.TreasuryPool},
		{"service_fee", dc.ServiceFee, &params.ServiceFee},
	} {
		v, ok := new(big.Int).SetString(f.value, 10)
		if !ok || v.Sign() < 0 {
			return nil, fmt.Errorf("配置项 %s 不是合法金额: %q", f.name, f.value)
		}
		*f.dst = v
	}

	deadline, err := time.Parse(time.RFC3339, dc.ClaimPeriodEnds)
	if err != nil {
		return nil, fmt.Errorf("配置项 claim_period_ends 解析失败: %w", err)
	}
	params.ClaimPeriodEnds = deadline

	for _, f := range []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{"pool_address", dc.PoolAddress, &params.PoolAddress},
		{"fee_recipient", dc.FeeRecipient, &params.FeeRecipient},
		{"liquidity_recipient", dc.LiquidityRecipient, &params.LiquidityRecipient},
		{"dev_beneficiary", dc.DevBeneficiary, &params.DevBeneficiary},
		{"treasury", dc.Treasury, &params.Treasury},
		{"lock_address", dc.LockAddress, &params.LockAddress},
	} {
		if !common.IsHexAddress(f.value) {
			return nil, fmt.Errorf("配置项 %s 不是合法地址: %q", f.name, f.value)
		}
		*f.dst = common.HexToAddress(f.value)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return params, nil
}

// ValidateLedgerMode 校验分发参数与账本模式的兼容性
// 链上账本只能从签名账户发起转账，无法替领取账户代扣服务费，
// 因此eth模式下服务费必须为零。
func (p *Params) ValidateLedgerMode(mode string) error {
	if mode == "eth" && p.ServiceFee.Sign() > 0 {
		return fmt.Errorf("链上账本模式不支持非零服务费: service_fee=%s", p.ServiceFee.String())
	}
	return nil
}
