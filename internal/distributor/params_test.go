package distributor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airdrop/internal/config"
)

func validDistributionConfig() *config.DistributionConfig {
	return &config.DistributionConfig{
		TotalSupply:        "2000",
		AirdropPool:        "1000",
		DeveloperPool:      "500",
		LiquidityPool:      "300",
		TreasuryPool:       "200",
		ServiceFee:         "10",
		ClaimPeriodEnds:    "2026-12-31T00:00:00Z",
		PoolAddress:        "0x1111111111111111111111111111111111111111",
		FeeRecipient:       "0x2222222222222222222222222222222222222222",
		LiquidityRecipient: "0x3333333333333333333333333333333333333333",
		DevBeneficiary:     "0x4444444444444444444444444444444444444444",
		Treasury:           "0x5555555555555555555555555555555555555555",
		LockAddress:        "0x6666666666666666666666666666666666666666",
	}
}

func TestParamsFromConfig(t *testing.T) {
	params, err := ParamsFromConfig(validDistributionConfig())
	require.NoError(t, err)

	assert.Equal(t, "2000", params.TotalSupply.String())
	assert.Equal(t, "1000", params.AirdropPool.String())
	assert.Equal(t, "10", params.ServiceFee.String())
	assert.Equal(t, 2026, params.ClaimPeriodEnds.Year())
	assert.Equal(t, "0x1111111111111111111111111111111111111111", params.PoolAddress.Hex())
}

func TestParamsFromConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.DistributionConfig)
	}{
		{
			name:   "金额非十进制",
			mutate: func(dc *config.DistributionConfig) { dc.AirdropPool = "abc" },
		},
		{
			name:   "金额为负",
			mutate: func(dc *config.DistributionConfig) { dc.ServiceFee = "-1" },
		},
		{
			name:   "截止时间格式错误",
			mutate: func(dc *config.DistributionConfig) { dc.ClaimPeriodEnds = "2026-12-31" },
		},
		{
			name:   "地址格式错误",
			mutate: func(dc *config.DistributionConfig) { dc.Treasury = "0x123" },
		},
		{
			name:   "池总和与总量不符",
			mutate: func(dc *config.DistributionConfig) { dc.TreasuryPool = "999" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc := validDistributionConfig()
			tt.mutate(dc)
			_, err := ParamsFromConfig(dc)
			assert.Error(t, err)
		})
	}

	_, err := ParamsFromConfig(nil)
	assert.Error(t, err)
}

func TestParams_ValidateLedgerMode(t *testing.T) {
	// 链上账本无法替领取账户代扣服务费，非零费额拒绝启动
	params, err := ParamsFromConfig(validDistributionConfig())
	require.NoError(t, err)
	assert.Error(t, params.ValidateLedgerMode("eth"))

	// 内存账本不受限制
	assert.NoError(t, params.ValidateLedgerMode("memory"))

	// 零费额在任何模式下都允许
	dc := validDistributionConfig()
	dc.ServiceFee = "0"
	params, err = ParamsFromConfig(dc)
	require.NoError(t, err)
	assert.NoError(t, params.ValidateLedgerMode("eth"))
}
