package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	yaml := `
distribution:
  total_supply: "2000"
  airdrop_pool: "1000"
  developer_pool: "500"
  liquidity_pool: "300"
  treasury_pool: "200"
  service_fee: "10"
  claim_period_ends: "2026-12-31T00:00:00Z"
  pool_address: "0x1111111111111111111111111111111111111111"
  fee_recipient: "0x2222222222222222222222222222222222222222"
  liquidity_recipient: "0x3333333333333333333333333333333333333333"
  dev_beneficiary: "0x4444444444444444444444444444444444444444"
  treasury: "0x5555555555555555555555555555555555555555"
  lock_address: "0x6666666666666666666666666666666666666666"
  store_path: "./data/test.db"
ledger:
  mode: "memory"
  chain_id: 1
output:
  format: "json"
  directory: "./outputs"
  kafka:
    brokers:
      - "localhost:9092"
    topics:
      claims: "airdrop_claims"
api:
  listen_addr: ":8080"
  admin_token: "secret"
logging:
  level: "debug"
  format: "text"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0644))

	cfg, err := LoadConfigFromFile(configPath)
	require.NoError(t, err)

	require.NotNil(t, cfg.Distribution)
	assert.Equal(t, "2000", cfg.Distribution.TotalSupply)
	assert.Equal(t, "1000", cfg.Distribution.AirdropPool)
	assert.Equal(t, "10", cfg.Distribution.ServiceFee)
	assert.Equal(t, "2026-12-31T00:00:00Z", cfg.Distribution.ClaimPeriodEnds)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.Distribution.PoolAddress)
	assert.Equal(t, "./data/test.db", cfg.Distribution.StorePath)

	require.NotNil(t, cfg.Ledger)
	assert.Equal(t, "memory", cfg.Ledger.Mode)
	assert.Equal(t, int64(1), cfg.Ledger.ChainID)

	require.NotNil(t, cfg.Output)
	assert.Equal(t, "json", cfg.Output.Format)
	require.NotNil(t, cfg.Output.Kafka)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Output.Kafka.Brokers)
	assert.Equal(t, "airdrop_claims", cfg.Output.Kafka.Topics["claims"])

	require.NotNil(t, cfg.API)
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
	assert.Equal(t, "secret", cfg.API.AdminToken)

	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFromFile_Missing(t *testing.T) {
	_, err := LoadConfigFromFile("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	require.NotNil(t, cfg.Distribution)
	assert.Equal(t, "1000000000000000000000000000", cfg.Distribution.TotalSupply)
	assert.Equal(t, "400000000000000000000000000", cfg.Distribution.AirdropPool)
	assert.Equal(t, "200000000000000000000000000", cfg.Distribution.DeveloperPool)
	assert.Equal(t, "200000000000000000000000000", cfg.Distribution.LiquidityPool)
	assert.Equal(t, "200000000000000000000000000", cfg.Distribution.TreasuryPool)

	require.NotNil(t, cfg.Ledger)
	assert.Equal(t, "memory", cfg.Ledger.Mode)

	require.NotNil(t, cfg.Output)
	assert.Equal(t, "json", cfg.Output.Format)
	require.NotNil(t, cfg.Output.Kafka)
	assert.NotEmpty(t, cfg.Output.Kafka.Topics)

	require.NotNil(t, cfg.API)
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
}
