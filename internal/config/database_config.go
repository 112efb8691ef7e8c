package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// DatabaseConfig 数据库配置管理器
type DatabaseConfig struct {
	DB     *sql.DB
	logger *logrus.Logger
}

// NewDatabaseConfig 创建数据库配置管理器
func NewDatabaseConfig(dsn string, logger *logrus.Logger) (*DatabaseConfig, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	return &DatabaseConfig{
		DB:     db,
		logger: logger,
	}, nil
}

// LoadConfig 从数据库加载完整配置
func (dc *DatabaseConfig) LoadConfig() (*Config, error) {
	config := &Config{}

	// 加载分发配置
	distributionConfig, err := dc.loadDistributionConfig()
	if err != nil {
		return nil, fmt.Errorf("加载分发配置失败: %w", err)
	}
	config.Distribution = distributionConfig

	// 加载账本配置
	ledgerConfig, err := dc.loadLedgerConfig()
	if err != nil {
		return nil, fmt.Errorf("加载账本配置失败: %w", err)
	}
	config.Ledger = ledgerConfig

	// 加载输出配置
	outputConfig, err := dc.loadOutputConfig()
	if err != nil {
		return nil, fmt.Errorf("加载输出配置失败: %w", err)
	}
	config.Output = outputConfig

	// 加载服务配置
	apiConfig, err := dc.loadAPIConfig()
	if err != nil {
		return nil, fmt.Errorf("加载服务配置失败: %w", err)
	}
	config.API = apiConfig

	config.Logging = GetDefaultConfig().Logging

	return config, nil
}

// loadAPIConfig 加载服务配置
func (dc *DatabaseConfig) loadAPIConfig() (*APIConfig, error) {
	query := `SELECT config_key, config_value FROM system_config WHERE is_active = true`
	rows, err := dc.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := &APIConfig{
		ListenAddr: ":8080",
	}

	for rows.Next() {
		var key, value string
		err := rows.Scan(&key, &value)
		if err != nil {
			return nil, err
		}

		switch key {
		case "listen_addr":
			config.ListenAddr = value
		case "admin_token":
			config.AdminToken = value
		}
	}

	return config, nil
}

// loadDistributionConfig 加载分发配置
func (dc *DatabaseConfig) loadDistributionConfig() (*DistributionConfig, error) {
	query := `SELECT config_key, config_value FROM distribution_config WHERE is_active = true`
	rows, err := dc.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := &DistributionConfig{
		ServiceFee: "0",
		StorePath:  "./data/airdrop.db",
		ProofFile:  "./data/proofs.json",
	}

	for rows.Next() {
		var key, value string
		err := rows.Scan(&key, &value)
		if err != nil {
			return nil, err
		}

		switch key {
		case "total_supply":
			config.TotalSupply = value
		case "airdrop_pool":
			config.AirdropPool = value
		case "developer_pool":
			config.DeveloperPool = value
		case "liquidity_pool":
			config.LiquidityPool = value
		case "treasury_pool":
			config.TreasuryPool = value
		case "service_fee":
			config.ServiceFee = value
		case "claim_period_ends":
			config.ClaimPeriodEnds = value
		case "pool_address":
			config.PoolAddress = value
		case "fee_recipient":
			config.FeeRecipient = value
		case "liquidity_recipient":
			config.LiquidityRecipient = value
		case "dev_beneficiary":
			config.DevBeneficiary = value
		case "treasury":
			config.Treasury = value
		case "lock_address":
			config.LockAddress = value
		case "store_path":
			config.StorePath = value
		case "proof_file":
			config.ProofFile = value
		}
	}

	return config, nil
}

// loadLedgerConfig 加载账本配置
func (dc *DatabaseConfig) loadLedgerConfig() (*LedgerConfig, error) {
	query := `SELECT config_key, config_value FROM ledger_config WHERE is_active = true`
	rows, err := dc.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := &LedgerConfig{
		Mode:    "memory",
		ChainID: 1,
	}

	for rows.Next() {
		var key, value string
		err := rows.Scan(&key, &value)
		if err != nil {
			return nil, err
		}

		switch key {
		case "mode":
			config.Mode = value
		case "rpc_url":
			config.RPCURL = value
		case "token":
			config.Token = value
		case "private_key":
			config.PrivateKey = value
		case "chain_id":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil {
				config.ChainID = v
			}
		}
	}

	return config, nil
}

// loadOutputConfig 加载输出配置
func (dc *DatabaseConfig) loadOutputConfig() (*OutputConfig, error) {
	query := `SELECT config_key, config_value FROM output_config WHERE is_active = true`
	rows, err := dc.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := &OutputConfig{
		Format:    "json",
		Directory: "./outputs",
	}

	for rows.Next() {
		var key, value string
		err := rows.Scan(&key, &value)
		if err != nil {
			return nil, err
		}

		switch key {
		case "format":
			config.Format = value
		case "directory":
			config.Directory = value
		case "kafka_brokers":
			var brokers []string
			if err := json.Unmarshal([]byte(value), &brokers); err == nil {
				config.Kafka = &KafkaConfig{
					Brokers: brokers,
				}
			}
		}
	}

	// 加载Kafka主题配置
	if config.Format == "kafka" {
		topics, err := dc.loadKafkaTopics()
		if err != nil {
			return nil, err
		}
		if config.Kafka == nil {
			config.Kafka = &KafkaConfig{}
		}
		config.Kafka.Topics = topics
	}

	return config, nil
}

// loadKafkaTopics 加载Kafka主题配置
func (dc *DatabaseConfig) loadKafkaTopics() (map[string]string, error) {
	query := `SELECT event_type, topic_name FROM kafka_topics WHERE is_active = true`
	rows, err := dc.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	topics := make(map[string]string)
	for rows.Next() {
		var eventType, topicName string
		err := rows.Scan(&eventType, &topicName)
		if err != nil {
			return nil, err
		}
		topics[eventType] = topicName
	}

	return topics, nil
}

// UpdateConfig 更新配置
func (dc *DatabaseConfig) UpdateConfig(configType, key, value string) error {
	tableName, err := configTable(configType)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (config_key, config_value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (config_key)
		DO UPDATE SET config_value = $2, updated_at = CURRENT_TIMESTAMP
	`, tableName)

	_, err = dc.DB.Exec(query, key, value)
	return err
}

// GetConfig 获取配置值
func (dc *DatabaseConfig) GetConfig(configType, key string) (string, error) {
	tableName, err := configTable(configType)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf(`SELECT config_value FROM %s WHERE config_key = $1 AND is_active = true`, tableName)
	var value string
	err = dc.DB.QueryRow(query, key).Scan(&value)
	return value, err
}

// ListConfigs 列出所有配置
func (dc *DatabaseConfig) ListConfigs(configType string) (map[string]string, error) {
	tableName, err := configTable(configType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT config_key, config_value FROM %s WHERE is_active = true`, tableName)
	rows, err := dc.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make(map[string]string)
	for rows.Next() {
		var key, value string
		err := rows.Scan(&key, &value)
		if err != nil {
			return nil, err
		}
		configs[key] = value
	}

	return configs, nil
}

// configTable 配置类型到表名的映射
func configTable(configType string) (string, error) {
	switch strings.ToLower(configType) {
	case "distribution":
		return "distribution_config", nil
	case "ledger":
		return "ledger_config", nil
	case "output":
		return "output_config", nil
	case "system":
		return "system_config", nil
	default:
		return "", fmt.Errorf("不支持的配置类型: %s", configType)
	}
}

// Close 关闭数据库连接
func (dc *DatabaseConfig) Close() error {
	if dc.DB != nil {
		return dc.DB.Close()
	}
	return nil
}
