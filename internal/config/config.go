package config

import (
	"fmt"
	"os"

	"airdrop/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config 主配置
type Config struct {
	Distribution *DistributionConfig `mapstructure:"distribution"`
	Ledger       *LedgerConfig       `mapstructure:"ledger"`
	Output       *OutputConfig       `mapstructure:"output"`
	API          *APIConfig          `mapstructure:"api"`
	Logging      *logging.LogConfig  `mapstructure:"logging"`
}

// DistributionConfig 分发配置
// 金额统一用十进制字符串表示，避免YAML整型溢出
type DistributionConfig struct {
	TotalSupply        string `mapstructure:"total_supply"`
	AirdropPool        string `mapstructure:"airdrop_pool"`
	DeveloperPool      string `mapstructure:"developer_pool"`
	LiquidityPool      string `mapstructure:"liquidity_pool"`
	TreasuryPool       string `mapstructure:"treasury_pool"`
	ServiceFee         string `mapstructure:"service_fee"`
	ClaimPeriodEnds    string `mapstructure:"claim_period_ends"` // RFC3339时间
	PoolAddress        string `mapstructure:"pool_address"`
	FeeRecipient       string `mapstructure:"fee_recipient"`
	LiquidityRecipient string `mapstructure:"liquidity_recipient"`
	DevBeneficiary     string `mapstructure:"dev_beneficiary"`
	Treasury           string `mapstructure:"treasury"`
	LockAddress        string `mapstructure:"lock_address"`
	StorePath          string `mapstructure:"store_path"`
	ProofFile          string `mapstructure:"proof_file"`
}

// LedgerConfig 账本配置
type LedgerConfig struct {
	Mode       string `mapstructure:"mode"` // memory 或 eth
	RPCURL     string `mapstructure:"rpc_url"`
	Token      string `mapstructure:"token"`
	PrivateKey string `mapstructure:"private_key"`
	ChainID    int64  `mapstructure:"chain_id"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers []string          `mapstructure:"brokers"`
	Topics  map[string]string `mapstructure:"topics"`
}

// OutputConfig 事件输出配置
type OutputConfig struct {
	Format    string       `mapstructure:"format"`
	Directory string       `mapstructure:"directory"`
	Kafka     *KafkaConfig `mapstructure:"kafka"`
}

// APIConfig 服务配置
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AdminToken string `mapstructure:"admin_token"`
}

// LoadConfig 加载配置（自动检测配置源）
func LoadConfig(configPath string) (*Config, error) {
	// 首先尝试从环境变量获取数据库配置
	dbDSN := os.Getenv("AIRDROP_DB_DSN")
	if dbDSN != "" {
		logger := logrus.New()
		dbConfig, err := NewDatabaseConfig(dbDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("连接数据库失败: %w", err)
		}
		defer dbConfig.Close()

		config, err := dbConfig.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("从数据库加载配置失败: %w", err)
		}

		logger.Info("已从数据库加载配置")
		return config, nil
	}

	// 检查是否存在数据库配置文件
	dbConfigFile := "configs/database.yaml"
	if _, err := os.Stat(dbConfigFile); err == nil {
		dbViper := viper.New()
		dbViper.SetConfigFile(dbConfigFile)
		dbViper.SetConfigType("yaml")

		if err := dbViper.ReadInConfig(); err == nil {
			dbDSN := dbViper.GetString("database.dsn")
			if dbDSN != "" {
				logger := logrus.New()
				dbConfig, err := NewDatabaseConfig(dbDSN, logger)
				if err == nil {
					defer dbConfig.Close()

					config, err := dbConfig.LoadConfig()
					if err == nil {
						logger.Info("已从数据库加载配置")
						return config, nil
					}
				}
			}
		}
	}

	// 如果数据库配置不可用，回退到YAML文件
	return LoadConfigFromFile(configPath)
}

// LoadConfigFromFile 从文件加载配置
func LoadConfigFromFile(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 缺失的区段用默认值补齐
	defaults := GetDefaultConfig()
	if config.Distribution == nil {
		config.Distribution = defaults.Distribution
	}
	if config.Ledger == nil {
		config.Ledger = defaults.Ledger
	}
	if config.Output == nil {
		config.Output = defaults.Output
	}
	if config.API == nil {
		config.API = defaults.API
	}
	if config.Logging == nil {
		config.Logging = defaults.Logging
	}

	return &config, nil
}

// GetDefaultConfig 获取默认配置
func GetDefaultConfig() *Config {
	return &Config{
		Distribution: &DistributionConfig{
			TotalSupply:     "1000000000000000000000000000",
			AirdropPool:     "400000000000000000000000000",
			DeveloperPool:   "200000000000000000000000000",
			LiquidityPool:   "200000000000000000000000000",
			TreasuryPool:    "200000000000000000000000000",
			ServiceFee:      "0",
			ClaimPeriodEnds: "", // 需要在YAML配置或数据库中指定
			StorePath:       "./data/airdrop.db",
			ProofFile:       "./data/proofs.json",
		},
		Ledger: &LedgerConfig{
			Mode:    "memory",
			ChainID: 1,
		},
		Output: &OutputConfig{
			Format:    "json",
			Directory: "./outputs",
			Kafka: &KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topics: map[string]string{
					"root_changed": "airdrop_root_changed",
					"claims":       "airdrop_claims",
					"sweeps":       "airdrop_sweeps",
					"vest_started": "airdrop_vest_started",
				},
			},
		},
		API: &APIConfig{
			ListenAddr: ":8080",
		},
		Logging: &logging.LogConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			Rotation:   false,
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}
