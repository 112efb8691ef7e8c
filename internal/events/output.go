package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"airdrop/internal/config"
	"airdrop/pkg/models"

	"github.com/sirupsen/logrus"
)

// Output 事件输出接口
// 分发控制器的每次状态变更都产生一条事件，供下游审计与对账
type Output interface {
	WriteRootChanged(event *models.RootChangedEvent) error
	WriteClaim(event *models.ClaimEvent) error
	WriteSweep(event *models.SweepEvent) error
	WriteVestStarted(event *models.VestStartedEvent) error
	Close() error
}

// FileOutput 文件输出
type FileOutput struct {
	outputDir string
	format    string
	rootFile  *os.File
	claimFile *os.File
	sweepFile *os.File
	vestFile  *os.File
}

// NewOutput 创建输出器
func NewOutput(outputPath, format string) (Output, error) {
	return NewOutputWithConfig(outputPath, format, nil)
}

// NewOutputWithConfig 创建输出器（带配置）
func NewOutputWithConfig(outputPath, format string, kafkaConfig *config.KafkaConfig) (Output, error) {
	// 检查是否是Kafka输出
	if format == "kafka" {
		brokers := []string{"localhost:9092"} // 默认Kafka地址
		if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
			brokers = strings.Split(kafkaBrokers, ",")
		}

		// 默认topic映射
		topics := map[string]string{
			"root_changed": "airdrop_root_changed",
			"claims":       "airdrop_claims",
			"sweeps":       "airdrop_sweeps",
			"vest_started": "airdrop_vest_started",
		}

		// 如果提供了Kafka配置，使用配置中的设置
		if kafkaConfig != nil {
			if len(kafkaConfig.Brokers) > 0 {
				brokers = kafkaConfig.Brokers
			}
			if len(kafkaConfig.Topics) > 0 {
				topics = kafkaConfig.Topics
			}
		}

		logger := logrus.New()
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})

		return NewKafkaOutput(brokers, topics, logger)
	}

	// 确保输出目录存在
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	output := &FileOutput{
		outputDir: outputPath,
		format:    format,
	}

	timestamp := time.Now().Format("20060102_150405")

	rootFile, err := os.Create(filepath.Join(outputPath, fmt.Sprintf("root_changed_%s.%s", timestamp, format)))
	if err != nil {
		return nil, fmt.Errorf("创建承诺事件文件失败: %w", err)
	}
	output.rootFile = rootFile

	claimFile, err := os.Create(filepath.Join(outputPath, fmt.Sprintf("claims_%s.%s", timestamp, format)))
	if err != nil {
		return nil, fmt.Errorf("创建领取事件文件失败: %w", err)
	}
	output.claimFile = claimFile

	sweepFile, err := os.Create(filepath.Join(outputPath, fmt.Sprintf("sweeps_%s.%s", timestamp, format)))
	if err != nil {
		return nil, fmt.Errorf("创建清扫事件文件失败: %w", err)
	}
	output.sweepFile = sweepFile

	vestFile, err := os.Create(filepath.Join(outputPath, fmt.Sprintf("vest_started_%s.%s", timestamp, format)))
	if err != nil {
		return nil, fmt.Errorf("创建锁仓事件文件失败: %w", err)
	}
	output.vestFile = vestFile

	return output, nil
}

// writeLine 序列化并追加一行JSON
func writeLine(file *os.File, v interface{}, name string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化%s事件失败: %w", name, err)
	}

	data = append(data, '\n')

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("写入%s事件文件失败: %w", name, err)
	}

	// 强制刷新到磁盘
	if err := file.Sync(); err != nil {
		return fmt.Errorf("刷新%s事件文件失败: %w", name, err)
	}

	return nil
}

// WriteRootChanged 写入承诺配置事件
func (o *FileOutput) WriteRootChanged(event *models.RootChangedEvent) error {
	if event == nil {
		return nil
	}
	return writeLine(o.rootFile, event, "承诺配置")
}

// WriteClaim 写入领取事件
func (o *FileOutput) WriteClaim(event *models.ClaimEvent) error {
	if event == nil {
		return nil
	}
	return writeLine(o.claimFile, event, "领取")
}

// WriteSweep 写入清扫事件
func (o *FileOutput) WriteSweep(event *models.SweepEvent) error {
	if event == nil {
		return nil
	}
	return writeLine(o.sweepFile, event, "清扫")
}

// WriteVestStarted 写入锁仓启动事件
func (o *FileOutput) WriteVestStarted(event *models.VestStartedEvent) error {
	if event == nil {
		return nil
	}
	return writeLine(o.vestFile, event, "锁仓启动")
}

// Close 关闭文件
func (o *FileOutput) Close() error {
	var errors []error

	if o.rootFile != nil {
		if err := o.rootFile.Close(); err != nil {
			errors = append(errors, fmt.Errorf("关闭承诺事件文件失败: %w", err))
		}
	}

	if o.claimFile != nil {
		if err := o.claimFile.Close(); err != nil {
			errors = append(errors, fmt.Errorf("关闭领取事件文件失败: %w", err))
		}
	}

	if o.sweepFile != nil {
		if err := o.sweepFile.Close(); err != nil {
			errors = append(errors, fmt.Errorf("关闭清扫事件文件失败: %w", err))
		}
	}

	if o.vestFile != nil {
		if err := o.vestFile.Close(); err != nil {
			errors = append(errors, fmt.Errorf("关闭锁仓事件文件失败: %w", err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("关闭事件文件时发生错误: %v", errors)
	}

	return nil
}
