package events

import (
	"encoding/json"
	"fmt"
	"time"

	"airdrop/pkg/models"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// KafkaOutput Kafka输出器
type KafkaOutput struct {
	logger   *logrus.Logger
	topics   map[string]string // 事件类型到topic的映射
	producer sarama.SyncProducer
}

// NewKafkaOutput 创建Kafka输出器
func NewKafkaOutput(brokers []string, topics map[string]string, logger *logrus.Logger) (*KafkaOutput, error) {
	logger.Infof("初始化Kafka输出器，brokers: %v", brokers)
	logger.Infof("Kafka topics配置: %v", topics)

	// 配置Kafka生产者
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second
	config.Version = sarama.V2_8_0_0

	// 创建同步生产者
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("创建Kafka生产者失败: %w", err)
	}

	logger.Info("Kafka生产者已创建")

	return &KafkaOutput{
		logger:   logger,
		topics:   topics,
		producer: producer,
	}, nil
}

// sendToKafka 发送事件到Kafka
// key用于分区路由，同一账户的事件落在同一分区保持有序
func (k *KafkaOutput) sendToKafka(topic, key string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.StringEncoder(jsonData),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("发送消息到Kafka失败: %w", err)
	}

	k.logger.Infof("成功发送事件到Kafka topic '%s' (partition: %d, offset: %d): %s",
		topic, partition, offset, string(jsonData))

	return nil
}

// WriteRootChanged 写入承诺配置事件
func (k *KafkaOutput) WriteRootChanged(event *models.RootChangedEvent) error {
	if event == nil {
		return nil
	}

	topic, exists := k.topics["root_changed"]
	if !exists {
		topic = "airdrop_root_changed"
	}

	return k.sendToKafka(topic, "", event)
}

// WriteClaim 写入领取事件
func (k *KafkaOutput) WriteClaim(event *models.ClaimEvent) error {
	if event == nil {
		return nil
	}

	topic, exists := k.topics["claims"]
	if !exists {
		topic = "airdrop_claims"
	}

	return k.sendToKafka(topic, event.Account, event)
}

// WriteSweep 写入清扫事件
func (k *KafkaOutput) WriteSweep(event *models.SweepEvent) error {
	if event == nil {
		return nil
	}

	topic, exists := k.topics["sweeps"]
	if !exists {
		topic = "airdrop_sweeps"
	}

	return k.sendToKafka(topic, "", event)
}

// WriteVestStarted 写入锁仓启动事件
func (k *KafkaOutput) WriteVestStarted(event *models.VestStartedEvent) error {
	if event == nil {
		return nil
	}

	topic, exists := k.topics["vest_started"]
	if !exists {
		topic = "airdrop_vest_started"
	}

	return k.sendToKafka(topic, event.Beneficiary, event)
}

// Close 关闭Kafka连接
func (k *KafkaOutput) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
