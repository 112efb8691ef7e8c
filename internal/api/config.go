package api

import (
	"net/http"

	"airdrop/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ConfigManager 配置管理器
// 数据库配置源可用时挂载到管理路由，支持在线调整非承诺类配置；
// 承诺与分发参数一经生效不受此入口影响。
type ConfigManager struct {
	dbConfig *config.DatabaseConfig
	logger   *logrus.Logger
}

// NewConfigManager 创建配置管理器
func NewConfigManager(dbConfig *config.DatabaseConfig, logger *logrus.Logger) *ConfigManager {
	return &ConfigManager{
		dbConfig: dbConfig,
		logger:   logger,
	}
}

// GetConfig 获取配置
func (cm *ConfigManager) GetConfig(c *gin.Context) {
	configType := c.Param("type")
	key := c.Query("key")

	if key == "" {
		// 获取所有配置
		configs, err := cm.dbConfig.ListConfigs(configType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "获取配置失败",
				"message": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"config_type": configType,
			"configs":     configs,
		})
		return
	}

	// 获取单个配置
	value, err := cm.dbConfig.GetConfig(configType, key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "配置不存在",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"config_type": configType,
		"key":         key,
		"value":       value,
	})
}

// UpdateConfig 更新配置
func (cm *ConfigManager) UpdateConfig(c *gin.Context) {
	configType := c.Param("type")

	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "请求参数错误",
			"message": err.Error(),
		})
		return
	}

	err := cm.dbConfig.UpdateConfig(configType, req.Key, req.Value)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "更新配置失败",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "配置更新成功",
		"config": gin.H{
			"type":  configType,
			"key":   req.Key,
			"value": req.Value,
		},
	})
}

// GetKafkaTopics 获取Kafka主题配置
func (cm *ConfigManager) GetKafkaTopics(c *gin.Context) {
	query := `SELECT id, event_type, topic_name, description, is_active FROM kafka_topics ORDER BY event_type`
	rows, err := cm.dbConfig.DB.Query(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "获取Kafka主题配置失败",
			"message": err.Error(),
		})
		return
	}
	defer rows.Close()

	var topics []gin.H
	for rows.Next() {
		var id int
		var eventType, topicName, description string
		var isActive bool

		err := rows.Scan(&id, &eventType, &topicName, &description, &isActive)
		if err != nil {
			continue
		}

		topics = append(topics, gin.H{
			"id":          id,
			"event_type":  eventType,
			"topic_name":  topicName,
			"description": description,
			"is_active":   isActive,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"topics": topics,
	})
}

// UpdateKafkaTopic 更新Kafka主题配置
func (cm *ConfigManager) UpdateKafkaTopic(c *gin.Context) {
	topicID := c.Param("id")

	var req struct {
		EventType   string `json:"event_type"`
		TopicName   string `json:"topic_name"`
		Description string `json:"description"`
		IsActive    bool   `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "请求参数错误",
			"message": err.Error(),
		})
		return
	}

	query := `UPDATE kafka_topics SET event_type = $1, topic_name = $2, description = $3, is_active = $4 WHERE id = $5`
	_, err := cm.dbConfig.DB.Exec(query, req.EventType, req.TopicName, req.Description, req.IsActive, topicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "更新Kafka主题失败",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Kafka主题更新成功",
	})
}
