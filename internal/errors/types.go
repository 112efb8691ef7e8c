package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType 错误类型
type ErrorType int

const (
	// 领取流程相关错误
	ErrorTypeRegistry ErrorType = iota
	ErrorTypeProof
	ErrorTypeClaim
	ErrorTypeFee

	// 管理操作相关错误
	ErrorTypeSweep
	ErrorTypeVest

	// 协作方相关错误
	ErrorTypeLedger
	ErrorTypeLock

	// 数据相关错误
	ErrorTypeData
	ErrorTypeSerialization
	ErrorTypeValidation

	// 系统相关错误
	ErrorTypeSystem
	ErrorTypeStorage
	ErrorTypeConfig

	// 外部服务错误
	ErrorTypeNetwork
	ErrorTypeTimeout
	ErrorTypeKafka
)

// ErrorSeverity 错误严重级别
type ErrorSeverity int

const (
	SeverityLow ErrorSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// AirdropError 自定义错误类型
type AirdropError struct {
	Type      ErrorType              `json:"type"`
	Severity  ErrorSeverity          `json:"severity"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   interface{}            `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"cause,omitempty"`
	Retryable bool                   `json:"retryable"`
	Component string                 `json:"component"`
	Account   *string                `json:"account,omitempty"`
	Amount    *string                `json:"amount,omitempty"`
}

// Error 实现error接口
func (e *AirdropError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Unwrap
func (e *AirdropError) Unwrap() error {
	return e.Cause
}

// IsRetryable 判断是否可重试
func (e *AirdropError) IsRetryable() bool {
	return e.Retryable
}

// WithContext 添加上下文信息
func (e *AirdropError) WithContext(key string, value interface{}) *AirdropError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAccount 添加账户地址
func (e *AirdropError) WithAccount(account string) *AirdropError {
	e.Account = &account
	return e
}

// WithAmount 添加金额
func (e *AirdropError) WithAmount(amount string) *AirdropError {
	e.Amount = &amount
	return e
}

// Clone 复制错误实例（给预定义错误附加上下文前先复制，避免污染共享实例）
func (e *AirdropError) Clone() *AirdropError {
	clone := *e
	clone.Timestamp = time.Now()
	if e.Context != nil {
		clone.Context = make(map[string]interface{}, len(e.Context))
		for k, v := range e.Context {
			clone.Context[k] = v
		}
	}
	return &clone
}

// Is 支持errors.Is按错误码匹配
func (e *AirdropError) Is(target error) bool {
	t, ok := target.(*AirdropError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// AsAirdropError 从错误链中提取AirdropError
func AsAirdropError(err error) (*AirdropError, bool) {
	var airdropErr *AirdropError
	if stderrors.As(err, &airdropErr) {
		return airdropErr, true
	}
	return nil, false
}

// NewAirdropError 创建新的错误
func NewAirdropError(errorType ErrorType, severity ErrorSeverity, code, message string) *AirdropError {
	return &AirdropError{
		Type:      errorType,
		Severity:  severity,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Retryable: determineRetryable(errorType, code),
	}
}

// WrapError 包装现有错误
func WrapError(err error, errorType ErrorType, severity ErrorSeverity, code, message string) *AirdropError {
	return &AirdropError{
		Type:      errorType,
		Severity:  severity,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     err,
		Retryable: determineRetryable(errorType, code),
	}
}

// determineRetryable 根据错误类型判断是否可重试
func determineRetryable(errorType ErrorType, code string) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	case ErrorTypeKafka:
		return true
	case ErrorTypeLedger:
		// 账本余额不足属于业务失败，重试无意义
		return code != "LEDGER_INSUFFICIENT_BALANCE"
	default:
		// 领取、证明、费用等业务错误重试结果不会改变
		return false
	}
}

// 预定义错误
var (
	// 承诺配置错误
	ErrAlreadyConfigured = NewAirdropError(
		ErrorTypeRegistry,
		SeverityMedium,
		"ALREADY_CONFIGURED",
		"Merkle根已配置，不可覆盖",
	)

	ErrAlreadyBootstrapped = NewAirdropError(
		ErrorTypeRegistry,
		SeverityMedium,
		"ALREADY_BOOTSTRAPPED",
		"初始份额已铸造，不可重复执行",
	)

	// 领取流程错误
	ErrInvalidProof = NewAirdropError(
		ErrorTypeProof,
		SeverityMedium,
		"INVALID_PROOF",
		"Merkle证明无效或承诺未配置",
	)

	ErrAlreadyClaimed = NewAirdropError(
		ErrorTypeClaim,
		SeverityMedium,
		"ALREADY_CLAIMED",
		"账户已完成领取",
	)

	ErrInsufficientFee = NewAirdropError(
		ErrorTypeFee,
		SeverityMedium,
		"INSUFFICIENT_FEE",
		"附加费用与服务费不符",
	)

	// 管理操作错误
	ErrPeriodNotEnded = NewAirdropError(
		ErrorTypeSweep,
		SeverityMedium,
		"PERIOD_NOT_ENDED",
		"领取期尚未结束",
	)

	ErrVestAlreadyStarted = NewAirdropError(
		ErrorTypeVest,
		SeverityMedium,
		"VEST_ALREADY_STARTED",
		"锁仓流程已启动，不可重复触发",
	)

	// 协作方错误
	ErrInsufficientBalance = NewAirdropError(
		ErrorTypeLedger,
		SeverityHigh,
		"LEDGER_INSUFFICIENT_BALANCE",
		"账本余额不足",
	)

	ErrLockFailed = NewAirdropError(
		ErrorTypeLock,
		SeverityHigh,
		"LOCK_FAILED",
		"锁仓协作方调用失败",
	)

	// 数据错误
	ErrSerializationFailed = NewAirdropError(
		ErrorTypeSerialization,
		SeverityMedium,
		"SERIALIZATION_FAILED",
		"数据序列化失败",
	)

	ErrDataValidation = NewAirdropError(
		ErrorTypeValidation,
		SeverityMedium,
		"DATA_VALIDATION_FAILED",
		"数据验证失败",
	)

	// 系统错误
	ErrStorageFailed = NewAirdropError(
		ErrorTypeStorage,
		SeverityHigh,
		"STORAGE_FAILED",
		"状态存储操作失败",
	)

	ErrConfigInvalid = NewAirdropError(
		ErrorTypeConfig,
		SeverityCritical,
		"CONFIG_INVALID",
		"配置无效",
	)

	// 外部服务错误
	ErrKafkaProduceFailed = NewAirdropError(
		ErrorTypeKafka,
		SeverityHigh,
		"KAFKA_PRODUCE_FAILED",
		"Kafka消息发送失败",
	)
)

// 错误类型字符串映射
var errorTypeNames = map[ErrorType]string{
	ErrorTypeRegistry:      "Registry",
	ErrorTypeProof:         "Proof",
	ErrorTypeClaim:         "Claim",
	ErrorTypeFee:           "Fee",
	ErrorTypeSweep:         "Sweep",
	ErrorTypeVest:          "Vest",
	ErrorTypeLedger:        "Ledger",
	ErrorTypeLock:          "Lock",
	ErrorTypeData:          "Data",
	ErrorTypeSerialization: "Serialization",
	ErrorTypeValidation:    "Validation",
	ErrorTypeSystem:        "System",
	ErrorTypeStorage:       "Storage",
	ErrorTypeConfig:        "Config",
	ErrorTypeNetwork:       "Network",
	ErrorTypeTimeout:       "Timeout",
	ErrorTypeKafka:         "Kafka",
}

// String 返回错误类型的字符串表示
func (et ErrorType) String() string {
	if name, exists := errorTypeNames[et]; exists {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", et)
}

// 严重级别字符串映射
var severityNames = map[ErrorSeverity]string{
	SeverityLow:      "Low",
	SeverityMedium:   "Medium",
	SeverityHigh:     "High",
	SeverityCritical: "Critical",
}

// String 返回严重级别的字符串表示
func (es ErrorSeverity) String() string {
	if name, exists := severityNames[es]; exists {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", es)
}

// ErrorStats 错误统计
type ErrorStats struct {
	TotalErrors       int                   `json:"total_errors"`
	ErrorsByType      map[ErrorType]int     `json:"errors_by_type"`
	ErrorsBySeverity  map[ErrorSeverity]int `json:"errors_by_severity"`
	ErrorsByComponent map[string]int        `json:"errors_by_component"`
	RecentErrors      []*AirdropError       `json:"recent_errors"`
	LastError         *AirdropError         `json:"last_error"`
	LastErrorTime     time.Time             `json:"last_error_time"`
}

// NewErrorStats 创建错误统计
func NewErrorStats() *ErrorStats {
	return &ErrorStats{
		ErrorsByType:      make(map[ErrorType]int),
		ErrorsBySeverity:  make(map[ErrorSeverity]int),
		ErrorsByComponent: make(map[string]int),
		RecentErrors:      make([]*AirdropError, 0),
	}
}

// RecordError 记录错误
func (es *ErrorStats) RecordError(err *AirdropError) {
	es.TotalErrors++
	es.ErrorsByType[err.Type]++
	es.ErrorsBySeverity[err.Severity]++
	if err.Component != "" {
		es.ErrorsByComponent[err.Component]++
	}

	es.LastError = err
	es.LastErrorTime = err.Timestamp

	// 保留最近100个错误
	es.RecentErrors = append(es.RecentErrors, err)
	if len(es.RecentErrors) > 100 {
		es.RecentErrors = es.RecentErrors[1:]
	}
}

// GetErrorRate 获取错误率（错误/小时）
func (es *ErrorStats) GetErrorRate(duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-duration)
	recentCount := 0

	for _, err := range es.RecentErrors {
		if err.Timestamp.After(cutoff) {
			recentCount++
		}
	}

	hours := duration.Hours()
	if hours == 0 {
		return float64(recentCount)
	}

	return float64(recentCount) / hours
}
