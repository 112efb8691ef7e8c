package validation

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"airdrop/internal/errors"
	"airdrop/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Validator 请求验证器
type Validator struct {
	logger       *logrus.Logger
	strictMode   bool // 严格模式
	errorHandler *errors.ErrorHandler
	rules        map[string]ValidationRule
}

// ValidationRule 验证规则接口
type ValidationRule interface {
	Validate(data interface{}) error
	Name() string
	Description() string
}

// ValidationResult 验证结果
type ValidationResult struct {
	Valid    bool                   `json:"valid"`
	Errors   []*errors.AirdropError `json:"errors,omitempty"`
	Warnings []string               `json:"warnings,omitempty"`
	DataType string                 `json:"data_type"`
}

// NewValidator 创建请求验证器
func NewValidator(logger *logrus.Logger, strictMode bool) *Validator {
	v := &Validator{
		logger:       logger,
		strictMode:   strictMode,
		errorHandler: errors.NewErrorHandler(logger),
		rules:        make(map[string]ValidationRule),
	}

	// 注册默认验证规则
	v.registerDefaultRules()

	return v
}

// registerDefaultRules 注册默认验证规则
func (v *Validator) registerDefaultRules() {
	v.AddRule(NewClaimValidationRule())
	v.AddRule(NewAddressValidationRule())
	v.AddRule(NewHashValidationRule())
}

// AddRule 添加验证规则
func (v *Validator) AddRule(rule ValidationRule) {
	v.rules[rule.Name()] = rule
	v.logger.Debugf("已注册验证规则: %s", rule.Name())
}

// ValidateClaimRequest 验证领取请求
func (v *Validator) ValidateClaimRequest(req *models.ClaimRequest) *ValidationResult {
	if req == nil {
		return &ValidationResult{
			Valid:    false,
			Errors:   []*errors.AirdropError{errors.ErrDataValidation.Clone().WithContext("reason", "请求为空")},
			DataType: "claim_request",
		}
	}

	result := &ValidationResult{
		Valid:    true,
		DataType: "claim_request",
		Errors:   make([]*errors.AirdropError, 0),
		Warnings: make([]string, 0),
	}

	// 验证账户地址
	if !isValidAddress(req.Account) || req.Account == "" {
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewAirdropError(errors.ErrorTypeValidation, errors.SeverityHigh,
				"INVALID_ACCOUNT", "账户地址格式无效").WithAccount(req.Account))
	}

	// 验证金额
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	switch {
	case req.Amount == "" || !ok:
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewAirdropError(errors.ErrorTypeValidation, errors.SeverityHigh,
				"INVALID_AMOUNT", "额度必须是十进制整数").WithAccount(req.Account))
	case amount.Sign() < 0:
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewAirdropError(errors.ErrorTypeValidation, errors.SeverityHigh,
				"NEGATIVE_AMOUNT", "额度不能为负数").WithAccount(req.Account))
	case amount.BitLen() > 256:
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewAirdropError(errors.ErrorTypeValidation, errors.SeverityHigh,
				"AMOUNT_OVERFLOW", "额度超出256位范围").WithAccount(req.Account))
	case amount.Sign() == 0:
		result.Warnings = append(result.Warnings, "额度为零，领取不会产生份额转账")
	}

	// 验证附加服务费
	if req.Payment != "" {
		payment, ok := new(big.Int).SetString(req.Payment, 10)
		if !ok || payment.Sign() < 0 {
			result.Valid = false
			result.Errors = append(result.Errors,
				errors.NewAirdropError(errors.ErrorTypeValidation, errors.SeverityHigh,
					"INVALID_PAYMENT", "服务费必须是非负十进制整数").WithAccount(req.Account))
		}
	}

	// 验证证明
	if len(req.Proof) == 0 {
		result.Warnings = append(result.Warnings, "证明为空，仅单叶子集合可能通过验证")
	}
	for i, p := range req.Proof {
		if !isValidHash(p) {
			result.Valid = false
			result.Errors = append(result.Errors,
				errors.NewAirdropError(errors.ErrorTypeValidation, errors.SeverityMedium,
					"INVALID_PROOF_ELEMENT", fmt.Sprintf("证明第%d项格式无效", i)).WithAccount(req.Account))
		}
	}

	// 执行扩展验证规则
	if rule, exists := v.rules["claim"]; exists && result.Valid {
		if err := rule.Validate(req); err != nil {
			result.Valid = false
			if airdropErr, ok := err.(*errors.AirdropError); ok {
				result.Errors = append(result.Errors, airdropErr)
			} else {
				result.Errors = append(result.Errors, errors.WrapError(err,
					errors.ErrorTypeValidation, errors.SeverityMedium,
					"CLAIM_RULE_VALIDATION_FAILED", "领取请求规则验证失败"))
			}
		}
	}

	return result
}

// ValidateRoot 验证承诺格式
func (v *Validator) ValidateRoot(root string) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		DataType: "root",
		Errors:   make([]*errors.AirdropError, 0),
	}

	if !isValidHash(root) {
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewAirdropError(errors.ErrorTypeValidation, errors.SeverityHigh,
				"INVALID_ROOT_FORMAT", "承诺格式无效"))
		return result
	}

	if common.HexToHash(root) == (common.Hash{}) {
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewAirdropError(errors.ErrorTypeValidation, errors.SeverityHigh,
				"ZERO_ROOT", "承诺不能为零值"))
	}

	return result
}

// isValidHash 验证哈希格式
func isValidHash(hash string) bool {
	if len(hash) != 66 { // 0x + 64 hex chars
		return false
	}
	if !strings.HasPrefix(hash, "0x") {
		return false
	}

	hashRegex := regexp.MustCompile("^0x[0-9a-fA-F]{64}$")
	return hashRegex.MatchString(hash)
}

// isValidAddress 验证地址格式
func isValidAddress(addr string) bool {
	if addr == "" {
		return false
	}

	if !strings.HasPrefix(addr, "0x") {
		return false
	}

	return common.IsHexAddress(addr)
}

// ClaimValidationRule 领取请求验证规则
type ClaimValidationRule struct{}

func NewClaimValidationRule() *ClaimValidationRule {
	return &ClaimValidationRule{}
}

func (r *ClaimValidationRule) Name() string {
	return "claim"
}

func (r *ClaimValidationRule) Description() string {
	return "领取请求验证规则"
}

func (r *ClaimValidationRule) Validate(data interface{}) error {
	req, ok := data.(*models.ClaimRequest)
	if !ok {
		return fmt.Errorf("数据类型不是领取请求")
	}

	// 证明深度合理性，2^64个叶子已远超任何资格集合
	if len(req.Proof) > 64 {
		return errors.NewAirdropError(errors.ErrorTypeValidation, errors.SeverityMedium,
			"PROOF_TOO_DEEP", "证明深度异常")
	}

	return nil
}

// AddressValidationRule 地址验证规则
type AddressValidationRule struct{}

func NewAddressValidationRule() *AddressValidationRule {
	return &AddressValidationRule{}
}

func (r *AddressValidationRule) Name() string {
	return "address"
}

func (r *AddressValidationRule) Description() string {
	return "以太坊地址验证规则"
}

func (r *AddressValidationRule) Validate(data interface{}) error {
	addr, ok := data.(string)
	if !ok {
		return fmt.Errorf("数据类型不是字符串")
	}

	if !isValidAddress(addr) {
		return errors.NewAirdropError(errors.ErrorTypeValidation, errors.SeverityHigh,
			"INVALID_ADDRESS_FORMAT", "地址格式无效")
	}

	return nil
}

// HashValidationRule 哈希验证规则
type HashValidationRule struct{}

func NewHashValidationRule() *HashValidationRule {
	return &HashValidationRule{}
}

func (r *HashValidationRule) Name() string {
	return "hash"
}

func (r *HashValidationRule) Description() string {
	return "哈希值验证规则"
}

func (r *HashValidationRule) Validate(data interface{}) error {
	hash, ok := data.(string)
	if !ok {
		return fmt.Errorf("数据类型不是字符串")
	}

	if !isValidHash(hash) {
		return errors.NewAirdropError(errors.ErrorTypeValidation, errors.SeverityHigh,
			"INVALID_HASH_FORMAT", "哈希格式无效")
	}

	return nil
}

// GetValidationStats 获取验证统计信息
func (v *Validator) GetValidationStats() map[string]interface{} {
	return map[string]interface{}{
		"strict_mode":      v.strictMode,
		"registered_rules": len(v.rules),
		"error_stats":      v.errorHandler.GetStats(),
	}
}

// SetStrictMode 设置严格模式
func (v *Validator) SetStrictMode(strict bool) {
	v.strictMode = strict
	v.logger.Infof("验证器严格模式设置为: %t", strict)
}
