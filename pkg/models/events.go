package models

import (
	"math/big"
	"time"
)

// RootChangedEvent 承诺配置事件
type RootChangedEvent struct {
	Root      string    `json:"root"`
	Timestamp time.Time `json:"timestamp"`
}

// ClaimEvent 领取成功事件
type ClaimEvent struct {
	Account   string    `json:"account"`
	Amount    *big.Int  `json:"amount"`
	Fee       *big.Int  `json:"fee"`
	Timestamp time.Time `json:"timestamp"`
}

// SweepEvent 清扫事件
type SweepEvent struct {
	Destination string    `json:"destination"`
	Amount      *big.Int  `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// VestStartedEvent 锁仓启动事件
type VestStartedEvent struct {
	Lock        string    `json:"lock"`
	Beneficiary string    `json:"beneficiary"`
	Amount      *big.Int  `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
}
