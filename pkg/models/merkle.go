package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Eligibility 资格条目：一个账户与其固定额度
type Eligibility struct {
	Address common.Address `json:"address"`
	Amount  *big.Int       `json:"amount"`
}

// ProofEntry 单账户的证明条目
type ProofEntry struct {
	Amount string   `json:"amount"`
	Proof  []string `json:"proof"`
}

// ProofFile 离线工具产出的证明文件
type ProofFile struct {
	Root        string                `json:"root"`
	TotalAmount string                `json:"total_amount"`
	Count       int                   `json:"count"`
	Proofs      map[string]ProofEntry `json:"proofs"` // 账户地址（小写hex）-> 证明
}
