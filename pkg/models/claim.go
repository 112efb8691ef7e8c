package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ClaimRequest 领取请求
type ClaimRequest struct {
	Account string   `json:"account"`           // 领取账户地址
	Amount  string   `json:"amount"`            // 领取额度（十进制字符串）
	Proof   []string `json:"proof"`             // Merkle证明（32字节哈希序列）
	Payment string   `json:"payment,omitempty"` // 附加服务费（十进制字符串，须与固定服务费完全一致）
}

// ClaimReceipt 领取回执
type ClaimReceipt struct {
	Account   string    `json:"account"`
	Amount    *big.Int  `json:"amount"`
	Fee       *big.Int  `json:"fee"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// ClaimRecord 领取记录（持久化形态）
type ClaimRecord struct {
	Account   string    `json:"account"`
	Amount    string    `json:"amount"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// ParsedClaim 解析后的领取请求
type ParsedClaim struct {
	Account common.Address
	Amount  *big.Int
	Proof   []common.Hash
	Payment *big.Int
}

// Parse 解析领取请求中的地址、金额与证明
func (r *ClaimRequest) Parse() (*ParsedClaim, bool) {
	if !common.IsHexAddress(r.Account) {
		return nil, false
	}

	amount, ok := parseAmount(r.Amount)
	if !ok {
		return nil, false
	}

	payment := big.NewInt(0)
	if r.Payment != "" {
		payment, ok = parseAmount(r.Payment)
		if !ok {
			return nil, false
		}
	}

	proof := make([]common.Hash, 0, len(r.Proof))
	for _, p := range r.Proof {
		if !isHash32(p) {
			return nil, false
		}
		proof = append(proof, common.HexToHash(p))
	}

	return &ParsedClaim{
		Account: common.HexToAddress(r.Account),
		Amount:  amount,
		Proof:   proof,
		Payment: payment,
	}, true
}

// parseAmount 解析非负十进制金额，金额必须能放入256位
func parseAmount(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 256 {
		return nil, false
	}
	return v, true
}

// isHash32 检查是否为0x前缀的32字节哈希
func isHash32(s string) bool {
	if len(s) != 66 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for _, c := range s[2:] {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
