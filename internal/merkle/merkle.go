package merkle

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// LeafHash 计算资格叶子哈希
// 编码为定宽拼接：20字节账户地址 || 32字节大端金额，再做Keccak256。
// 定宽拼接保证(account, amount)与任何字段重排或类型混淆的编码哈希不同。
func LeafHash(account common.Address, amount *big.Int) common.Hash {
	buf := make([]byte, 0, common.AddressLength+32)
	buf = append(buf, account.Bytes()...)

	amountBytes := make([]byte, 32)
	if amount != nil {
		amount.FillBytes(amountBytes)
	}
	buf = append(buf, amountBytes...)

	return common.BytesToHash(crypto.Keccak256(buf))
}

// hashPair 按规范序组合两个哈希并重新哈希
// 采用排序对（小者在前），验证方无需携带左右位置信息
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return common.BytesToHash(crypto.Keccak256(a.Bytes(), b.Bytes()))
}

// VerifyProof 验证Merkle包含证明
// 从叶子出发，逐步与兄弟哈希按规范序组合重哈希，最终值等于承诺则成立
func VerifyProof(leaf common.Hash, proof []common.Hash, root common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// VerifyEligibility 验证(account, amount)对承诺的包含证明
func VerifyEligibility(account common.Address, amount *big.Int, proof []common.Hash, root common.Hash) bool {
	return VerifyProof(LeafHash(account, amount), proof, root)
}
