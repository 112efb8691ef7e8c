package merkle

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"airdrop/pkg/models"
)

// Tree 由资格集合构建的Merkle树
// 叶子按哈希值排序后逐层构建，层内奇数个节点时末尾节点直接晋级
type Tree struct {
	levels  [][]common.Hash
	entries map[common.Address]*models.Eligibility
	leafIdx map[common.Hash]int
}

// NewTree 从资格集合构建Merkle树
func NewTree(entries []models.Eligibility) (*Tree, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("资格集合为空")
	}

	t := &Tree{
		entries: make(map[common.Address]*models.Eligibility, len(entries)),
		leafIdx: make(map[common.Hash]int, len(entries)),
	}

	leaves := make([]common.Hash, 0, len(entries))
	for i := range entries {
		e := entries[i]
		if e.Amount == nil || e.Amount.Sign() < 0 {
			return nil, fmt.Errorf("账户 %s 的额度无效", e.Address.Hex())
		}
		if _, exists := t.entries[e.Address]; exists {
			return nil, fmt.Errorf("账户 %s 在资格集合中重复", e.Address.Hex())
		}
		t.entries[e.Address] = &e
		leaves = append(leaves, LeafHash(e.Address, e.Amount))
	}

	// 叶子层排序，保证同一集合构建出的承诺确定一致
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i].Bytes(), leaves[j].Bytes()) < 0
	})
	for i, leaf := range leaves {
		t.leafIdx[leaf] = i
	}

	t.levels = append(t.levels, leaves)
	for len(t.levels[len(t.levels)-1]) > 1 {
		current := t.levels[len(t.levels)-1]
		next := make([]common.Hash, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			if i+1 < len(current) {
				next = append(next, hashPair(current[i], current[i+1]))
			} else {
				// 末尾孤节点直接晋级
				next = append(next, current[i])
			}
		}
		t.levels = append(t.levels, next)
	}

	return t, nil
}

// Root 返回树根承诺
func (t *Tree) Root() common.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Proof 生成指定账户的包含证明
func (t *Tree) Proof(account common.Address) ([]common.Hash, *big.Int, error) {
	entry, exists := t.entries[account]
	if !exists {
		return nil, nil, fmt.Errorf("账户 %s 不在资格集合中", account.Hex())
	}

	leaf := LeafHash(entry.Address, entry.Amount)
	idx := t.leafIdx[leaf]

	proof := make([]common.Hash, 0, len(t.levels))
	for level := 0; level < len(t.levels)-1; level++ {
		nodes := t.levels[level]
		var siblingIdx int
		if idx%2 == 0 {
			siblingIdx = idx + 1
		} else {
			siblingIdx = idx - 1
		}
		if siblingIdx < len(nodes) {
			proof = append(proof, nodes[siblingIdx])
		}
		idx /= 2
	}

	return proof, new(big.Int).Set(entry.Amount), nil
}

// Count 返回资格条目数
func (t *Tree) Count() int {
	return len(t.entries)
}

// TotalAmount 返回资格集合的总额度
func (t *Tree) TotalAmount() *big.Int {
	total := new(big.Int)
	for _, e := range t.entries {
		total.Add(total, e.Amount)
	}
	return total
}

// BuildProofFile 构建离线证明文件
func (t *Tree) BuildProofFile() *models.ProofFile {
	file := &models.ProofFile{
		Root:        t.Root().Hex(),
		TotalAmount: t.TotalAmount().String(),
		Count:       t.Count(),
		Proofs:      make(map[string]models.ProofEntry, len(t.entries)),
	}

	for addr, entry := range t.entries {
		proof, _, err := t.Proof(addr)
		if err != nil {
			continue
		}
		hexProof := make([]string, len(proof))
		for i, h := range proof {
			hexProof[i] = h.Hex()
		}
		file.Proofs[addr.Hex()] = models.ProofEntry{
			Amount: entry.Amount.String(),
			Proof:  hexProof,
		}
	}

	return file
}
