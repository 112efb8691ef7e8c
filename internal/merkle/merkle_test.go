package merkle

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"airdrop/pkg/models"
)

func TestLeafHash_Deterministic(t *testing.T) {
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	amount := big.NewInt(100)

	h1 := LeafHash(account, amount)
	h2 := LeafHash(account, amount)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, common.Hash{}, h1)
}

func TestLeafHash_OrderSensitive(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")

	// 不同账户、不同金额的任意组合都应得到不同叶子
	assert.NotEqual(t, LeafHash(a, big.NewInt(100)), LeafHash(b, big.NewInt(100)))
	assert.NotEqual(t, LeafHash(a, big.NewInt(100)), LeafHash(a, big.NewInt(200)))
	assert.NotEqual(t, LeafHash(a, big.NewInt(100)), LeafHash(b, big.NewInt(200)))
}

func TestLeafHash_ZeroAmount(t *testing.T) {
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")

	// 零额度与nil额度编码一致（均为32字节零值）
	assert.Equal(t, LeafHash(account, big.NewInt(0)), LeafHash(account, nil))
	assert.NotEqual(t, LeafHash(account, big.NewInt(0)), LeafHash(account, big.NewInt(1)))
}

func TestHashPair_Commutative(t *testing.T) {
	a := common.HexToHash("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	b := common.HexToHash("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	// 排序对哈希与参数顺序无关
	assert.Equal(t, hashPair(a, b), hashPair(b, a))
}

func TestVerifyProof_SingleLeaf(t *testing.T) {
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	leaf := LeafHash(account, big.NewInt(100))

	// 单叶子树：空证明，根即叶子
	assert.True(t, VerifyProof(leaf, nil, leaf))
	assert.False(t, VerifyProof(leaf, nil, common.Hash{}))
}

func TestTreeAndVerify(t *testing.T) {
	entries := []models.Eligibility{
		{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), Amount: big.NewInt(100)},
		{Address: common.HexToAddress("0x2222222222222222222222222222222222222222"), Amount: big.NewInt(200)},
		{Address: common.HexToAddress("0x3333333333333333333333333333333333333333"), Amount: big.NewInt(300)},
		{Address: common.HexToAddress("0x4444444444444444444444444444444444444444"), Amount: big.NewInt(400)},
		{Address: common.HexToAddress("0x5555555555555555555555555555555555555555"), Amount: big.NewInt(500)},
	}

	tree, err := NewTree(entries)
	assert.NoError(t, err)
	assert.Equal(t, 5, tree.Count())
	assert.Equal(t, big.NewInt(1500), tree.TotalAmount())

	root := tree.Root()
	assert.NotEqual(t, common.Hash{}, root)

	// 每个账户的证明都应验证通过
	for _, e := range entries {
		proof, amount, err := tree.Proof(e.Address)
		assert.NoError(t, err)
		assert.Equal(t, e.Amount, amount)
		assert.True(t, VerifyEligibility(e.Address, e.Amount, proof, root),
			"账户 %s 的证明应验证通过", e.Address.Hex())
	}
}

func TestTree_Deterministic(t *testing.T) {
	entries := []models.Eligibility{
		{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), Amount: big.NewInt(100)},
		{Address: common.HexToAddress("0x2222222222222222222222222222222222222222"), Amount: big.NewInt(200)},
	}
	reversed := []models.Eligibility{entries[1], entries[0]}

	tree1, err := NewTree(entries)
	assert.NoError(t, err)
	tree2, err := NewTree(reversed)
	assert.NoError(t, err)

	// 输入顺序不影响承诺
	assert.Equal(t, tree1.Root(), tree2.Root())
}

func TestVerify_TamperedPair(t *testing.T) {
	entries := []models.Eligibility{
		{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), Amount: big.NewInt(100)},
		{Address: common.HexToAddress("0x2222222222222222222222222222222222222222"), Amount: big.NewInt(200)},
		{Address: common.HexToAddress("0x3333333333333333333333333333333333333333"), Amount: big.NewInt(300)},
	}

	tree, err := NewTree(entries)
	assert.NoError(t, err)
	root := tree.Root()

	proof, _, err := tree.Proof(entries[0].Address)
	assert.NoError(t, err)

	// 篡改金额
	assert.False(t, VerifyEligibility(entries[0].Address, big.NewInt(999), proof, root))

	// 篡改账户
	other := common.HexToAddress("0x9999999999999999999999999999999999999999")
	assert.False(t, VerifyEligibility(other, big.NewInt(100), proof, root))

	// 对不同根验证
	otherRoot := common.HexToHash("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	assert.False(t, VerifyEligibility(entries[0].Address, big.NewInt(100), proof, otherRoot))

	// 篡改证明步骤
	if len(proof) > 0 {
		tampered := make([]common.Hash, len(proof))
		copy(tampered, proof)
		tampered[0] = common.HexToHash("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
		assert.False(t, VerifyEligibility(entries[0].Address, big.NewInt(100), tampered, root))
	}
}

func TestNewTree_Invalid(t *testing.T) {
	// 空集合
	_, err := NewTree(nil)
	assert.Error(t, err)

	// 重复账户
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	_, err = NewTree([]models.Eligibility{
		{Address: addr, Amount: big.NewInt(100)},
		{Address: addr, Amount: big.NewInt(200)},
	})
	assert.Error(t, err)

	// 负额度
	_, err = NewTree([]models.Eligibility{
		{Address: addr, Amount: big.NewInt(-1)},
	})
	assert.Error(t, err)
}

func TestTree_Proof_UnknownAccount(t *testing.T) {
	tree, err := NewTree([]models.Eligibility{
		{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), Amount: big.NewInt(100)},
	})
	assert.NoError(t, err)

	_, _, err = tree.Proof(common.HexToAddress("0x2222222222222222222222222222222222222222"))
	assert.Error(t, err)
}

func TestBuildProofFile(t *testing.T) {
	entries := []models.Eligibility{
		{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), Amount: big.NewInt(100)},
		{Address: common.HexToAddress("0x2222222222222222222222222222222222222222"), Amount: big.NewInt(200)},
	}

	tree, err := NewTree(entries)
	assert.NoError(t, err)

	file := tree.BuildProofFile()
	assert.Equal(t, tree.Root().Hex(), file.Root)
	assert.Equal(t, "300", file.TotalAmount)
	assert.Equal(t, 2, file.Count)
	assert.Len(t, file.Proofs, 2)

	// 证明文件中的每个条目都应能通过验证
	for addr, entry := range file.Proofs {
		amount, ok := new(big.Int).SetString(entry.Amount, 10)
		assert.True(t, ok)

		proof := make([]common.Hash, len(entry.Proof))
		for i, p := range entry.Proof {
			proof[i] = common.HexToHash(p)
		}
		assert.True(t, VerifyEligibility(common.HexToAddress(addr), amount, proof, tree.Root()))
	}
}

// 基准测试
func BenchmarkLeafHash(b *testing.B) {
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	amount := big.NewInt(1000000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		LeafHash(account, amount)
	}
}

func BenchmarkVerifyProof(b *testing.B) {
	entries := make([]models.Eligibility, 256)
	for i := range entries {
		entries[i] = models.Eligibility{
			Address: common.BigToAddress(big.NewInt(int64(i + 1))),
			Amount:  big.NewInt(int64((i + 1) * 100)),
		}
	}

	tree, err := NewTree(entries)
	if err != nil {
		b.Fatal(err)
	}
	root := tree.Root()
	proof, amount, err := tree.Proof(entries[0].Address)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VerifyEligibility(entries[0].Address, amount, proof, root)
	}
}
