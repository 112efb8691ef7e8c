package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	apperrors "airdrop/internal/errors"
	"airdrop/internal/retry"
)

// ERC20方法选择器（Keccak256前4字节）
var (
	selectorTransfer  = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]
	selectorApprove   = crypto.Keccak256([]byte("approve(address,uint256)"))[:4]
	selectorBalanceOf = crypto.Keccak256([]byte("balanceOf(address)"))[:4]
)

// 代币转账与授权的固定gas上限
const erc20GasLimit = 100000

// EthLedger 链上代币账本适配器
// 通过节点RPC调用标准代币合约，签名账户即分发池账户；
// 恰好一次与余额不足回滚语义由代币合约自身保证。
type EthLedger struct {
	client  *ethclient.Client
	logger  *logrus.Logger
	retrier *retry.Retrier

	token   common.Address
	chainID *big.Int
	key     *ecdsa.PrivateKey
	self    common.Address
}

// NewEthLedger 创建链上账本适配器
func NewEthLedger(rpcURL string, token common.Address, privateKeyHex string, chainID int64, logger *logrus.Logger) (*EthLedger, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接节点失败: %w", err)
	}

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("解析签名私钥失败: %w", err)
	}

	ledger := &EthLedger{
		client:  client,
		logger:  logger,
		retrier: retry.NewRetrier(retry.LedgerRetryConfig, logger),
		token:   token,
		chainID: big.NewInt(chainID),
		key:     key,
		self:    crypto.PubkeyToAddress(key.PublicKey),
	}

	logger.Infof("链上账本适配器已初始化，代币合约: %s，签名账户: %s", token.Hex(), ledger.self.Hex())
	return ledger, nil
}

// Transfer 从from向to转移amount
// 签名账户即分发池账户，from必须与其一致
func (l *EthLedger) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if from != l.self {
		return apperrors.NewAirdropError(apperrors.ErrorTypeLedger, apperrors.SeverityHigh,
			"LEDGER_UNAUTHORIZED_FROM", "链上账本只能从签名账户发起转账").WithAccount(from.Hex())
	}

	data := packCall(selectorTransfer, to, amount)
	return l.sendTransaction(ctx, "erc20_transfer", data)
}

// Mint 链上适配器不支持铸造，供给在代币合约部署时已固定
func (l *EthLedger) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	return apperrors.NewAirdropError(apperrors.ErrorTypeLedger, apperrors.SeverityHigh,
		"LEDGER_MINT_UNSUPPORTED", "链上账本不支持铸造")
}

// Approve 授权spender代表签名账户转移至多amount
func (l *EthLedger) Approve(ctx context.Context, owner, spender common.Address, amount *big.Int) error {
	if owner != l.self {
		return apperrors.NewAirdropError(apperrors.ErrorTypeLedger, apperrors.SeverityHigh,
			"LEDGER_UNAUTHORIZED_FROM", "链上账本只能以签名账户身份授权").WithAccount(owner.Hex())
	}

	data := packCall(selectorApprove, spender, amount)
	return l.sendTransaction(ctx, "erc20_approve", data)
}

// BalanceOf 查询account的余额
func (l *EthLedger) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	data := make([]byte, 0, 4+32)
	data = append(data, selectorBalanceOf...)
	data = append(data, common.LeftPadBytes(account.Bytes(), 32)...)

	var result []byte
	err := l.retrier.Execute(ctx, "erc20_balance_of", func() error {
		var callErr error
		result, callErr = l.client.CallContract(ctx, ethereum.CallMsg{
			To:   &l.token,
			Data: data,
		}, nil)
		return callErr
	})
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeLedger,
			apperrors.SeverityHigh, "LEDGER_RPC_FAILED", "余额查询失败")
	}

	return new(big.Int).SetBytes(result), nil
}

// sendTransaction 构造、签名并发送对代币合约的调用
func (l *EthLedger) sendTransaction(ctx context.Context, operation string, data []byte) error {
	err := l.retrier.Execute(ctx, operation, func() error {
		nonce, err := l.client.PendingNonceAt(ctx, l.self)
		if err != nil {
			return fmt.Errorf("查询nonce失败: %w", err)
		}

		gasPrice, err := l.client.SuggestGasPrice(ctx)
		if err != nil {
			return fmt.Errorf("查询gas价格失败: %w", err)
		}

		tx := types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       &l.token,
			Value:    new(big.Int),
			Gas:      erc20GasLimit,
			GasPrice: gasPrice,
			Data:     data,
		})

		signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(l.chainID), l.key)
		if err != nil {
			return fmt.Errorf("签名交易失败: %w", err)
		}

		if err := l.client.SendTransaction(ctx, signedTx); err != nil {
			return fmt.Errorf("发送交易失败: %w", err)
		}

		l.logger.Infof("已提交%s交易: %s", operation, signedTx.Hash().Hex())
		return nil
	})
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeLedger,
			apperrors.SeverityHigh, "LEDGER_RPC_FAILED", "账本调用失败")
	}
	return nil
}

// packCall 打包 selector || 32字节地址 || 32字节金额
func packCall(selector []byte, addr common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+64)
	data = append(data, selector...)
	data = append(data, common.LeftPadBytes(addr.Bytes(), 32)...)

	amountBytes := make([]byte, 32)
	if amount != nil {
		amount.FillBytes(amountBytes)
	}
	data = append(data, amountBytes...)
	return data
}

// Address 返回签名账户地址（即链上分发池账户）
func (l *EthLedger) Address() common.Address {
	return l.self
}

// Close 关闭节点连接
func (l *EthLedger) Close() {
	if l.client != nil {
		l.client.Close()
	}
}
