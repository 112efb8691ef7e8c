package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"airdrop/internal/config"
	"airdrop/internal/merkle"
	"airdrop/internal/store"
	"airdrop/pkg/models"
)

var (
	// 树构建参数
	inputFile  string
	outputFile string

	// 验证参数
	proofFile string
	account   string
	checkAll  bool

	// 通用参数
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "airdrop",
		Short: "代币分发离线工具",
		Long:  `一次性代币分发的离线工具，负责构建资格承诺、生成与验证领取证明、查看分发状态`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "configs/config.yaml", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "详细输出")

	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "从资格CSV构建Merkle树并导出证明文件",
		RunE:  buildTree,
	}
	treeCmd.Flags().StringVar(&inputFile, "input", "eligibility.csv", "资格CSV文件 (address,amount)")
	treeCmd.Flags().StringVar(&outputFile, "output", "proofs.json", "证明文件输出路径")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "验证证明文件中的领取证明",
		RunE:  verifyProofs,
	}
	verifyCmd.Flags().StringVar(&proofFile, "proofs", "proofs.json", "证明文件路径")
	verifyCmd.Flags().StringVar(&account, "account", "", "待验证的账户地址")
	verifyCmd.Flags().BoolVar(&checkAll, "all", false, "验证文件中的全部证明")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "查看分发状态",
		RunE:  showStatus,
	}

	rootCmd.AddCommand(treeCmd, verifyCmd, statusCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "执行失败: %v\n", err)
		os.Exit(1)
	}
}

// newLogger 按命令行参数构建日志器
func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// buildTree 从CSV构建树并导出证明文件
func buildTree(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	entries, err := loadEligibility(inputFile)
	if err != nil {
		return fmt.Errorf("读取资格文件失败: %w", err)
	}
	logger.Infof("已读取 %d 条资格记录", len(entries))

	tree, err := merkle.NewTree(entries)
	if err != nil {
		return fmt.Errorf("构建Merkle树失败: %w", err)
	}

	file := tree.BuildProofFile()
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化证明文件失败: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("写入证明文件失败: %w", err)
	}

	logger.Infof("承诺: %s", file.Root)
	logger.Infof("总额度: %s，共 %d 个账户", file.TotalAmount, file.Count)
	logger.Infof("证明文件已写入: %s", outputFile)
	return nil
}

// loadEligibility 读取资格CSV (address,amount)
func loadEligibility(path string) ([]models.Eligibility, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	entries := make([]models.Eligibility, 0, len(records))
	for i, record := range records {
		addr := strings.TrimSpace(record[0])
		amountStr := strings.TrimSpace(record[1])

		// 跳过表头
		if i == 0 && !common.IsHexAddress(addr) {
			continue
		}

		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("第%d行地址无效: %q", i+1, addr)
		}

		amount, ok := new(big.Int).SetString(amountStr, 10)
		if !ok || amount.Sign() < 0 {
			return nil, fmt.Errorf("第%d行额度无效: %q", i+1, amountStr)
		}

		entries = append(entries, models.Eligibility{
			Address: common.HexToAddress(addr),
			Amount:  amount,
		})
	}

	return entries, nil
}

// verifyProofs 验证证明文件
func verifyProofs(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	data, err := os.ReadFile(proofFile)
	if err != nil {
		return fmt.Errorf("读取证明文件失败: %w", err)
	}

	var file models.ProofFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("解析证明文件失败: %w", err)
	}

	root := common.HexToHash(file.Root)

	verifyOne := func(addr string, entry models.ProofEntry) error {
		amount, ok := new(big.Int).SetString(entry.Amount, 10)
		if !ok {
			return fmt.Errorf("账户 %s 的额度无效: %q", addr, entry.Amount)
		}

		proof := make([]common.Hash, len(entry.Proof))
		for i, p := range entry.Proof {
			proof[i] = common.HexToHash(p)
		}

		if !merkle.VerifyEligibility(common.HexToAddress(addr), amount, proof, root) {
			return fmt.Errorf("账户 %s 的证明验证失败", addr)
		}
		return nil
	}

	if checkAll {
		for addr, entry := range file.Proofs {
			if err := verifyOne(addr, entry); err != nil {
				return err
			}
		}
		logger.Infof("全部 %d 个证明验证通过", len(file.Proofs))
		return nil
	}

	if account == "" {
		return fmt.Errorf("需要指定 --account 或 --all")
	}
	if !common.IsHexAddress(account) {
		return fmt.Errorf("账户地址无效: %q", account)
	}

	entry, exists := file.Proofs[common.HexToAddress(account).Hex()]
	if !exists {
		return fmt.Errorf("账户 %s 不在证明文件中", account)
	}

	if err := verifyOne(common.HexToAddress(account).Hex(), entry); err != nil {
		return err
	}

	logger.Infof("账户 %s 的证明验证通过，额度 %s", account, entry.Amount)
	return nil
}

// showStatus 查看分发状态
func showStatus(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	logger.SetLevel(logrus.ErrorLevel)

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	stateStore, err := store.NewStore(cfg.Distribution.StorePath, logger)
	if err != nil {
		return fmt.Errorf("打开状态存储失败: %w", err)
	}
	defer stateStore.Close()

	fmt.Println("分发状态")
	fmt.Println(strings.Repeat("=", 50))
	for key, value := range stateStore.GetStats() {
		fmt.Printf("%-20s: %v\n", key, value)
	}

	return nil
}
