package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	apperrors "airdrop/internal/errors"
	"airdrop/pkg/models"
)

const (
	// 默认数据库路径
	DefaultDBPath = "./data/airdrop.db"

	// 存储桶名称
	RegistryBucket = "registry"
	ClaimsBucket   = "claims"
	VestBucket     = "vest"
	StatsBucket    = "stats"

	// 注册表键
	MerkleRootKey    = "merkle_root"
	RootSetTimeKey   = "root_set_time"
	BootstrapDoneKey = "bootstrap_done"

	// 锁仓键
	VestStartedKey = "vest_started"

	// 统计键
	ClaimedCountKey = "claimed_count"
	ClaimedTotalKey = "claimed_total"
)

// stateCache 内存缓存，避免读路径每次落盘
type stateCache struct {
	root          common.Hash
	rootSetTime   time.Time
	bootstrapDone bool
	vestStarted   bool
	claimedCount  uint64
	claimedTotal  *big.Int
}

// Store 分发状态存储
// 持有一次性承诺、只增的领取集合与锁仓标志；三者均为单调状态，
// 不提供任何裸置零入口。
type Store struct {
	db     *bolt.DB
	logger *logrus.Logger
	dbPath string
	mu     sync.RWMutex

	cache *stateCache
}

// NewStore 创建分发状态存储
func NewStore(dbPath string, logger *logrus.Logger) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}

	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	// 打开BoltDB数据库
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("打开状态数据库失败: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		dbPath: dbPath,
		cache:  &stateCache{claimedTotal: new(big.Int)},
	}

	// 初始化数据库结构
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	// 加载缓存
	if err := s.loadCache(); err != nil {
		db.Close()
		return nil, fmt.Errorf("加载状态缓存失败: %w", err)
	}

	logger.Infof("状态存储已初始化，数据库路径: %s", dbPath)
	return s, nil
}

// initDB 初始化数据库结构
func (s *Store) initDB() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{RegistryBucket, ClaimsBucket, VestBucket, StatsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("创建存储桶 %s 失败: %w", bucket, err)
			}
		}
		return nil
	})
}

// loadCache 加载缓存
func (s *Store) loadCache() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.View(func(tx *bolt.Tx) error {
		// 加载承诺
		registry := tx.Bucket([]byte(RegistryBucket))
		if data := registry.Get([]byte(MerkleRootKey)); data != nil {
			s.cache.root = common.BytesToHash(data)
		}
		if data := registry.Get([]byte(RootSetTimeKey)); data != nil {
			var setTime time.Time
			if err := json.Unmarshal(data, &setTime); err == nil {
				s.cache.rootSetTime = setTime
			}
		}
		if data := registry.Get([]byte(BootstrapDoneKey)); data != nil && len(data) == 1 && data[0] == 1 {
			s.cache.bootstrapDone = true
		}

		// 加载锁仓标志
		vest := tx.Bucket([]byte(VestBucket))
		if data := vest.Get([]byte(VestStartedKey)); data != nil && len(data) == 1 && data[0] == 1 {
			s.cache.vestStarted = true
		}

		// 加载统计
		stats := tx.Bucket([]byte(StatsBucket))
		if data := stats.Get([]byte(ClaimedCountKey)); data != nil {
			s.cache.claimedCount = binary.BigEndian.Uint64(data)
		}
		if data := stats.Get([]byte(ClaimedTotalKey)); data != nil {
			s.cache.claimedTotal = new(big.Int).SetBytes(data)
		}

		return nil
	})
}

// Root 获取当前承诺，零值表示尚未配置
func (s *Store) Root() common.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.root
}

// RootConfigured 判断承诺是否已配置
func (s *Store) RootConfigured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.root != (common.Hash{})
}

// SetRoot 配置承诺，仅允许一次
// 承诺一经写入不可覆盖，重复调用返回ErrAlreadyConfigured
func (s *Store) SetRoot(root common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.root != (common.Hash{}) {
		return apperrors.ErrAlreadyConfigured
	}

	now := time.Now()
	err := s.db.Update(func(tx *bolt.Tx) error {
		registry := tx.Bucket([]byte(RegistryBucket))

		// 数据库层再查一次，防止缓存失效后覆盖
		if existing := registry.Get([]byte(MerkleRootKey)); existing != nil {
			return apperrors.ErrAlreadyConfigured
		}

		if err := registry.Put([]byte(MerkleRootKey), root.Bytes()); err != nil {
			return fmt.Errorf("保存承诺失败: %w", err)
		}
		if data, err := json.Marshal(now); err == nil {
			registry.Put([]byte(RootSetTimeKey), data)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.root = root
	s.cache.rootSetTime = now
	s.logger.Infof("承诺已配置: %s", root.Hex())
	return nil
}

// BootstrapDone 查询初始份额是否已铸造
func (s *Store) BootstrapDone() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.bootstrapDone
}

// SetBootstrapDone 标记初始份额已铸造，仅允许一次
func (s *Store) SetBootstrapDone() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.bootstrapDone {
		return apperrors.ErrAlreadyBootstrapped
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		registry := tx.Bucket([]byte(RegistryBucket))
		if existing := registry.Get([]byte(BootstrapDoneKey)); existing != nil && len(existing) == 1 && existing[0] == 1 {
			return apperrors.ErrAlreadyBootstrapped
		}
		return registry.Put([]byte(BootstrapDoneKey), []byte{1})
	})
	if err != nil {
		return err
	}

	s.cache.bootstrapDone = true
	return nil
}

// RevertBootstrap 撤销铸造标记
// 仅供分发控制器在铸造中途失败回滚时使用
func (s *Store) RevertBootstrap() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		registry := tx.Bucket([]byte(RegistryBucket))
		return registry.Delete([]byte(BootstrapDoneKey))
	})
	if err != nil {
		return err
	}

	s.cache.bootstrapDone = false
	return nil
}

// HasClaimed 查询账户是否已领取
func (s *Store) HasClaimed(account common.Address) (bool, error) {
	claimed := false
	err := s.db.View(func(tx *bolt.Tx) error {
		claims := tx.Bucket([]byte(ClaimsBucket))
		claimed = claims.Get(account.Bytes()) != nil
		return nil
	})
	return claimed, err
}

// MarkClaimed 标记账户已领取并累计统计
// 标记只增不减；已标记账户重复标记返回ErrAlreadyClaimed
func (s *Store) MarkClaimed(account common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := models.ClaimRecord{
		Account:   account.Hex(),
		Amount:    amount.String(),
		ClaimedAt: time.Now(),
	}
	data, err := json.Marshal(&record)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeSerialization,
			apperrors.SeverityMedium, "SERIALIZATION_FAILED", "领取记录序列化失败")
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		claims := tx.Bucket([]byte(ClaimsBucket))
		if claims.Get(account.Bytes()) != nil {
			return apperrors.ErrAlreadyClaimed
		}
		if err := claims.Put(account.Bytes(), data); err != nil {
			return fmt.Errorf("保存领取记录失败: %w", err)
		}

		stats := tx.Bucket([]byte(StatsBucket))
		countData := make([]byte, 8)
		binary.BigEndian.PutUint64(countData, s.cache.claimedCount+1)
		if err := stats.Put([]byte(ClaimedCountKey), countData); err != nil {
			return fmt.Errorf("保存领取计数失败: %w", err)
		}
		newTotal := new(big.Int).Add(s.cache.claimedTotal, amount)
		if err := stats.Put([]byte(ClaimedTotalKey), newTotal.Bytes()); err != nil {
			return fmt.Errorf("保存领取总额失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.claimedCount++
	s.cache.claimedTotal = new(big.Int).Add(s.cache.claimedTotal, amount)
	return nil
}

// RevertClaim 撤销一次未完成的领取标记
// 仅供领取处理器在外部协作方调用失败、整个操作回滚时使用，
// 对应链上执行环境中整笔交易回滚的语义；成功的领取永不撤销。
func (s *Store) RevertClaim(account common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		claims := tx.Bucket([]byte(ClaimsBucket))
		if claims.Get(account.Bytes()) == nil {
			return nil
		}
		if err := claims.Delete(account.Bytes()); err != nil {
			return fmt.Errorf("撤销领取记录失败: %w", err)
		}

		stats := tx.Bucket([]byte(StatsBucket))
		countData := make([]byte, 8)
		binary.BigEndian.PutUint64(countData, s.cache.claimedCount-1)
		if err := stats.Put([]byte(ClaimedCountKey), countData); err != nil {
			return fmt.Errorf("回写领取计数失败: %w", err)
		}
		newTotal := new(big.Int).Sub(s.cache.claimedTotal, amount)
		if err := stats.Put([]byte(ClaimedTotalKey), newTotal.Bytes()); err != nil {
			return fmt.Errorf("回写领取总额失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.cache.claimedCount > 0 {
		s.cache.claimedCount--
	}
	s.cache.claimedTotal = new(big.Int).Sub(s.cache.claimedTotal, amount)
	return nil
}

// GetClaimRecord 读取账户的领取记录
func (s *Store) GetClaimRecord(account common.Address) (*models.ClaimRecord, error) {
	var record *models.ClaimRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		claims := tx.Bucket([]byte(ClaimsBucket))
		data := claims.Get(account.Bytes())
		if data == nil {
			return nil
		}
		var r models.ClaimRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("解析领取记录失败: %w", err)
		}
		record = &r
		return nil
	})
	return record, err
}

// VestStarted 查询锁仓流程是否已启动
func (s *Store) VestStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.vestStarted
}

// SetVestStarted 标记锁仓流程已启动，仅允许一次
func (s *Store) SetVestStarted() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.vestStarted {
		return apperrors.ErrVestAlreadyStarted
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		vest := tx.Bucket([]byte(VestBucket))
		if existing := vest.Get([]byte(VestStartedKey)); existing != nil && len(existing) == 1 && existing[0] == 1 {
			return apperrors.ErrVestAlreadyStarted
		}
		return vest.Put([]byte(VestStartedKey), []byte{1})
	})
	if err != nil {
		return err
	}

	s.cache.vestStarted = true
	return nil
}

// RevertVestStarted 撤销锁仓启动标记
// 仅供锁仓控制器在协作方调用失败回滚时使用
func (s *Store) RevertVestStarted() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		vest := tx.Bucket([]byte(VestBucket))
		return vest.Delete([]byte(VestStartedKey))
	})
	if err != nil {
		return err
	}

	s.cache.vestStarted = false
	return nil
}

// ClaimedCount 获取已领取账户数
func (s *Store) ClaimedCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.claimedCount
}

// ClaimedTotal 获取已领取总额
func (s *Store) ClaimedTotal() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.cache.claimedTotal)
}

// GetDBPath 获取数据库路径
func (s *Store) GetDBPath() string {
	return s.dbPath
}

// GetStats 获取统计信息
func (s *Store) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"root_configured": s.cache.root != (common.Hash{}),
		"bootstrap_done":  s.cache.bootstrapDone,
		"claimed_count":   s.cache.claimedCount,
		"claimed_total":   s.cache.claimedTotal.String(),
		"vest_started":    s.cache.vestStarted,
	}

	if s.cache.root != (common.Hash{}) {
		stats["merkle_root"] = s.cache.root.Hex()
		stats["root_set_time"] = s.cache.rootSetTime.Format(time.RFC3339)
	}

	return stats
}

// Close 关闭状态存储
func (s *Store) Close() error {
	if s.db != nil {
		s.logger.Info("关闭状态存储")
		return s.db.Close()
	}
	return nil
}
