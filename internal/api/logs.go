package api

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogEntry 日志条目
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogManager 内存日志管理器
// 环形缓冲保存最近的日志条目，供运维接口查询
type LogManager struct {
	entries []LogEntry
	next    int
	full    bool
	mu      sync.RWMutex
}

// NewLogManager 创建日志管理器
func NewLogManager(maxLogs int) *LogManager {
	if maxLogs <= 0 {
		maxLogs = 1000
	}
	return &LogManager{
		entries: make([]LogEntry, maxLogs),
	}
}

// AddLog 添加日志
func (lm *LogManager) AddLog(entry *logrus.Entry) {
	// 复制字段，钩子触发后entry可能被logrus复用
	var fields map[string]interface{}
	if len(entry.Data) > 0 {
		fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			fields[k] = v
		}
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.entries[lm.next] = LogEntry{
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Fields:    fields,
	}
	lm.next = (lm.next + 1) % len(lm.entries)
	if lm.next == 0 {
		lm.full = true
	}
}

// snapshot 按时间顺序取出当前全部日志（须持有读锁）
func (lm *LogManager) snapshot() []LogEntry {
	if !lm.full {
		out := make([]LogEntry, lm.next)
		copy(out, lm.entries[:lm.next])
		return out
	}

	out := make([]LogEntry, 0, len(lm.entries))
	out = append(out, lm.entries[lm.next:]...)
	out = append(out, lm.entries[:lm.next]...)
	return out
}

// GetLogs 获取最新的日志
func (lm *LogManager) GetLogs(level string, limit int) []LogEntry {
	lm.mu.RLock()
	logs := lm.snapshot()
	lm.mu.RUnlock()

	logs = filterByLevel(logs, level)

	if limit <= 0 || limit > len(logs) {
		limit = len(logs)
	}
	return logs[len(logs)-limit:]
}

// GetLogsWithPagination 获取分页日志
func (lm *LogManager) GetLogsWithPagination(level string, page, pageSize int) ([]LogEntry, int) {
	lm.mu.RLock()
	logs := lm.snapshot()
	lm.mu.RUnlock()

	logs = filterByLevel(logs, level)
	total := len(logs)

	start := (page - 1) * pageSize
	end := start + pageSize

	if start >= total {
		return []LogEntry{}, total
	}
	if end > total {
		end = total
	}

	return logs[start:end], total
}

// filterByLevel 按级别过滤
func filterByLevel(logs []LogEntry, level string) []LogEntry {
	if level == "" {
		return logs
	}

	filtered := make([]LogEntry, 0, len(logs))
	for _, log := range logs {
		if log.Level == level {
			filtered = append(filtered, log)
		}
	}
	return filtered
}

// ClearLogs 清空日志
func (lm *LogManager) ClearLogs() {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.entries = make([]LogEntry, len(lm.entries))
	lm.next = 0
	lm.full = false
}

// LogHook 日志钩子
type LogHook struct {
	manager *LogManager
}

// NewLogHook 创建日志钩子
func NewLogHook(manager *LogManager) *LogHook {
	return &LogHook{manager: manager}
}

// Fire 实现 logrus.Hook 接口
func (h *LogHook) Fire(entry *logrus.Entry) error {
	h.manager.AddLog(entry)
	return nil
}

// Levels 实现 logrus.Hook 接口
func (h *LogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}
