package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", "debug", slog.LevelDebug, false},
		{"info", "info", slog.LevelInfo, false},
		{"warn", "warn", slog.LevelWarn, false},
		{"warning别名", "warning", slog.LevelWarn, false},
		{"error", "error", slog.LevelError, false},
		{"未知级别", "trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, level)
			}
		})
	}
}

func TestNewStructuredLogger(t *testing.T) {
	// nil配置退化为默认配置
	sl, err := NewStructuredLogger(nil)
	assert.NoError(t, err)
	assert.NotNil(t, sl)

	// json与text格式都支持
	for _, format := range []string{"json", "text"} {
		sl, err := NewStructuredLogger(&LogConfig{Level: "info", Format: format, Output: "stdout"})
		assert.NoError(t, err)
		assert.NotNil(t, sl)
	}

	// 非法格式拒绝
	_, err = NewStructuredLogger(&LogConfig{Level: "info", Format: "xml", Output: "stdout"})
	assert.Error(t, err)

	// 非法级别拒绝
	_, err = NewStructuredLogger(&LogConfig{Level: "trace", Format: "json", Output: "stdout"})
	assert.Error(t, err)
}

func TestStructuredLogger_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "airdrop.log")
	sl, err := NewStructuredLogger(&LogConfig{
		Level:  "info",
		Format: "json",
		Output: logPath,
	})
	assert.NoError(t, err)

	sl.Info("领取完成", "account", "0x1111", "amount", "100")
	sl.InfoWithFields("清扫完成", map[string]any{"destination": "0x2222"})

	// debug级别被过滤
	sl.Debug("不应写入")

	data, err := os.ReadFile(logPath)
	assert.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "领取完成")
	assert.Contains(t, content, `"account":"0x1111"`)
	assert.Contains(t, content, "清扫完成")
	assert.NotContains(t, content, "不应写入")
}

func TestFieldLogger_DomainHelpers(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "airdrop.log")
	sl, err := NewStructuredLogger(&LogConfig{
		Level:  "info",
		Format: "json",
		Output: logPath,
	})
	assert.NoError(t, err)

	NewClaimLogger(sl, "0x1111111111111111111111111111111111111111").Info("领取完成")
	NewAdminLogger(sl, "sweep").Info("清扫完成")
	NewLedgerLogger(sl, "transfer", "0xtoken").Error("转账失败")

	data, err := os.ReadFile(logPath)
	assert.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `"component":"claim_processor"`)
	assert.Contains(t, content, `"account":"0x1111111111111111111111111111111111111111"`)
	assert.Contains(t, content, `"component":"admin"`)
	assert.Contains(t, content, `"operation":"sweep"`)
	assert.Contains(t, content, `"component":"ledger_client"`)
	assert.Contains(t, content, `"method":"transfer"`)
}
