package schema

import "time"

// SchemaMeta 本地库版本信息
type SchemaMeta struct {
	ID            int64 `gorm:"primaryKey"`
	SchemaVersion int   `gorm:"default:0"`
}

// TableName 指定表名
func (SchemaMeta) TableName() string {
	return "schema_meta"
}

// KVEntry 持久化键值项（统计缓存等派生状态）
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Value     string    `gorm:"type:text"` // JSON 值
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (KVEntry) TableName() string {
	return "kv_entries"
}

// SyncLog 一次编排保存的结果记录
type SyncLog struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	URL           string    `gorm:"size:2000;index"` // 规范化 URL
	Title         string    `gorm:"size:500"`
	Platform      string    `gorm:"size:50"`
	Action        string    `gorm:"size:20;index"` // created / appended / failed
	SolutionIndex int       `gorm:"default:0"`     // 追加时的解法序号
	Error         string    `gorm:"type:text"`     // 失败原因
	DurationMs    int64     `gorm:"default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (SyncLog) TableName() string {
	return "sync_logs"
}

// SyncLog 动作常量
const (
	ActionCreated  = "created"
	ActionAppended = "appended"
	ActionFailed   = "failed"
)
