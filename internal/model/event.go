package model

// SubmissionEvent 浏览器助手上报的原始提交事件
// 仅携带页面侧能直接拿到的信息，题目元数据由平台适配器补全
type SubmissionEvent struct {
	URL       string   `json:"url"`
	Code      string   `json:"code,omitempty"`
	Language  string   `json:"language,omitempty"`
	Metrics   *Metrics `json:"metrics,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// Accepted 判断提交是否通过
func (e *SubmissionEvent) Accepted() bool {
	return e.Metrics != nil && e.Metrics.StatusCode == StatusAccepted
}
