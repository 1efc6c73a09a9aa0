package platform

import (
	"context"

	"github.com/solvesync/solvesync/internal/model"
)

// Adapter 平台适配器：识别 URL 并补全题目元数据
// 同步核心只依赖该接口，不感知具体平台
type Adapter interface {
	// Name 平台名称（写入记录的 Platform 字段）
	Name() string
	// HomeURL 平台首页
	HomeURL() string
	// Matches 判断 URL 是否属于该平台的题目页
	Matches(url string) bool
	// FetchProblem 拉取题目元数据
	FetchProblem(ctx context.Context, url string) (*model.Problem, error)
}

// Info 平台信息
type Info struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Registry 平台注册表，按 URL 解析适配器
type Registry struct {
	adapters []Adapter
}

// NewRegistry 创建注册表
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// DefaultRegistry 内置全部适配器的注册表
// 目前只有 LeetCode，新平台在这里追加
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewLeetCodeAdapter(nil),
	)
}

// Detect 返回匹配 URL 的适配器，无匹配返回 nil
func (r *Registry) Detect(url string) Adapter {
	if url == "" {
		return nil
	}
	for _, a := range r.adapters {
		if a.Matches(url) {
			return a
		}
	}
	return nil
}

// IsSupported 判断 URL 是否属于受支持的平台
func (r *Registry) IsSupported(url string) bool {
	return r.Detect(url) != nil
}

// Supported 列出全部受支持的平台
func (r *Registry) Supported() []Info {
	infos := make([]Info, 0, len(r.adapters))
	for _, a := range r.adapters {
		infos = append(infos, Info{Name: a.Name(), URL: a.HomeURL()})
	}
	return infos
}
