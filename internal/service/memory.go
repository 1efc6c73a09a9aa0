package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"github.com/solvesync/solvesync/internal/ai"
	"github.com/solvesync/solvesync/internal/model"
)

// 相似题解检索条数上限
const maxSimilarMemories = 3

// MemoryService 解题记忆：把已保存的题解存入本地向量库，
// 分析新提交时检索相似的历史题解作为上下文
type MemoryService struct {
	db         *chromem.DB
	collection *chromem.Collection
	client     *ai.GeminiClient
}

// MemoryConfig 配置
type MemoryConfig struct {
	StoragePath string // 向量数据库存储路径
}

// NewMemoryService 创建解题记忆服务
func NewMemoryService(client *ai.GeminiClient, cfg *MemoryConfig) (*MemoryService, error) {
	if cfg == nil {
		cfg = &MemoryConfig{}
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = "./data/memory"
	}

	// 确保目录存在
	if err := os.MkdirAll(cfg.StoragePath, 0755); err != nil {
		return nil, fmt.Errorf("创建记忆存储目录失败: %w", err)
	}

	// 创建向量数据库
	db, err := chromem.NewPersistentDB(cfg.StoragePath, false)
	if err != nil {
		return nil, fmt.Errorf("创建向量数据库失败: %w", err)
	}

	// 创建或获取 collection
	collection, err := db.GetOrCreateCollection("solved", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 collection 失败: %w", err)
	}

	return &MemoryService{
		db:         db,
		collection: collection,
		client:     client,
	}, nil
}

// IndexRecord 索引一条已保存的题解（尽力而为，失败只记日志）
func (s *MemoryService) IndexRecord(ctx context.Context, artifact *model.SubmissionArtifact) {
	if !s.client.IsConfigured() {
		slog.Debug("Gemini 未配置，跳过记忆索引")
		return
	}
	if artifact.Analysis == nil || artifact.Analysis.IsEmpty() {
		// 没有分析结果的题解检索价值有限，不入库
		return
	}

	content := buildMemoryContent(artifact)

	embeddings, err := s.client.Embed(ctx, []string{content})
	if err != nil || len(embeddings) == 0 {
		slog.Warn("生成记忆嵌入失败", "title", artifact.Problem.Title, "error", err)
		return
	}

	doc := chromem.Document{
		ID:        artifact.URL,
		Content:   content,
		Embedding: embeddings[0],
		Metadata: map[string]string{
			"platform":   artifact.Platform,
			"difficulty": string(artifact.Problem.Difficulty),
		},
	}

	if err := s.collection.AddDocument(ctx, doc); err != nil {
		slog.Warn("写入记忆失败", "title", artifact.Problem.Title, "error", err)
		return
	}
	slog.Debug("题解已入记忆库", "title", artifact.Problem.Title)
}

// Similar 检索与给定题目相似的历史题解摘要
func (s *MemoryService) Similar(ctx context.Context, problem *model.Problem) []string {
	if !s.client.IsConfigured() {
		return nil
	}

	total := s.collection.Count()
	if total == 0 {
		return nil
	}

	query := problem.Title
	if len(problem.Tags) > 0 {
		names := make([]string, 0, len(problem.Tags))
		for _, tag := range problem.Tags {
			names = append(names, tag.Name)
		}
		query += " " + strings.Join(names, " ")
	}

	embeddings, err := s.client.Embed(ctx, []string{query})
	if err != nil || len(embeddings) == 0 {
		slog.Warn("生成查询嵌入失败", "error", err)
		return nil
	}

	k := maxSimilarMemories
	if k > total {
		k = total
	}

	results, err := s.collection.QueryEmbedding(ctx, embeddings[0], k, nil, nil)
	if err != nil {
		slog.Warn("检索记忆失败", "error", err)
		return nil
	}

	memories := make([]string, 0, len(results))
	for _, r := range results {
		memories = append(memories, r.Content)
	}
	return memories
}

// buildMemoryContent 构建入库文本：题目 + 思路 + 复杂度
func buildMemoryContent(artifact *model.SubmissionArtifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", artifact.Problem.Title, artifact.Problem.Difficulty)
	if artifact.Analysis.Approach != "" {
		fmt.Fprintf(&b, " — approach: %s", artifact.Analysis.Approach)
	}
	if artifact.Analysis.TimeComplexity != "" {
		fmt.Fprintf(&b, ", time: %s", artifact.Analysis.TimeComplexity)
	}
	if artifact.Analysis.SpaceComplexity != "" {
		fmt.Fprintf(&b, ", space: %s", artifact.Analysis.SpaceComplexity)
	}
	return b.String()
}
