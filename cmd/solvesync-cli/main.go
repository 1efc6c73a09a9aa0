package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/solvesync/solvesync/internal/bootstrap"
	"github.com/solvesync/solvesync/internal/collector"
	"github.com/solvesync/solvesync/internal/schema"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	core    *bootstrap.Core
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "solvesync",
		Short: "SolveSync - 刷题记录自动同步到 Notion",
		Long:  `SolveSync 在本地运行，把刷题平台上通过的提交连同 AI 解法分析保存到 Notion 文档库。`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			core, err = bootstrap.NewCore(cfgFile)
			if err != nil {
				slog.Error("初始化失败", "error", err)
				os.Exit(1)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				_ = core.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(databasesCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(logCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// statsCmd 解题统计命令
func statsCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "查看解题进度统计",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			snapshot, err := core.Services.Stats.GetStats(ctx, force)
			if err != nil {
				fmt.Printf("❌ 获取统计失败: %v\n", err)
				os.Exit(1)
			}

			fmt.Println("📊 解题进度")
			fmt.Println("═══════════════════════════════════════")
			fmt.Printf("  • 总计:   %d 题\n", snapshot.Total)
			fmt.Printf("  • Easy:   %d\n", snapshot.Easy)
			fmt.Printf("  • Medium: %d\n", snapshot.Medium)
			fmt.Printf("  • Hard:   %d\n", snapshot.Hard)
			fmt.Printf("  • 连续:   %d 天\n", snapshot.Streak)
			fmt.Println("═══════════════════════════════════════")
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "跳过缓存强制重算")

	return cmd
}

// databasesCmd 列出可选的目标数据库
func databasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "列出凭证可见的 Notion 数据库",
		Run: func(cmd *cobra.Command, args []string) {
			if !core.Clients.Notion.IsConfigured() {
				fmt.Println("⚠️  Notion API Key 未配置")
				fmt.Println("   请设置环境变量: SOLVESYNC_NOTION_API_KEY")
				fmt.Println("   或在 config.yaml 中配置 notion.api_key")
				os.Exit(1)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			databases, err := core.Clients.Notion.SearchDatabases(ctx)
			if err != nil {
				fmt.Printf("❌ 查询数据库失败: %v\n", err)
				os.Exit(1)
			}

			if len(databases) == 0 {
				fmt.Println("📚 凭证下没有可见的数据库")
				fmt.Println("   请确认 Integration 已被分享到目标数据库")
				return
			}

			fmt.Printf("📚 找到 %d 个数据库:\n", len(databases))
			for _, db := range databases {
				marker := "  "
				if db.ID == core.Cfg.Notion.DatabaseID {
					marker = "✅"
				}
				fmt.Printf("%s %s  %s\n", marker, db.ID, db.Title)
			}
		},
	}
}

// syncCmd 手动保存一个提交事件文件
func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <event.json>",
		Short: "手动保存一个提交事件（JSON 文件）",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			event, err := collector.ParseSubmissionFile(args[0])
			if err != nil {
				fmt.Printf("❌ %v\n", err)
				os.Exit(1)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			fmt.Printf("🔄 正在保存 %s ...\n", event.URL)

			result, err := core.Services.Sync.ManualSave(ctx, event)
			if err != nil {
				fmt.Printf("❌ 保存失败: %v\n", err)
				os.Exit(1)
			}

			if result.Appended {
				fmt.Printf("✅ 已向「%s」追加第 %d 个解法\n", result.Record.Title, result.SolutionIndex)
			} else {
				fmt.Printf("✅ 已新建记录「%s」\n", result.Record.Title)
			}
		},
	}
}

// logCmd 查看同步日志
func logCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "查看最近的同步日志",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			logs, err := core.Repos.SyncLog.Recent(ctx, limit)
			if err != nil {
				fmt.Printf("❌ 查询同步日志失败: %v\n", err)
				os.Exit(1)
			}

			if len(logs) == 0 {
				fmt.Println("📚 还没有同步记录")
				return
			}

			fmt.Printf("📋 最近 %d 条同步记录:\n", len(logs))
			fmt.Println("═══════════════════════════════════════")
			for _, l := range logs {
				icon := "✅"
				detail := ""
				switch l.Action {
				case schema.ActionAppended:
					detail = fmt.Sprintf("追加解法 #%d", l.SolutionIndex)
				case schema.ActionFailed:
					icon = "❌"
					detail = l.Error
				default:
					detail = "新建记录"
				}
				fmt.Printf("%s %s  %-9s %s  %s (%dms)\n",
					icon, l.CreatedAt.Format("01-02 15:04"), l.Action, l.Title, detail, l.DurationMs)
			}
			fmt.Println("═══════════════════════════════════════")
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "显示条数")

	return cmd
}
