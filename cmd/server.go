package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zheng/rkhl/internal/lookup"
	"github.com/zheng/rkhl/internal/mcp"
	"github.com/zheng/rkhl/internal/watcher"
	"github.com/zheng/rkhl/internal/web"
)

func serveCmd() *cobra.Command {
	var addr string
	var watch bool
	var debounceMs int
	var delayScale float64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 Web 界面",
		Long: `启动本地 Web 服务器，提供人口数据回流应用的交互界面和 JSON API。

特性：
  - 数据驾驶舱、数据汇聚、综合查询、人员家族图谱四个模块
  - 每个浏览器会话独立保存视图状态，空闲超时自动清理
  - --watch 监控数据集文件，变更后自动重新加载

示例：
  rkhl serve                         # 使用默认地址 :8080
  rkhl serve --addr :3000            # 指定地址
  rkhl serve --dataset data.toml --watch
  rkhl serve --delay-scale 0         # 关闭模拟加载延迟`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			if addr != "" {
				e.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("delay-scale") {
				e.cfg.Delays.Scale = delayScale
				if err := e.cfg.Validate(); err != nil {
					return err
				}
			}
			if watch && e.cfg.Storage.Dataset == "" {
				return fmt.Errorf("--watch 需要通过 --dataset 或配置文件指定数据集文件")
			}

			var w *watcher.Watcher
			if watch {
				if w, err = newWatcher(e, e.cfg.Storage.Dataset, debounceMs); err != nil {
					return err
				}
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			g, ctx := errgroup.WithContext(ctx)
			srv := web.NewServer(e.db, e.cfg, e.log)
			g.Go(func() error {
				return srv.Run(ctx)
			})
			if w != nil {
				e.log.Info("👀 监控数据集", "path", w.Path())
				g.Go(func() error {
					return w.Run(ctx)
				})
			}

			fmt.Printf("🌐 %s 已启动: http://localhost%s\n", web.AppTitle, e.cfg.Server.Addr)
			fmt.Println("按 Ctrl+C 停止...")
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "监听地址 (默认读取配置文件)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "监控数据集文件变更")
	cmd.Flags().IntVar(&debounceMs, "debounce", 500, "防抖延迟（毫秒）")
	cmd.Flags().Float64Var(&delayScale, "delay-scale", 1, "模拟加载延迟倍率 (0=关闭)")

	return cmd
}

func newWatcher(e *env, path string, debounceMs int) (*watcher.Watcher, error) {
	w, err := watcher.New(
		path,
		e.db,
		watcher.WithDebounceDelay(time.Duration(debounceMs)*time.Millisecond),
		watcher.WithOnReloadStart(func() {
			e.log.Info("检测到数据集变更，开始重新加载...")
		}),
		watcher.WithOnReloadDone(func(persons, links int64, duration time.Duration) {
			e.log.Info("数据集重新加载完成", "persons", persons, "links", links, "duration", duration.Round(time.Millisecond))
		}),
		watcher.WithOnError(func(err error) {
			e.log.Error("数据集重新加载失败", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("创建监控器失败: %w", err)
	}
	return w, nil
}

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "启动 MCP (Model Context Protocol) 服务器",
		Long: `启动 MCP 服务器，允许 AI 助手通过标准输入输出查询人口数据。

MCP 工具包括：
  - search: 检索人员
  - graph: 家族关系图谱
  - node: 人员详情
  - relatives: 上层/下层关系人分析
  - sources: 数据汇聚监控`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			// tool calls answer immediately, the loading delays only pace the UI
			server := mcp.NewServer(e.db, lookup.NewStore(e.db, lookup.Delays{}), e.log)
			return server.Run(ctx)
		},
	}

	return cmd
}

func watchCmd() *cobra.Command {
	var debounceMs int

	cmd := &cobra.Command{
		Use:   "watch [数据集文件]",
		Short: "监控数据集文件并自动重新加载",
		Long: `启动 watch 模式，监控覆盖数据集 TOML 文件。
当检测到文件变更时，自动重新加载并整体替换数据库内容。
解析失败的文件不会影响已加载的数据。

示例：
  rkhl watch data.toml
  rkhl watch data.toml --db rkhl.db --debounce 1000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				DatasetPath = args[0]
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			path := e.cfg.Storage.Dataset
			if path == "" {
				return fmt.Errorf("需要指定数据集文件")
			}

			persons, links, err := e.db.GetStats()
			if err != nil {
				return err
			}
			fmt.Printf("初始加载完成: %d 人员, %d 关系\n", persons, links)
			fmt.Printf("\n开始监控数据集: %s\n", path)
			fmt.Printf("数据库路径: %s\n", e.cfg.Storage.DB)
			fmt.Printf("防抖延迟: %dms\n", debounceMs)
			fmt.Println("\n按 Ctrl+C 停止...")
			fmt.Println()

			w, err := newWatcher(e, path, debounceMs)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			err = w.Run(ctx)
			fmt.Println("\n停止监控...")
			return err
		},
	}

	cmd.Flags().IntVar(&debounceMs, "debounce", 500, "防抖延迟（毫秒）")

	return cmd
}
