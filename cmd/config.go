package cmd

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/zheng/rkhl/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "管理配置文件",
	}
	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "生成默认配置文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ConfigPath
			if path == "" {
				path = config.DefaultPath()
			}

			if force {
				if err := config.Save(path, config.Default()); err != nil {
					return fmt.Errorf("写入配置文件失败: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ 已覆盖配置文件: %s\n", path)
				return nil
			}

			created, err := config.EnsureExists(path)
			if err != nil {
				return fmt.Errorf("写入配置文件失败: %w", err)
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "配置文件已存在: %s (使用 --force 覆盖)\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ 已生成配置文件: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "覆盖已存在的配置文件")

	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "显示生效的配置",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}
