package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zheng/rkhl/internal/config"
	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/logging"
	"github.com/zheng/rkhl/internal/lookup"
	"github.com/zheng/rkhl/internal/storage"
)

// env is what every data command needs
type env struct {
	cfg   *config.Config
	log   *slog.Logger
	db    *storage.DB
	store *lookup.Store
}

func (e *env) Close() error {
	return e.db.Close()
}

// loadConfig reads the config file and applies the global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	if DbPath != "" {
		cfg.Storage.DB = DbPath
	}
	if DatasetPath != "" {
		cfg.Storage.Dataset = DatasetPath
	}
	if LogLevel != "" {
		cfg.Log.Level = LogLevel
	}
	return cfg, cfg.Validate()
}

// setup loads config, builds the logger and opens the seeded store
func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	db, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:   cfg,
		log:   log,
		db:    db,
		store: lookup.NewStore(db, lookup.DelaysFrom(cfg.Delays)),
	}, nil
}

// openStore seeds the database from the override dataset, or the built-in one
func openStore(cfg *config.Config, log *slog.Logger) (*storage.DB, error) {
	d := dataset.Default()
	if cfg.Storage.Dataset != "" {
		loaded, err := dataset.LoadFile(cfg.Storage.Dataset)
		if err != nil {
			return nil, fmt.Errorf("加载数据集失败: %w", err)
		}
		d = loaded
		log.Debug("使用覆盖数据集", "path", cfg.Storage.Dataset)
	}

	db, err := storage.OpenSeeded(cfg.Storage.DB, d)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	return db, nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openOutput returns stdout for "" and "-", otherwise a created file
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("创建输出文件失败: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("不支持的输出格式 %q (可选: %v)", format, allowed)
}
