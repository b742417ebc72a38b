package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bft-labs/stagehand/pkg/app"
	"github.com/bft-labs/stagehand/pkg/lifecycle"
	"github.com/bft-labs/stagehand/pkg/log"
)

// MemoryPath selects a private in-memory SQLite database.
const MemoryPath = ":memory:"

// Config contains database configuration.
type Config struct {
	// Path is the SQLite database file, or MemoryPath.
	Path string

	// LogQueries logs every SQL statement through GORM's logger.
	LogQueries bool
}

// Database is a SQLite database opened by a starting command and closed by a
// terminated command. Models registered with it are migrated on open.
type Database struct {
	cfg    Config
	models []interface{}
	logger log.Logger

	mu sync.RWMutex
	db *gorm.DB
}

// NewDatabase creates a closed database that migrates models on Open.
func NewDatabase(cfg Config, logger log.Logger, models ...interface{}) *Database {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if cfg.Path == "" {
		cfg.Path = MemoryPath
	}
	return &Database{cfg: cfg, models: models, logger: logger.With(log.Component("persistence"))}
}

// Open connects to SQLite and runs AutoMigrate for every registered model.
func (d *Database) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return fmt.Errorf("persistence: database %s already open", d.cfg.Path)
	}

	if d.cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(d.cfg.Path), 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if d.cfg.LogQueries {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(sqlite.Open(d.cfg.Path), gormCfg)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", d.cfg.Path, err)
	}

	if d.cfg.Path == MemoryPath {
		// every new connection would see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if len(d.models) > 0 {
		if err := db.AutoMigrate(d.models...); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	d.db = db
	d.logger.Info("database opened", log.String("path", d.cfg.Path), log.Int("models", len(d.models)))
	return nil
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return ErrNotOpen
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	d.db = nil
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	d.logger.Info("database closed", log.String("path", d.cfg.Path))
	return nil
}

// DB returns the open *gorm.DB or ErrNotOpen.
func (d *Database) DB() (*gorm.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return nil, ErrNotOpen
	}
	return d.db, nil
}

// Module opens (and migrates) the database while the application starts and
// closes it once the application is terminated.
func Module(d *Database) app.Module {
	return app.ModuleFunc(func(b *app.Binder) error {
		b.OnStarting(lifecycle.Named("persistence.open", d.Open))
		b.OnTerminated(lifecycle.Named("persistence.close", d.Close))
		return nil
	})
}
