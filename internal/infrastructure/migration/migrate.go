package migration

import (
	"errors"
	"fmt"

	"planner/internal/app/server/config"

	"github.com/golang-migrate/migrate/v4"
	// Драйвер postgres и файловый источник регистрируются через init
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/exp/slog"
)

// Migrator - интерфейс для самой библиотеки migrate.Migrate
type Migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() (error, error)
}

// MigrationEngine - фабрика для создания мигратора (чтобы не лезть в ФС и БД в тестах)
type MigrationEngine func(sourceURL, databaseURL string) (Migrator, error)

type Migration struct {
	cfg    *config.Config
	engine MigrationEngine
	log    *slog.Logger
}

func NewMigration(conf *config.Config, engine MigrationEngine, log *slog.Logger) *Migration {
	if engine == nil {
		engine = DefaultEngine
	}
	return &Migration{
		cfg:    conf,
		engine: engine,
		log:    log.With("component", "migration"),
	}
}

// DefaultEngine - реальная реализация для продакшена
func DefaultEngine(sourceURL, databaseURL string) (Migrator, error) {
	return migrate.New(sourceURL, databaseURL)
}

// Up применяет все новые миграции; отсутствие изменений не ошибка
func (mg *Migration) Up() error {
	return mg.run("up", func(m Migrator) error { return m.Up() })
}

// Down откатывает схему целиком
func (mg *Migration) Down() error {
	return mg.run("down", func(m Migrator) error { return m.Down() })
}

func (mg *Migration) run(direction string, apply func(Migrator) error) (err error) {
	m, err := mg.engine("file://"+mg.cfg.DB.Migrations, mg.cfg.DB.DatabaseURI)
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			err = errors.Join(err, fmt.Errorf("migration source: %w", serr))
		}
		if dberr != nil {
			err = errors.Join(err, fmt.Errorf("migration database: %w", dberr))
		}
	}()

	if err := apply(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Debug("schema is up to date", "direction", direction)
			return nil
		}
		return fmt.Errorf("migration %s: %w", direction, err)
	}

	if version, dirty, verr := m.Version(); verr == nil {
		mg.log.Info("migrations applied", "direction", direction, "version", version, "dirty", dirty)
	}
	return nil
}
