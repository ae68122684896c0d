package sql

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/Brawl345/prayerbot/config"
	"github.com/Brawl345/prayerbot/logger"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*
var embeddedMigrations embed.FS

var log = logger.New("sql")

func connectionString(cfg config.MySQL) string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&tls=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.TLS,
	)
}

func New(cfg config.MySQL) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", connectionString(cfg))
	if err != nil {
		return nil, err
	}

	if !cfg.IgnoreMigration {
		migrationSource := &migrate.EmbedFileSystemMigrationSource{FileSystem: embeddedMigrations, Root: "migrations"}
		n, err := migrate.Exec(db.DB, "mysql", migrationSource, migrate.Up)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			log.Info().Msgf("Applied %d migration(s)", n)
		}
	}

	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(10 * time.Minute)

	return db, nil
}

func NewNullString(s string) sql.NullString {
	if len(s) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{
		String: s,
		Valid:  true,
	}
}
