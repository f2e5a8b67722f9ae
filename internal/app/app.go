package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/linemk/order-manager/internal/config"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB
}

// DSN собирает строку подключения к postgres из конфигурации; логин и пароль экранируются
func DSN(dbCfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbCfg.User, dbCfg.Password),
		Host:     net.JoinHostPort(dbCfg.Host, strconv.Itoa(dbCfg.Port)),
		Path:     "/" + dbCfg.Name,
		RawQuery: url.Values{"sslmode": {dbCfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// NewApp создаёт новый экземпляр App и открывает пул соединений с БД
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connected",
		slog.String("host", cfg.Database.Host),
		slog.String("name", cfg.Database.Name),
	)

	return &App{
		Config: cfg,
		Logger: log,
		DB:     db,
	}, nil
}
