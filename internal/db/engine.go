package db

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	mssql "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/config"
)

const appName = "hospital-report"

// nowQueries read the current time on the database side, so every archived
// run is stamped with the server clock instead of the client one.
var nowQueries = map[string]string{
	"sqlserver": "SELECT SYSDATETIME()",
	"postgres":  "SELECT now()",
	"mysql":     "SELECT NOW(6)",
	"sqlite":    "SELECT strftime('%Y-%m-%dT%H:%M:%f', 'now')",
}

// open builds a *sql.DB from the structured configuration. Credentials go
// through the drivers' own config types or url.URL escaping; they are never
// spliced into SQL text.
func open(cfg config.Database, timeout time.Duration) (*sql.DB, error) {
	switch cfg.Engine {
	case "sqlserver":
		return openSQLServer(cfg, timeout)
	case "postgres":
		return openPostgres(cfg, timeout)
	case "mysql":
		return openMySQL(cfg, timeout)
	case "sqlite":
		db, err := sql.Open("sqlite", cfg.Database)
		if err != nil {
			return nil, err
		}
		// One connection keeps a single view of the file, and of :memory:.
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported engine %q", cfg.Engine)
	}
}

func hostPort(cfg config.Database) string {
	if cfg.Port == 0 {
		return cfg.Host
	}
	return net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))
}

func openSQLServer(cfg config.Database, timeout time.Duration) (*sql.DB, error) {
	query := url.Values{}
	query.Set("database", cfg.Database)
	query.Set("app name", appName)
	if timeout > 0 {
		query.Set("connection timeout", strconv.Itoa(int(timeout.Seconds())))
	}
	if cfg.SSLMode != "" {
		query.Set("encrypt", cfg.SSLMode)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     hostPort(cfg),
		RawQuery: query.Encode(),
	}

	connector, err := mssql.NewConnector(u.String())
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

func openPostgres(cfg config.Database, timeout time.Duration) (*sql.DB, error) {
	query := url.Values{}
	query.Set("application_name", appName)
	if timeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(timeout.Seconds())))
	}
	if cfg.SSLMode != "" {
		query.Set("sslmode", cfg.SSLMode)
	}

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     hostPort(cfg),
		Path:     "/" + cfg.Database,
		RawQuery: query.Encode(),
	}

	pgcfg, err := pgx.ParseConfig(u.String())
	if err != nil {
		return nil, err
	}
	return stdlib.OpenDB(*pgcfg), nil
}

func openMySQL(cfg config.Database, timeout time.Duration) (*sql.DB, error) {
	mcfg := mysql.NewConfig()
	mcfg.User = cfg.Username
	mcfg.Passwd = cfg.Password
	mcfg.Net = "tcp"
	mcfg.Addr = hostPort(cfg)
	mcfg.DBName = cfg.Database
	mcfg.ParseTime = true
	mcfg.Timeout = timeout
	if cfg.SSLMode != "" {
		mcfg.TLSConfig = cfg.SSLMode
	}

	connector, err := mysql.NewConnector(mcfg)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}
