// Package bootstrap opens the configured backend and cache for the binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/sabawaheed27/motofix-europe/internal/adapters/supabase"
	"github.com/sabawaheed27/motofix-europe/internal/auth"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
	"github.com/sabawaheed27/motofix-europe/internal/shared"
	mysqlrepo "github.com/sabawaheed27/motofix-europe/internal/storage/mysql"
	pgrepo "github.com/sabawaheed27/motofix-europe/internal/storage/postgres"
)

const (
	pingTimeout  = 2 * time.Second
	queryTimeout = 5 * time.Second
)

// Backend bundles the ports of one backend. Credentials is nil when users are
// managed remotely. AdminShops and AdminUsers serve the admin pages; they use
// the service role key when one is configured and equal Shops and Users
// otherwise.
type Backend struct {
	Shops       domain.ShopRepository
	Users       domain.UserRepository
	AdminShops  domain.ShopRepository
	AdminUsers  domain.UserRepository
	Auth        domain.Authenticator
	Credentials domain.Credentials

	// TokenContext binds a session token to outbound calls; nil when the
	// backend does not act on behalf of users.
	TokenContext func(context.Context, string) context.Context

	close func()
}

func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects to cfg.Backend. elevated selects the service role key for
// the hosted backend, used by batch jobs that write outside any session.
func Open(ctx context.Context, cfg shared.Config, elevated bool) (*Backend, error) {
	switch cfg.Backend {
	case shared.BackendSupabase:
		return openSupabase(cfg, elevated)
	case shared.BackendPostgres:
		return openPostgres(ctx, cfg)
	case shared.BackendMySQL:
		return openMySQL(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func openSupabase(cfg shared.Config, elevated bool) (*Backend, error) {
	anon, err := supabase.New(supabase.Options{
		URL: cfg.SupabaseURL, Key: cfg.SupabaseAnonKey,
		RPS: cfg.BackendRPS, ReadRetries: cfg.BackendReadRetries,
	})
	if err != nil {
		return nil, err
	}
	repo := supabase.NewRepo(anon)
	admin := repo
	if cfg.SupabaseServiceKey != "" {
		svc, err := supabase.New(supabase.Options{
			URL: cfg.SupabaseURL, Key: cfg.SupabaseServiceKey, Elevated: true,
			RPS: cfg.BackendRPS, ReadRetries: cfg.BackendReadRetries,
		})
		if err != nil {
			return nil, err
		}
		admin = supabase.NewRepo(svc)
	}
	if elevated {
		if cfg.SupabaseServiceKey == "" {
			log.Warn().Msg("SUPABASE_SERVICE_ROLE_KEY is empty, writing with the anon key")
		}
		repo = admin
	}
	log.Info().Str("url", cfg.SupabaseURL).
		Bool("elevated", elevated && cfg.SupabaseServiceKey != "").
		Bool("admin_elevated", cfg.SupabaseServiceKey != "").
		Msg("supabase backend ready")
	return &Backend{
		Shops:        repo,
		Users:        repo,
		AdminShops:   admin,
		AdminUsers:   admin,
		Auth:         supabase.NewAuth(anon),
		TokenContext: supabase.WithAccessToken,
	}, nil
}

func openPostgres(ctx context.Context, cfg shared.Config) (*Backend, error) {
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres (%s): %w", redactDSN(cfg.PostgresDSN), err)
	}
	log.Info().Msg("postgres connection ok")
	repo := pgrepo.New(pool, queryTimeout)
	return &Backend{
		Shops:       repo,
		Users:       repo,
		AdminShops:  repo,
		AdminUsers:  repo,
		Credentials: repo,
		Auth:        auth.NewLocal(repo, auth.NewIssuer(cfg.AuthJWTSecret, cfg.SessionTTL)),
		close:       pool.Close,
	}, nil
}

func openMySQL(ctx context.Context, cfg shared.Config) (*Backend, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	log.Info().Msg("database connection ok")
	repo := mysqlrepo.New(db)
	return &Backend{
		Shops:       repo,
		Users:       repo,
		AdminShops:  repo,
		AdminUsers:  repo,
		Credentials: repo,
		Auth:        auth.NewLocal(repo, auth.NewIssuer(cfg.AuthJWTSecret, cfg.SessionTTL)),
		close:       func() { _ = db.Close() },
	}, nil
}

// redactDSN hides the credentials of a URL style DSN.
func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
