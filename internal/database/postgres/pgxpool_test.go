package postgres

import (
	"testing"
	"time"

	"shift-match/internal/config"
)

func TestPoolConfig_AppliesLimits(t *testing.T) {
	pcfg, err := poolConfig(config.DatabaseConfig{
		DBHost:              " db.internal ",
		DBPort:              "5433",
		DBName:              "shift_match",
		DBUser:              "matcher",
		DBSSLMode:           "disable",
		ConnectTimeout:      3 * time.Second,
		PoolMaxConns:        12,
		PoolMaxConnLifetime: 20 * time.Minute,
		PoolMaxConnIdleTime: 0,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	cc := pcfg.ConnConfig
	if cc.Host != "db.internal" || cc.Port != 5433 || cc.Database != "shift_match" || cc.User != "matcher" {
		t.Fatalf("unexpected connection config: host=%q port=%d db=%q user=%q", cc.Host, cc.Port, cc.Database, cc.User)
	}
	if cc.Password != "" {
		t.Fatalf("expected no password")
	}
	if cc.ConnectTimeout != 3*time.Second || pcfg.MaxConns != 12 || pcfg.MaxConnLifetime != 20*time.Minute {
		t.Fatalf("limits not applied: timeout=%v max=%d lifetime=%v", cc.ConnectTimeout, pcfg.MaxConns, pcfg.MaxConnLifetime)
	}
	if pcfg.MaxConnIdleTime <= 0 {
		t.Fatalf("expected pgx default idle time to be kept, got %v", pcfg.MaxConnIdleTime)
	}
}

func TestPoolConfig_RejectsBadPort(t *testing.T) {
	if _, err := poolConfig(config.DatabaseConfig{DBHost: "db", DBPort: "not-a-port", DBName: "x", DBUser: "u"}); err == nil {
		t.Fatalf("expected parse error")
	}
}
