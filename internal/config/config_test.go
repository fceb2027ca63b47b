package config

import "testing"

func TestResolveDefaults_DerivesDriverFromTarget(t *testing.T) {
	cases := []struct {
		target string
		dsn    string
		want   string
		ok     bool
	}{
		{"local", "", "sqlite", true},
		{"cloud", "postgres://u:p@h/db", "postgres", true},
		{"cloud", "", "", false}, // postgres requires a DSN
		{"edge", "", "", false},
	}
	for _, tc := range cases {
		cfg := Config{BuildTarget: tc.target, DBDriver: "auto", PostgresDSN: tc.dsn}
		err := cfg.ResolveDefaults()
		if tc.ok && err != nil {
			t.Fatalf("target %s: unexpected error %v", tc.target, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("target %s: expected error", tc.target)
			}
			continue
		}
		if cfg.DBDriver != tc.want {
			t.Fatalf("target %s: got driver %s, want %s", tc.target, cfg.DBDriver, tc.want)
		}
	}
}

func TestResolveDefaults_ExplicitDriverWins(t *testing.T) {
	cfg := Config{BuildTarget: "cloud", DBDriver: "sqlite"}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("explicit driver overridden: %s", cfg.DBDriver)
	}
}
