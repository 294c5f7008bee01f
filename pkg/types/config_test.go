package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DSN: "/tmp/phonebook.db"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "mysql", DSN: "/tmp/phonebook.db"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "gorm without dialect returns ErrDialectUnknown",
			config:  Config{Backend: "gorm", DSN: "/tmp/phonebook.db"},
			wantErr: ErrDialectUnknown,
		},
		{
			name:    "gorm with unknown dialect returns ErrDialectUnknown",
			config:  Config{Backend: "gorm", Dialect: "oracle", DSN: "x"},
			wantErr: ErrDialectUnknown,
		},
		{
			name:    "empty dsn returns ErrDSNEmpty",
			config:  Config{Backend: "sqlite"},
			wantErr: ErrDSNEmpty,
		},
		{
			name:    "unknown schema mode returns ErrSchemaModeUnknown",
			config:  Config{Backend: "sqlite", DSN: "/tmp/phonebook.db", SchemaMode: "validate"},
			wantErr: ErrSchemaModeUnknown,
		},
		{
			name:    "negative max conns returns ErrMaxConnsNegative",
			config:  Config{Backend: "postgres", DSN: "postgres://localhost/pb", MaxConns: -1},
			wantErr: ErrMaxConnsNegative,
		},
		{
			name:   "valid sqlite config",
			config: Config{Backend: "sqlite", DSN: "/tmp/phonebook.db"},
		},
		{
			name:   "postgres ignores dialect",
			config: Config{Backend: "postgres", Dialect: "whatever", DSN: "postgres://localhost/pb"},
		},
		{
			name:   "valid gorm postgres config with create mode",
			config: Config{Backend: "gorm", Dialect: "postgres", DSN: "postgres://localhost/pb", SchemaMode: "create", MaxConns: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	if got := (Config{}).GetSchemaMode(); got != SchemaUpdate {
		t.Fatalf("GetSchemaMode() = %q, want %q", got, SchemaUpdate)
	}
	if got := (Config{SchemaMode: SchemaNone}).GetSchemaMode(); got != SchemaNone {
		t.Fatalf("GetSchemaMode() = %q, want %q", got, SchemaNone)
	}

	dialects := map[Config]string{
		{Backend: BackendSQLite}:                           DialectSQLite,
		{Backend: BackendPostgres, Dialect: DialectSQLite}: DialectPostgres,
		{Backend: BackendGorm, Dialect: DialectPostgres}:   DialectPostgres,
	}
	for cfg, want := range dialects {
		if got := cfg.EffectiveDialect(); got != want {
			t.Errorf("EffectiveDialect(%+v) = %q, want %q", cfg, got, want)
		}
	}
}
