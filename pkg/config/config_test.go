package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.True(t, cfg.App.IsDev())
	assert.Equal(t, DriverMySQL, cfg.DB.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 10, cfg.Inventory.DefaultReorderLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 5433, cfg.DB.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.True(t, cfg.App.IsProd())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestLoadRequiresSecretInProd(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  DBConfig
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  DBConfig{Driver: DriverMySQL, DSN: "user@tcp(db)/x"},
			want: "user@tcp(db)/x",
		},
		{
			name: "mysql",
			cfg:  DBConfig{Driver: DriverMySQL, Host: "db", Port: 3306, User: "root", Password: "pw", Name: "shop"},
			want: "root:pw@tcp(db:3306)/shop?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name: "postgres",
			cfg:  DBConfig{Driver: DriverPostgres, Host: "db", Port: 5432, User: "pg", Password: "pw", Name: "shop", SSLMode: "disable"},
			want: "host=db user=pg password=pw dbname=shop port=5432 sslmode=disable TimeZone=UTC",
		},
		{
			name: "sqlite",
			cfg:  DBConfig{Driver: DriverSQLite, Name: "shop"},
			want: "shop.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ConnectionString())
		})
	}
}
