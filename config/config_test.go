package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missing(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(missing(t))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "psw.db", cfg.DSN())
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "SEK", cfg.BaseCurrency)
	assert.Equal(t, time.Hour, cfg.SessionTimeout())
	assert.Equal(t, 8, cfg.PasswordMinLength)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 50, cfg.ItemsPerPage)
	assert.False(t, cfg.Development())
}

func TestLoadEnvFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(f, []byte("DB_DRIVER=mysql\nDB_HOST=db.local\nDB_USERNAME=psw\nDB_PASSWORD=secret\nITEMS_PER_PAGE=25\n"), 0o600))
	// variables already in the environment win over the file.
	t.Setenv("ITEMS_PER_PAGE", "10")
	t.Setenv("APP_ENV", "development")
	t.Cleanup(func() {
		for _, k := range []string{"DB_DRIVER", "DB_HOST", "DB_USERNAME", "DB_PASSWORD"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := Load(f)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 10, cfg.ItemsPerPage)
	assert.True(t, cfg.Development())
	dsn := cfg.DSN()
	assert.Contains(t, dsn, "psw:secret@tcp(db.local:3306)/psw")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	_, err := Load(missing(t))
	assert.ErrorContains(t, err, "DB_DRIVER")

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SESSION_TIMEOUT", "0")
	_, err = Load(missing(t))
	assert.ErrorContains(t, err, "SESSION_TIMEOUT")

	cfg := &Config{LogLevel: "loud"}
	_, err = cfg.Logger()
	assert.Error(t, err)
}
