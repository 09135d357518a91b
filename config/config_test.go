package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 5000, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.Equal(t, "", cfg.MQ.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Worker.OrphanTTL)
	assert.Equal(t, "Mascotas", cfg.Panel.UploadPreset)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "6000")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("STORAGE_BACKEND", "cloudinary")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("UPLOAD_ORPHAN_TTL", "2h")
	t.Setenv("MQ_BACKEND", "rabbitmq")

	cfg := LoadConfig()

	assert.Equal(t, 6000, cfg.ServerPort)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, "cloudinary", cfg.Storage.Backend)
	assert.Equal(t, "demo", cfg.Storage.Cloudinary.CloudName)
	assert.Equal(t, 2*time.Hour, cfg.Worker.OrphanTTL)
	assert.Equal(t, "rabbitmq", cfg.MQ.Backend)
}

func TestLoadConfig_InvalidNumbersKeepDefault(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	t.Setenv("WORKER_SWEEP_INTERVAL", "soon")

	cfg := LoadConfig()

	assert.Equal(t, 5000, cfg.ServerPort)
	assert.Equal(t, time.Hour, cfg.Worker.SweepInterval)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patitas.yaml")
	content := `
server_port: 7000
database:
  host: file-host
  name: from_file
storage:
  backend: gcs
  gcs:
    bucket: fotos
worker:
  orphan_ttl: 6h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_NAME", "from_env")

	cfg := LoadConfig()

	assert.Equal(t, 7000, cfg.ServerPort)
	assert.Equal(t, "file-host", cfg.Database.Host)
	assert.Equal(t, "from_env", cfg.Database.DBName)
	assert.Equal(t, "gcs", cfg.Storage.Backend)
	assert.Equal(t, "fotos", cfg.Storage.GCS.Bucket)
	assert.Equal(t, 6*time.Hour, cfg.Worker.OrphanTTL)
	// untouched keys keep their defaults
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadConfig_Seed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev.yaml")
	content := `
database:
  driver: memory
seed:
  admin_username: desde_archivo
  shelters:
    - code: REF01
      name: Refugio Norte
    - code: REF02
      name: Refugio Sur
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DEV_ADMIN_USERNAME", "admin")
	t.Setenv("DEV_ADMIN_PASSWORD", "clave")

	cfg := LoadConfig()

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "admin", cfg.Seed.AdminUsername)
	assert.Equal(t, "clave", cfg.Seed.AdminPassword)
	assert.Equal(t, []ShelterSeed{
		{Code: "REF01", Name: "Refugio Norte"},
		{Code: "REF02", Name: "Refugio Sur"},
	}, cfg.Seed.Shelters)
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: [1,2"), 0o600))

	_, err := LoadFile(path, Defaults())
	assert.Error(t, err)
}
