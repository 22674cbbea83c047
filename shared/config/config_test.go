package config

import (
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPublic = `
original_cooldown: 1m
reply_cooldown: 30s
default_ban_length: 168h
media_dir: /var/lib/plainchant/media
log_level: debug
log_json: true
`

const validPrivate = `
pg:
  host: localhost
  port: 5432
  user: plainchant
  password: secret
  dbname: plainchant
`

func writeConfigDir(t *testing.T, public, private string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(path.Join(dir, "public.yaml"), []byte(public), 0644))
	require.NoError(t, os.WriteFile(path.Join(dir, "private.yaml"), []byte(private), 0644))
	return dir
}

func TestMustLoad(t *testing.T) {
	dir := writeConfigDir(t, validPublic, validPrivate)

	cfg := MustLoad(dir)

	assert.Equal(t, time.Minute, cfg.Public.OriginalCooldown)
	assert.Equal(t, 30*time.Second, cfg.Public.ReplyCooldown)
	assert.Equal(t, 168*time.Hour, cfg.Public.DefaultBanLength)
	assert.Equal(t, "/var/lib/plainchant/media", cfg.Public.MediaDir)
	assert.Equal(t, "debug", cfg.Public.LogLevel)
	assert.True(t, cfg.Public.LogJSON)
	assert.Equal(t, "localhost", cfg.Private.Pg.Host)
	assert.Equal(t, 5432, cfg.Private.Pg.Port)
	assert.Equal(t, "plainchant", cfg.Private.Pg.Dbname)
}

func TestMustLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(path.Join(dir, "public.yaml"), []byte(validPublic), 0644))

	assert.Panics(t, func() { MustLoad(dir) })
}

func TestMustLoadInvalidYaml(t *testing.T) {
	dir := writeConfigDir(t, "original_cooldown: [oops", validPrivate)

	assert.Panics(t, func() { MustLoad(dir) })
}

func TestMustLoadMissingRequiredField(t *testing.T) {
	public := `
original_cooldown: 1m
reply_cooldown: 30s
default_ban_length: 168h
`
	dir := writeConfigDir(t, public, validPrivate)

	assert.Panics(t, func() { MustLoad(dir) })
}

func TestValidateRejectsZeroCooldown(t *testing.T) {
	cfg := &Config{
		Public: Public{
			OriginalCooldown: 0,
			ReplyCooldown:    30 * time.Second,
			DefaultBanLength: time.Hour,
			MediaDir:         "/tmp/media",
		},
		Private: Private{Pg: Pg{Host: "localhost", Port: 5432, User: "u", Dbname: "d"}},
	}

	assert.Error(t, Validate(cfg))
}
