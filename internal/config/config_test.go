package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casetrack/internal/domain"
	"casetrack/internal/etl"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, domain.RepositoryDriverSQLite, cfg.Repository.Driver)
	assert.Equal(t, filepath.Join(home, ".casetrack", "records.db"), cfg.Repository.Host)
	assert.Equal(t, domain.DefaultTable, cfg.Repository.Table)
	assert.Equal(t, "env", cfg.Repository.PasswordSource)
	assert.Equal(t, SinkFile, cfg.Artifact.Sink)
	assert.Equal(t, "@daily", cfg.Schedule)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:8080", cfg.Dashboard.Addr)
	assert.Empty(t, cfg.Sources.URLs)

	var cerr *etl.ConfigurationError
	assert.ErrorAs(t, cfg.Validate(), &cerr)
}

func TestLoad_FileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "casetrack.yaml")
	yaml := `
sources:
  files: [a.csv, b.csv]
repository:
  driver: postgres
  host: db.internal
  port: 5432
  ssl_mode: require
artifact:
  sink: s3
  bucket: site
  prefix: covid
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CASETRACK_LOG_LEVEL", "warn")
	t.Setenv("ERROR_TOPIC_ARN", "arn:aws:sns:us-east-1:123:errors")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, []string{"a.csv", "b.csv"}, cfg.Sources.Files)
	assert.Equal(t, domain.RepositoryDriverPostgres, cfg.Repository.Driver)
	assert.Equal(t, 5432, cfg.Repository.Port)
	assert.Equal(t, "require", cfg.Repository.SSLMode)
	assert.Equal(t, "covid", cfg.Artifact.Prefix)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:errors", cfg.Notify.TopicARN)
	assert.NoError(t, cfg.Validate())

	ex := cfg.Extract()
	assert.Equal(t, []string{"a.csv", "b.csv"}, ex.Files)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_LegacyURLs(t *testing.T) {
	isolate(t)
	t.Setenv("JH_DATA_URL", "https://example.com/jh.csv")
	t.Setenv("NYT_DATA_URL", "https://example.com/nyt.csv")
	t.Setenv("TABLE", "legacy")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/jh.csv", "https://example.com/nyt.csv"}, cfg.Sources.URLs)
	assert.Equal(t, "legacy", cfg.Repository.Table)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("CASETRACK_SCHEDULE=@hourly\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CASETRACK_SCHEDULE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "@hourly", cfg.Schedule)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Sources:    Sources{Files: []string{"x.csv"}},
			Repository: Repository{RepositoryConnection: domain.RepositoryConnection{Driver: domain.RepositoryDriverMemory}},
			Artifact:   Artifact{Sink: SinkNone},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"unknown driver", func(c *Config) { c.Repository.Driver = "oracle" }, false},
		{"file sink without dir", func(c *Config) { c.Artifact.Sink = SinkFile }, false},
		{"s3 sink without bucket", func(c *Config) { c.Artifact.Sink = SinkS3 }, false},
		{"unknown sink", func(c *Config) { c.Artifact.Sink = "ftp" }, false},
		{"urls only", func(c *Config) { c.Sources = Sources{URLs: []string{"http://x"}} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var cerr *etl.ConfigurationError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}
