// Package config loads casetrack settings from .env, YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"casetrack/internal/domain"
	"casetrack/internal/etl"
)

const (
	configFileName = "casetrack"
	configFileType = "yaml"
	envPrefix      = "CASETRACK"

	// Config keys.
	cfgKeySourceURLs      = "sources.urls"
	cfgKeySourceFiles     = "sources.files"
	cfgKeyRepoDriver      = "repository.driver"
	cfgKeyRepoHost        = "repository.host"
	cfgKeyRepoPort        = "repository.port"
	cfgKeyRepoDatabase    = "repository.database"
	cfgKeyRepoUsername    = "repository.username"
	cfgKeyRepoSSLMode     = "repository.ssl_mode"
	cfgKeyRepoTable       = "repository.table"
	cfgKeyRepoRegion      = "repository.region"
	cfgKeyRepoEndpoint    = "repository.endpoint"
	cfgKeyRepoPassword    = "repository.password_source"
	cfgKeyArtifactSink    = "artifact.sink"
	cfgKeyArtifactDir     = "artifact.dir"
	cfgKeyArtifactBucket  = "artifact.bucket"
	cfgKeyArtifactPrefix  = "artifact.prefix"
	cfgKeyArtifactRegion  = "artifact.region"
	cfgKeyArtifactEndpt   = "artifact.endpoint"
	cfgKeyArtifactXLSX    = "artifact.xlsx"
	cfgKeyNotifyTopic     = "notify.topic_arn"
	cfgKeyNotifyRegion    = "notify.region"
	cfgKeyNotifyEndpoint  = "notify.endpoint"
	cfgKeyStateDBPath     = "state.db_path"
	cfgKeySchedule        = "schedule"
	cfgKeyLogLevel        = "log.level"
	cfgKeyLogJSON         = "log.json"
	cfgKeyDashboardAddr   = "dashboard.addr"
	defaultSchedule       = "@daily"
	defaultDashboardAddr  = "127.0.0.1:8080"
	defaultArtifactSink   = "file"
	defaultRepoDriver     = "sqlite"
	defaultPasswordSource = "env"
)

// Artifact sinks.
const (
	SinkFile = "file"
	SinkS3   = "s3"
	SinkNone = "none"
)

// Sources lists the pipeline inputs. URLs take precedence over Files.
type Sources struct {
	URLs  []string `mapstructure:"urls"`
	Files []string `mapstructure:"files"`
}

// Repository is the record store connection plus where its password lives.
type Repository struct {
	domain.RepositoryConnection `mapstructure:",squash"`
	PasswordSource              string `mapstructure:"password_source"`
}

// Artifact selects where the visualization dataset is published.
type Artifact struct {
	Sink     string `mapstructure:"sink"`
	Dir      string `mapstructure:"dir"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
	// XLSX, when set, is the path of a workbook export written after each run.
	XLSX string `mapstructure:"xlsx"`
}

// Notify configures failure notifications. Without a topic failures are only logged.
type Notify struct {
	TopicARN string `mapstructure:"topic_arn"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

type State struct {
	DBPath string `mapstructure:"db_path"`
}

type Log struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type Dashboard struct {
	Addr string `mapstructure:"addr"`
}

// Config is the full casetrack configuration.
type Config struct {
	Sources    Sources    `mapstructure:"sources"`
	Repository Repository `mapstructure:"repository"`
	Artifact   Artifact   `mapstructure:"artifact"`
	Notify     Notify     `mapstructure:"notify"`
	State      State      `mapstructure:"state"`
	Schedule   string     `mapstructure:"schedule"`
	Log        Log        `mapstructure:"log"`
	Dashboard  Dashboard  `mapstructure:"dashboard"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-"`
}

// DataDir is where local state lives by default: $HOME/.casetrack.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".casetrack"
	}
	return filepath.Join(home, ".casetrack")
}

func setDefaults(v *viper.Viper) {
	dataDir := DataDir()
	v.SetDefault(cfgKeySourceURLs, []string{})
	v.SetDefault(cfgKeySourceFiles, []string{})
	v.SetDefault(cfgKeyRepoDriver, defaultRepoDriver)
	v.SetDefault(cfgKeyRepoHost, filepath.Join(dataDir, "records.db"))
	v.SetDefault(cfgKeyRepoPort, 0)
	v.SetDefault(cfgKeyRepoDatabase, "")
	v.SetDefault(cfgKeyRepoUsername, "")
	v.SetDefault(cfgKeyRepoSSLMode, "")
	v.SetDefault(cfgKeyRepoTable, domain.DefaultTable)
	v.SetDefault(cfgKeyRepoRegion, "")
	v.SetDefault(cfgKeyRepoEndpoint, "")
	v.SetDefault(cfgKeyRepoPassword, defaultPasswordSource)
	v.SetDefault(cfgKeyArtifactSink, defaultArtifactSink)
	v.SetDefault(cfgKeyArtifactDir, filepath.Join(dataDir, "site"))
	v.SetDefault(cfgKeyArtifactBucket, "")
	v.SetDefault(cfgKeyArtifactPrefix, "")
	v.SetDefault(cfgKeyArtifactRegion, "")
	v.SetDefault(cfgKeyArtifactEndpt, "")
	v.SetDefault(cfgKeyArtifactXLSX, "")
	v.SetDefault(cfgKeyNotifyTopic, "")
	v.SetDefault(cfgKeyNotifyRegion, "")
	v.SetDefault(cfgKeyNotifyEndpoint, "")
	v.SetDefault(cfgKeyStateDBPath, filepath.Join(dataDir, "state.db"))
	v.SetDefault(cfgKeySchedule, defaultSchedule)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogJSON, false)
	v.SetDefault(cfgKeyDashboardAddr, defaultDashboardAddr)
}

// bindLegacyEnv also accepts the plain variable names used by Lambda
// deployments (TABLE, WEBSITE_BUCKET, ERROR_TOPIC_ARN).
func bindLegacyEnv(v *viper.Viper) error {
	legacy := map[string]string{
		cfgKeyRepoTable:      "TABLE",
		cfgKeyArtifactBucket: "WEBSITE_BUCKET",
		cfgKeyNotifyTopic:    "ERROR_TOPIC_ARN",
	}
	for key, name := range legacy {
		primary := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, primary, name); err != nil {
			return err
		}
	}
	return nil
}

// Load reads configuration in increasing priority: defaults, the YAML
// file, then environment variables. A .env file in the working directory
// is loaded into the environment first when present. path selects the
// YAML file explicitly; otherwise casetrack.yaml is searched in the working
// directory and in DataDir. A missing file is not an error unless path was given.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
		v.AddConfigPath(DataDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	// Lambda deployments name the two inputs JH_DATA_URL and NYT_DATA_URL.
	if len(cfg.Sources.URLs) == 0 {
		jh, nyt := os.Getenv("JH_DATA_URL"), os.Getenv("NYT_DATA_URL")
		if jh != "" && nyt != "" {
			cfg.Sources.URLs = []string{jh, nyt}
		}
	}
	return cfg, nil
}

// Validate checks the settings needed to run the pipeline.
func (c *Config) Validate() error {
	if len(c.Sources.URLs) == 0 && len(c.Sources.Files) == 0 {
		return &etl.ConfigurationError{Reason: "neither source URLs nor files were supplied"}
	}
	switch c.Repository.Driver {
	case domain.RepositoryDriverSQLite, domain.RepositoryDriverPostgres, domain.RepositoryDriverMySQL,
		domain.RepositoryDriverMongoDB, domain.RepositoryDriverDynamoDB, domain.RepositoryDriverMemory:
	default:
		return &etl.ConfigurationError{Reason: fmt.Sprintf("unknown repository driver %q", c.Repository.Driver)}
	}
	switch c.Artifact.Sink {
	case SinkFile:
		if c.Artifact.Dir == "" {
			return &etl.ConfigurationError{Reason: "artifact.dir is required for the file sink"}
		}
	case SinkS3:
		if c.Artifact.Bucket == "" {
			return &etl.ConfigurationError{Reason: "artifact.bucket is required for the s3 sink"}
		}
	case SinkNone:
	default:
		return &etl.ConfigurationError{Reason: fmt.Sprintf("unknown artifact sink %q", c.Artifact.Sink)}
	}
	return nil
}

// Extract returns the pipeline inputs.
func (c *Config) Extract() etl.Extract {
	return etl.Extract{URLs: c.Sources.URLs, Files: c.Sources.Files}
}
