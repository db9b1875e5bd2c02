package domain

// RepositoryDriver represents the storage engine holding the records.
type RepositoryDriver string

const (
	RepositoryDriverSQLite   RepositoryDriver = "sqlite"
	RepositoryDriverPostgres RepositoryDriver = "postgres"
	RepositoryDriverMySQL    RepositoryDriver = "mysql"
	RepositoryDriverMongoDB  RepositoryDriver = "mongodb"
	RepositoryDriverDynamoDB RepositoryDriver = "dynamodb"
	RepositoryDriverMemory   RepositoryDriver = "memory"
)

// DefaultTable is the table (or collection) name used when none is configured.
const DefaultTable = "covid_records"

// RepositoryConnection holds the metadata for connecting to the record repository.
// The password is resolved separately through a SecretStore.
type RepositoryConnection struct {
	Driver   RepositoryDriver `json:"driver" mapstructure:"driver"`
	Host     string           `json:"host" mapstructure:"host"`         // hostname, URI (mongodb) or file path (sqlite)
	Port     int              `json:"port" mapstructure:"port"`         // 0 selects the driver default
	Database string           `json:"database" mapstructure:"database"` // db name, empty for sqlite
	Username string           `json:"username" mapstructure:"username"`
	SSLMode  string           `json:"sslMode" mapstructure:"ssl_mode"`
	Table    string           `json:"table" mapstructure:"table"`
	Region   string           `json:"region" mapstructure:"region"`     // dynamodb only
	Endpoint string           `json:"endpoint" mapstructure:"endpoint"` // dynamodb only, for local emulators
}

// TableName returns the configured table or DefaultTable.
func (c *RepositoryConnection) TableName() string {
	if c.Table == "" {
		return DefaultTable
	}
	return c.Table
}
