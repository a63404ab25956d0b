package configs

// PostgresAuthConfig carries the database credentials.
type PostgresAuthConfig struct {
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
}

// PostgresConfig carries connection settings for the primary database.
type PostgresConfig struct {
	Host               string             `mapstructure:"host" validate:"required"`
	Port               int                `mapstructure:"port" validate:"required"`
	DbName             string             `mapstructure:"db_name" validate:"required"`
	Auth               PostgresAuthConfig `mapstructure:"auth" validate:"required"`
	SslMode            string             `mapstructure:"ssl_mode"`
	MaxOpenConnection  int                `mapstructure:"max_open_connection"`
	MaxIdealConnection int                `mapstructure:"max_ideal_connection"`
}

// RedisConfig carries connection settings for the cache.
type RedisConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

// AssetStoreConfig carries the object storage location for voice samples and
// generated clips, plus how long presigned links stay valid.
type AssetStoreConfig struct {
	Bucket          string `mapstructure:"bucket" validate:"required"`
	Region          string `mapstructure:"region" validate:"required"`
	Endpoint        string `mapstructure:"endpoint"`
	SignedUrlExpiry int    `mapstructure:"signed_url_expiry"` // seconds
}

// SynthesisConfig points at the external speech synthesis backend.
type SynthesisConfig struct {
	Host    string `mapstructure:"host" validate:"required"`
	ApiKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // seconds
}
