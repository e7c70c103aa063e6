package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MySQL      MySQLConfig      `mapstructure:"mysql"`
	Leader     LeaderConfig     `mapstructure:"leader"`
	Instance   InstanceConfig   `mapstructure:"instance"`
	Sweeper    SweeperConfig    `mapstructure:"sweeper"`
	Bidding    BiddingConfig    `mapstructure:"bidding"`
	AutoExtend AutoExtendConfig `mapstructure:"auto_extend"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

type SweeperConfig struct {
	// Interval between expiration sweeps. The sweep itself is the only
	// wall-clock coupling the auction core has to its environment.
	Interval time.Duration `mapstructure:"interval"`
}

type BiddingConfig struct {
	// MinIncrement/MaxIncrement bound the distance of a new bid from the
	// current highest bid. Zero disables the corresponding bound.
	MinIncrement string `mapstructure:"min_increment"`
	MaxIncrement string `mapstructure:"max_increment"`
	// AllowRebid selects the supersede policy: a bidder's new qualifying
	// bid replaces their previous one instead of being rejected outright.
	AllowRebid bool `mapstructure:"allow_rebid"`
}

type AutoExtendConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Threshold time.Duration `mapstructure:"threshold"`
	Duration  time.Duration `mapstructure:"duration"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("mysql.dsn", "yoursell_user:yoursell_pass@tcp(localhost:3306)/yoursell_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("leader.ttl", 30*time.Second)
	viper.SetDefault("instance.id", "marketplace-1")
	viper.SetDefault("sweeper.interval", 5*time.Second)
	viper.SetDefault("bidding.min_increment", "0")
	viper.SetDefault("bidding.max_increment", "0")
	viper.SetDefault("bidding.allow_rebid", true)
	viper.SetDefault("auto_extend.enabled", true)
	viper.SetDefault("auto_extend.threshold", time.Minute)
	viper.SetDefault("auto_extend.duration", 10*time.Minute)

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/yoursell/")

	// Environment variable support
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("leader.ttl", "LEADER_TTL")
	viper.BindEnv("instance.id", "INSTANCE_ID")
	viper.BindEnv("sweeper.interval", "SWEEPER_INTERVAL")
	viper.BindEnv("bidding.min_increment", "BIDDING_MIN_INCREMENT")
	viper.BindEnv("bidding.max_increment", "BIDDING_MAX_INCREMENT")
	viper.BindEnv("bidding.allow_rebid", "BIDDING_ALLOW_REBID")
	viper.BindEnv("auto_extend.enabled", "AUTO_EXTEND_ENABLED")
	viper.BindEnv("auto_extend.threshold", "AUTO_EXTEND_THRESHOLD")
	viper.BindEnv("auto_extend.duration", "AUTO_EXTEND_DURATION")

	// Read configuration file (optional - defaults/env vars apply otherwise)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
