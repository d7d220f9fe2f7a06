package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Redis      RedisConfig
	Grid       GridConfig
	Fleet      FleetConfig
	AutoOrders AutoOrdersConfig `mapstructure:"auto_orders"`
	Routing    RoutingConfig
}

type ServerConfig struct {
	Addr string
}

type DBConfig struct {
	Driver   string // "memory" or "postgres"
	User     string
	Password string
	DBName   string
	SSLMode  string
	Host     string
	Port     string
	Migrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type GridConfig struct {
	Precision uint
}

type FleetConfig struct {
	CenterLat float64 `mapstructure:"center_lat"`
	CenterLon float64 `mapstructure:"center_lon"`
	Count     int
	RadiusM   float64 `mapstructure:"radius_m"`
}

type AutoOrdersConfig struct {
	PickupRadiusM float64 `mapstructure:"pickup_radius_m"`
	DestRadiusM   float64 `mapstructure:"dest_radius_m"`
	MinIntervalS  int     `mapstructure:"min_interval_s"`
	MaxIntervalS  int     `mapstructure:"max_interval_s"`
}

type RoutingConfig struct {
	Provider string // "osrm" or "none"
	BaseURL  string `mapstructure:"base_url"`
	Profile  string
	TimeoutS int `mapstructure:"timeout_s"`
}

var Cfg *Config

func setDefaults() {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("db.driver", "memory")
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("db.migrate", false)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("grid.precision", 6)
	viper.SetDefault("fleet.center_lat", 18.525)
	viper.SetDefault("fleet.center_lon", 73.847)
	viper.SetDefault("fleet.count", 35)
	viper.SetDefault("fleet.radius_m", 2000)
	viper.SetDefault("auto_orders.pickup_radius_m", 3000)
	viper.SetDefault("auto_orders.dest_radius_m", 2000)
	viper.SetDefault("auto_orders.min_interval_s", 10)
	viper.SetDefault("auto_orders.max_interval_s", 60)
	viper.SetDefault("routing.provider", "none")
	viper.SetDefault("routing.profile", "driving")
	viper.SetDefault("routing.timeout_s", 10)
}

func InitConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	setDefaults()

	// A missing config file is fine: the defaults describe a complete
	// memory-backed simulation.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return err
	}
	Cfg = cfg
	return nil
}
