// Package config loads and validates pgpool's configuration: spf13/viper
// decodes the file (via mapstructure under the hood), and
// go-playground/validator enforces field bounds before the pooler is
// allowed to start.
package config

// RouteConfig describes one statically configured route: the
// (database, user) identity clients present, the upstream it maps to,
// and its own pool sizing overriding the pooler-wide defaults.
type RouteConfig struct {
	Database     string `mapstructure:"database" validate:"required"`
	User         string `mapstructure:"user" validate:"required"`
	UpstreamHost string `mapstructure:"upstream_host" validate:"required"`
	UpstreamPort int    `mapstructure:"upstream_port" validate:"required,gt=0,lte=65535"`
	PoolTTL      int    `mapstructure:"pool_ttl" validate:"gte=0"`
	PoolSize     int    `mapstructure:"pool_size" validate:"gte=0"`
}

// Config holds every option the pooler recognises, including the static
// route list.
type Config struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"required,gt=0,lte=65535"`

	Backlog int  `mapstructure:"backlog" validate:"gte=0"`
	NoDelay bool `mapstructure:"nodelay"`

	// KeepAlive is the idle-seconds interval for TCP keepalive; 0
	// disables it.
	KeepAlive int  `mapstructure:"keepalive" validate:"gte=0"`
	ReadAhead int  `mapstructure:"readahead" validate:"gte=0"`
	TLSVerify bool `mapstructure:"tls_verify"`

	// LogStatistics is the period, in seconds, between statistics
	// emissions; 0 disables them entirely.
	LogStatistics int `mapstructure:"log_statistics" validate:"gte=0"`

	// PoolTTL and PoolSize are the defaults dynamic routes inherit when
	// no static entry matches a (database, user) pair.
	PoolTTL  int `mapstructure:"pool_ttl" validate:"gte=0"`
	PoolSize int `mapstructure:"pool_size" validate:"gte=0"`

	// PendingLimit is the default route.Policy.PendingLimit; see
	// internal/route's doc comment for its semantics.
	PendingLimit int `mapstructure:"pending_limit" validate:"gte=0"`

	// AllowDynamicRoutes, when false, makes attach() return
	// poolerr.ErrNoRoute for any (database, user) pair not listed in
	// Routes.
	AllowDynamicRoutes bool `mapstructure:"allow_dynamic_routes"`

	// DefaultUpstreamHost/Port is where a dynamically created route
	// dials, since it has no RouteConfig of its own to name one.
	DefaultUpstreamHost string `mapstructure:"default_upstream_host"`
	DefaultUpstreamPort int    `mapstructure:"default_upstream_port" validate:"omitempty,gt=0,lte=65535"`

	Routes []RouteConfig `mapstructure:"routes" validate:"dive"`

	// PeriodicIntervalMS is how often Periodic ticks, in milliseconds;
	// defaults to one second (1000).
	PeriodicIntervalMS int `mapstructure:"periodic_interval_ms" validate:"gte=0"`

	LogFile    string `mapstructure:"log_file"`
	LogConsole bool   `mapstructure:"log_console"`
	LogLevel   string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns the built-in defaults applied before a config file is
// merged in.
func Default() Config {
	return Config{
		Host:                "0.0.0.0",
		Port:                6432,
		Backlog:             128,
		NoDelay:             true,
		ReadAhead:           8192,
		LogStatistics:       1,
		PoolSize:            20,
		PendingLimit:        0,
		AllowDynamicRoutes:  true,
		DefaultUpstreamHost: "127.0.0.1",
		DefaultUpstreamPort: 5432,
		PeriodicIntervalMS:  1000,
		LogConsole:          true,
		LogLevel:            "info",
	}
}
