package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string
		Build        string
		Env          string // DEV (local; default), TEST, QA, PROD
		Debug        bool
		TestMode     bool
		WorkDir      string
		RollbarToken string

		Server   ServerConfig
		Auth     AuthConfig
		Upstream UpstreamConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Profile  ProfileConfig
		Log      LogConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	// AuthConfig holds the identity provider's session token parameters.
	AuthConfig struct {
		SecretKey string
		Issuer    string
	}

	// UpstreamConfig holds the academic-records backend connection parameters.
	UpstreamConfig struct {
		BaseURL  string
		Token    string
		Timeout  time.Duration
		CacheTTL time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Address       string
		Password      string
		DB            int
		ProfilePrefix string
	}

	// ProfileConfig selects where caller profile metadata (stored academic period) lives: postgres, redis or memory.
	ProfileConfig struct {
		Backend string
	}

	LogConfig struct {
		Level      string
		Format     string // json | console
		File       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
)

func (dbc DatabaseConfig) Address() string {
	return dbc.Host + ":" + dbc.Port
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Academia")
	conf.SetDefault("build", "develop")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.readTimeout", 15*time.Second)
	conf.SetDefault("server.writeTimeout", 30*time.Second)
	conf.SetDefault("server.shutdownTimeout", 10*time.Second)
	conf.SetDefault("server.disableReqLogs", false)

	conf.SetDefault("auth.secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("auth.issuer", "")

	conf.SetDefault("upstream.baseURL", "http://localhost:9000/api")
	conf.SetDefault("upstream.token", "")
	conf.SetDefault("upstream.timeout", 30*time.Second)
	conf.SetDefault("upstream.cacheTTL", 5*time.Minute)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "academia")
	conf.SetDefault("database.user", "academia")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "postgres")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("redis.address", "localhost:6379")
	conf.SetDefault("redis.password", "")
	conf.SetDefault("redis.db", 0)
	conf.SetDefault("redis.profilePrefix", "academia:profile:")

	conf.SetDefault("profile.backend", "postgres")

	conf.SetDefault("log.level", "info")
	conf.SetDefault("log.format", "json")
	conf.SetDefault("log.file", "")
	conf.SetDefault("log.maxSizeMB", 100)
	conf.SetDefault("log.maxBackups", 3)
	conf.SetDefault("log.maxAgeDays", 28)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	workDir := Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		Env:          env,
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		WorkDir:      workDir,
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Address:         conf.GetString("server.address"),
			DebugHost:       conf.GetString("server.debugHost"),
			ReadTimeout:     conf.GetDuration("server.readTimeout"),
			WriteTimeout:    conf.GetDuration("server.writeTimeout"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  conf.GetBool("server.disableReqLogs"),
		},
		Auth: AuthConfig{
			SecretKey: conf.GetString("auth.secretKey"),
			Issuer:    conf.GetString("auth.issuer"),
		},
		Upstream: UpstreamConfig{
			BaseURL:  strings.TrimRight(conf.GetString("upstream.baseURL"), "/"),
			Token:    conf.GetString("upstream.token"),
			Timeout:  conf.GetDuration("upstream.timeout"),
			CacheTTL: conf.GetDuration("upstream.cacheTTL"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Address:       conf.GetString("redis.address"),
			Password:      conf.GetString("redis.password"),
			DB:            conf.GetInt("redis.db"),
			ProfilePrefix: conf.GetString("redis.profilePrefix"),
		},
		Profile: ProfileConfig{
			Backend: strings.ToLower(conf.GetString("profile.backend")),
		},
		Log: LogConfig{
			Level:      conf.GetString("log.level"),
			Format:     conf.GetString("log.format"),
			File:       conf.GetString("log.file"),
			MaxSizeMB:  conf.GetInt("log.maxSizeMB"),
			MaxBackups: conf.GetInt("log.maxBackups"),
			MaxAgeDays: conf.GetInt("log.maxAgeDays"),
		},
	}
}
