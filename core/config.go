package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Addr            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		DisableTLS    bool
	}

	// FrontendConfig holds the redirect targets used by the route guards.
	// The pages themselves are rendered by the frontend; the API only ever
	// redirects to them.
	FrontendConfig struct {
		LoginPath     string
		SignupPath    string
		DashboardPath string
		BannedPath    string
	}

	Config struct {
		AppName       string
		Env           string
		Debug         bool
		TestMode      bool
		Build         string
		SecretKey     string
		SessionMaxAge time.Duration
		RollbarToken  string

		Server   ServerConfig
		Database DatabaseConfig
		Frontend FrontendConfig
	}
)

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Kongamano")
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "w3n!kongamano-x7$dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("sessionMaxAge", 7*24*time.Hour)
	v.SetDefault("rollbarToken", "")

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("serverDebugHost", "localhost:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "kongamano")
	v.SetDefault("dbUser", "kongamano")
	v.SetDefault("dbPassword", "kongamano")
	v.SetDefault("dbAdminUser", "")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("frontendLoginPath", "/google/login")
	v.SetDefault("frontendSignupPath", "/signup")
	v.SetDefault("frontendDashboardPath", "/dashboard")
	v.SetDefault("frontendBannedPath", "/fizzbuzz")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:       v.GetString("appName"),
		Env:           env,
		Debug:         v.GetBool("debug"),
		TestMode:      testMode,
		Build:         v.GetString("build"),
		SecretKey:     v.GetString("secretKey"),
		SessionMaxAge: v.GetDuration("sessionMaxAge"),
		RollbarToken:  v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			Addr:            v.GetString("serverAddr"),
			DebugHost:       v.GetString("serverDebugHost"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Frontend: FrontendConfig{
			LoginPath:     v.GetString("frontendLoginPath"),
			SignupPath:    v.GetString("frontendSignupPath"),
			DashboardPath: v.GetString("frontendDashboardPath"),
			BannedPath:    v.GetString("frontendBannedPath"),
		},
	}
}
