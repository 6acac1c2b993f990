package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	// DatabaseConfig.Engine is "postgres" or "memory".
	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MaxOpenConns  int
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}

	// TemplateCacheConfig selects the notification template cache: "memory", "redis" or "none".
	TemplateCacheConfig struct {
		Backend string
		TTL     time.Duration
	}

	// MailConfig selects the delivery backend: "console", "smtp", "sendgrid", "ses" or "draft".
	MailConfig struct {
		Backend        string
		SMTPHost       string
		SMTPPort       int
		SMTPUser       string
		SMTPPassword   string
		SendgridAPIKey string
		SESRegion      string
		DraftDir       string
		Retries        uint
		RetryDelay     time.Duration
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	Config struct {
		Env       string
		Build     string
		Debug     bool
		TestMode  bool
		AppName   string
		SecretKey string

		// DefaultLanguage is the language templates fall back to.
		DefaultLanguage  string
		DefaultFromEmail mail.Address

		JWTExpirationDelta time.Duration
		RollbarToken       string
		LogLevel           string
		LogFormat          string

		// PasswordResetTimeoutDelta is how long a password reset link stays valid (whole days).
		PasswordResetTimeoutDelta time.Duration

		// FrontendBaseURL prefixes the links sent by email.
		FrontendBaseURL string

		Database      DatabaseConfig
		Redis         RedisConfig
		TemplateCache TemplateCacheConfig
		Mail          MailConfig
		Server        ServerConfig
	}
)

// Address returns the "host:port" of the database server.
func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewConfig reads the configuration from the environment (and the optional config/.env.<env> file).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Quiz Examination System")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("defaultLanguage", "en")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("senderName", "HR Department")
	v.SetDefault("jwtExpirationDelta", 8*time.Hour)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "console")

	v.SetDefault("database_engine", "postgres")
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", 5432)
	v.SetDefault("database_name", "quizadmin")
	v.SetDefault("database_user", "quizadmin")
	v.SetDefault("database_password", "")
	v.SetDefault("database_adminUser", "")
	v.SetDefault("database_adminPassword", "")
	v.SetDefault("database_disableTLS", true)
	v.SetDefault("database_maxOpenConns", 10)

	v.SetDefault("redis_address", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("templateCache_backend", "memory")
	v.SetDefault("templateCache_ttl", time.Hour)

	v.SetDefault("mail_backend", "console")
	v.SetDefault("mail_smtpHost", "localhost")
	v.SetDefault("mail_smtpPort", 587)
	v.SetDefault("mail_smtpUser", "")
	v.SetDefault("mail_smtpPassword", "")
	v.SetDefault("mail_sendgridApiKey", "")
	v.SetDefault("mail_sesRegion", "eu-central-1")
	v.SetDefault("mail_draftDir", os.TempDir())
	v.SetDefault("mail_retries", 3)
	v.SetDefault("mail_retryDelay", time.Second)

	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_address", ":8000")
	v.SetDefault("server_debugHost", ":4000")
	v.SetDefault("server_shutdownTimeout", 5*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:                env,
		Build:              v.GetString("build"),
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		AppName:            v.GetString("appName"),
		SecretKey:          v.GetString("secretKey"),
		DefaultLanguage:    CleanString(v.GetString("defaultLanguage"), true /* lower */),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		RollbarToken:       v.GetString("rollbarToken"),
		LogLevel:           v.GetString("logLevel"),
		LogFormat:          v.GetString("logFormat"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),

		Database: DatabaseConfig{
			Engine:        v.GetString("database_engine"),
			Host:          v.GetString("database_host"),
			Port:          v.GetInt("database_port"),
			Name:          v.GetString("database_name"),
			User:          v.GetString("database_user"),
			Password:      v.GetString("database_password"),
			AdminUser:     v.GetString("database_adminUser"),
			AdminPassword: v.GetString("database_adminPassword"),
			DisableTLS:    v.GetBool("database_disableTLS"),
			MaxOpenConns:  v.GetInt("database_maxOpenConns"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis_address"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		TemplateCache: TemplateCacheConfig{
			Backend: v.GetString("templateCache_backend"),
			TTL:     v.GetDuration("templateCache_ttl"),
		},
		Mail: MailConfig{
			Backend:        v.GetString("mail_backend"),
			SMTPHost:       v.GetString("mail_smtpHost"),
			SMTPPort:       v.GetInt("mail_smtpPort"),
			SMTPUser:       v.GetString("mail_smtpUser"),
			SMTPPassword:   v.GetString("mail_smtpPassword"),
			SendgridAPIKey: v.GetString("mail_sendgridApiKey"),
			SESRegion:      v.GetString("mail_sesRegion"),
			DraftDir:       v.GetString("mail_draftDir"),
			Retries:        v.GetUint("mail_retries"),
			RetryDelay:     v.GetDuration("mail_retryDelay"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server_host"),
			Address:         v.GetString("server_address"),
			DebugHost:       v.GetString("server_debugHost"),
			ShutdownTimeout: v.GetDuration("server_shutdownTimeout"),
		},
	}
	if conf.DefaultLanguage == "" {
		conf.DefaultLanguage = "en"
	}

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}
	if from.Name == "" {
		from.Name = v.GetString("senderName")
	}
	conf.DefaultFromEmail = *from
	return conf
}
