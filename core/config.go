package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultMaxAttendancePerSemester = 14

type (
	Config struct {
		Debug     bool
		TestMode  bool
		Env       string
		Build     string
		AppName   string
		SecretKey string

		JWTExpirationDelta time.Duration

		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address

		Server     ServerConfig
		Database   DatabaseConfig
		Attendance AttendanceConfig
	}

	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
		LoginRateLimit  float64 // requests per second, per client IP
		LoginRateBurst  int
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite3
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite3 only
	}

	AttendanceConfig struct {
		// MaxPerSemester bounds the attendance records of one (student, course, semester).
		MaxPerSemester int
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

func (dbc DatabaseConfig) IsSQLite() bool {
	return dbc.Engine == "sqlite3"
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` and the environment.
// Environment variables are prefixed with the upper-cased ENV (DEV, TEST, QA, PROD),
// nested keys use "_" as separator: DEV_ATTENDANCE_MAXPERSEMESTER=10.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "AdminZone")
	v.SetDefault("secretKey", "s3cr3t-dev-k3y:d0-n0t-us3-1n-pr0d")
	v.SetDefault("jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "AdminZone <noreply@localhost>")

	v.SetDefault("server.host", ":8080")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.loginRateLimit", 5.0)
	v.SetDefault("server.loginRateBurst", 10)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "adminzone")
	v.SetDefault("database.user", "adminzone")
	v.SetDefault("database.password", "adminzone")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "adminzone.db")

	v.SetDefault("attendance.maxPerSemester", defaultMaxAttendancePerSemester)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		Env:                env,
		Build:              v.GetString("build"),
		AppName:            v.GetString("appName"),
		SecretKey:          v.GetString("secretKey"),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		RollbarToken:       v.GetString("rollbarToken"),
		SendgridApiKey:     v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
			LoginRateLimit:  v.GetFloat64("server.loginRateLimit"),
			LoginRateBurst:  v.GetInt("server.loginRateBurst"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
		},
		Attendance: AttendanceConfig{
			MaxPerSemester: v.GetInt("attendance.maxPerSemester"),
		},
	}

	if conf.Attendance.MaxPerSemester <= 0 {
		conf.Attendance.MaxPerSemester = defaultMaxAttendancePerSemester
	}
	if from, err := mail.ParseAddress(v.GetString("defaultFromEmail")); err == nil {
		conf.DefaultFromEmail = *from
	} else {
		conf.DefaultFromEmail = mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
	}
	return conf
}

// NewTestConfig returns a Config for tests: sqlite3 engine, no debug output, testMode on.
func NewTestConfig(dbPath string) *Config {
	return &Config{
		TestMode:           true,
		Env:                "TEST",
		Build:              "test",
		AppName:            "AdminZone",
		SecretKey:          "t3st-s3cr3t",
		JWTExpirationDelta: time.Hour,
		DefaultFromEmail:   mail.Address{Name: "AdminZone", Address: "noreply@localhost"},
		Server: ServerConfig{
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
			LoginRateLimit:  1000,
			LoginRateBurst:  1000,
		},
		Database: DatabaseConfig{
			Engine: "sqlite3",
			Path:   dbPath,
		},
		Attendance: AttendanceConfig{MaxPerSemester: defaultMaxAttendancePerSemester},
	}
}
