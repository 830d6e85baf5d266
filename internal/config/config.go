// Package config loads the service configuration from configs/config.yml
// with DISTILL_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/modbus"
	"distillation_monitor/internal/models"

	"github.com/spf13/viper"
)

const envPrefix = "DISTILL"

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	DB           DBConfig           `mapstructure:"db"`
	Log          LogConfig          `mapstructure:"log"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Transmission TransmissionConfig `mapstructure:"transmission"`
	Run          RunConfig          `mapstructure:"run"`
	Modbus       ModbusConfig       `mapstructure:"modbus"`
	Equation     EquationConfig     `mapstructure:"equation"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type TransmissionConfig struct {
	BaseIntervalMs int `mapstructure:"base_interval_ms"`
	PlateCount     int `mapstructure:"plate_count"`
}

type RunConfig struct {
	InitialMass        float64  `mapstructure:"initial_mass"`
	InitialComposition *float64 `mapstructure:"initial_composition"`
}

type ModbusConfig struct {
	Port             string  `mapstructure:"port"`
	BaudRate         int     `mapstructure:"baud_rate"`
	DataBits         int     `mapstructure:"data_bits"`
	StopBits         int     `mapstructure:"stop_bits"`
	Parity           string  `mapstructure:"parity"`
	UnitID           uint8   `mapstructure:"unit_id"`
	TimeoutMs        int     `mapstructure:"timeout_ms"`
	TopAddress       uint16  `mapstructure:"top_address"`
	BottomAddress    uint16  `mapstructure:"bottom_address"`
	Scale            float64 `mapstructure:"scale"`
	ConnectAttempts  int     `mapstructure:"connect_attempts"`
	ConnectBackoffMs int     `mapstructure:"connect_backoff_ms"`
}

// EquationConfig mirrors calculation.EquationParams.
type EquationConfig struct {
	A1       float64 `mapstructure:"a1"`
	B1       float64 `mapstructure:"b1"`
	C1       float64 `mapstructure:"c1"`
	A2       float64 `mapstructure:"a2"`
	B2       float64 `mapstructure:"b2"`
	C2       float64 `mapstructure:"c2"`
	A12      float64 `mapstructure:"a12"`
	A21      float64 `mapstructure:"a21"`
	Pressure float64 `mapstructure:"pressure"`
}

func setDefaults(v *viper.Viper) {
	eq := calculation.DefaultEquationParams()
	retry := modbus.DefaultRetryPolicy()

	v.SetDefault("server.port", "8080")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("transmission.base_interval_ms", 1000)
	v.SetDefault("transmission.plate_count", 10)
	v.SetDefault("run.initial_mass", 1000.0)

	v.SetDefault("modbus.port", "")
	v.SetDefault("modbus.baud_rate", 9600)
	v.SetDefault("modbus.data_bits", 8)
	v.SetDefault("modbus.stop_bits", 1)
	v.SetDefault("modbus.parity", "N")
	v.SetDefault("modbus.unit_id", 1)
	v.SetDefault("modbus.timeout_ms", 1000)
	v.SetDefault("modbus.top_address", 0)
	v.SetDefault("modbus.bottom_address", 1)
	v.SetDefault("modbus.scale", 100.0)
	v.SetDefault("modbus.connect_attempts", retry.Attempts)
	v.SetDefault("modbus.connect_backoff_ms", retry.Backoff.Milliseconds())

	v.SetDefault("equation.a1", eq.A1)
	v.SetDefault("equation.b1", eq.B1)
	v.SetDefault("equation.c1", eq.C1)
	v.SetDefault("equation.a2", eq.A2)
	v.SetDefault("equation.b2", eq.B2)
	v.SetDefault("equation.c2", eq.C2)
	v.SetDefault("equation.a12", eq.A12)
	v.SetDefault("equation.a21", eq.A21)
	v.SetDefault("equation.pressure", eq.Pressure)
}

// Load reads config.yml from dir. A missing file is not an error: defaults
// and environment variables still apply.
func Load(dir string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Transmission.BaseIntervalMs <= 0 {
		return Config{}, fmt.Errorf("transmission.base_interval_ms must be > 0, got %d", cfg.Transmission.BaseIntervalMs)
	}
	if err := cfg.EquationParams().Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) BaseInterval() time.Duration {
	return time.Duration(c.Transmission.BaseIntervalMs) * time.Millisecond
}

func (c Config) EquationParams() calculation.EquationParams {
	e := c.Equation
	return calculation.EquationParams{
		A1: e.A1, B1: e.B1, C1: e.C1,
		A2: e.A2, B2: e.B2, C2: e.C2,
		A12: e.A12, A21: e.A21,
		Pressure: e.Pressure,
	}
}

func (c Config) RetryPolicy() modbus.RetryPolicy {
	return modbus.RetryPolicy{
		Attempts: c.Modbus.ConnectAttempts,
		Backoff:  time.Duration(c.Modbus.ConnectBackoffMs) * time.Millisecond,
	}
}

// DefaultSettings seeds the operator settings until the first save.
func (c Config) DefaultSettings() models.Settings {
	m := c.Modbus
	return models.Settings{
		Modbus: models.ModbusSettings{
			Port:          m.Port,
			BaudRate:      m.BaudRate,
			DataBits:      m.DataBits,
			StopBits:      m.StopBits,
			Parity:        strings.ToUpper(m.Parity),
			UnitID:        m.UnitID,
			TimeoutMs:     m.TimeoutMs,
			TopAddress:    m.TopAddress,
			BottomAddress: m.BottomAddress,
			Scale:         m.Scale,
		},
		Run: models.RunSettings{
			PlateCount:         c.Transmission.PlateCount,
			InitialMass:        c.Run.InitialMass,
			InitialComposition: c.Run.InitialComposition,
		},
	}
}
