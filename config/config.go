package config

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/zeu5/lab-rl/lab"
	"github.com/zeu5/lab-rl/types"
)

const EnvPrefix = "LABRL"

type LabConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	ResetPath string        `mapstructure:"reset-path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type LearningConfig struct {
	Episodes int     `mapstructure:"episodes"`
	Alpha    float64 `mapstructure:"alpha"`
	Gamma    float64 `mapstructure:"gamma"`
	Epsilon  float64 `mapstructure:"epsilon"`
	Reward   float64 `mapstructure:"reward"`
	Horizon  int     `mapstructure:"horizon"`
	Seed     uint64  `mapstructure:"seed"`
}

type DiscretizationConfig struct {
	LightLevel []float64 `mapstructure:"light-level"`
	Sunshine   []float64 `mapstructure:"sunshine"`
}

type SimulatorConfig struct {
	Listen string `mapstructure:"listen"`
	Seed   uint64 `mapstructure:"seed"`
}

type Config struct {
	Debug          bool                 `mapstructure:"debug"`
	Quiet          bool                 `mapstructure:"quiet"`
	Logfile        string               `mapstructure:"logfile"`
	Listen         string               `mapstructure:"listen"`
	Lab            LabConfig            `mapstructure:"lab"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Learning       LearningConfig       `mapstructure:"learning"`
	Discretization DiscretizationConfig `mapstructure:"discretization"`
	Simulator      SimulatorConfig      `mapstructure:"simulator"`

	Logger types.Logger `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("quiet", false)
	v.SetDefault("logfile", "")
	v.SetDefault("listen", "127.0.0.1:8080")

	v.SetDefault("lab.url", "http://127.0.0.1:8090/td")
	v.SetDefault("lab.timeout", 5*time.Second)
	v.SetDefault("lab.reset-path", "")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "labrl")

	v.SetDefault("learning.episodes", 100)
	v.SetDefault("learning.alpha", 0.1)
	v.SetDefault("learning.gamma", 0.9)
	v.SetDefault("learning.epsilon", 0.4)
	v.SetDefault("learning.reward", 100.0)
	v.SetDefault("learning.horizon", 0)
	v.SetDefault("learning.seed", 0)

	v.SetDefault("discretization.light-level", lab.DefaultLightThresholds)
	v.SetDefault("discretization.sunshine", lab.DefaultSunshineThresholds)

	v.SetDefault("simulator.listen", "127.0.0.1:8090")
	v.SetDefault("simulator.seed", 0)
}

// ReadConfig reads config.yaml from configDir (when present) and the
// LABRL_ prefixed environment, on top of the defaults
func ReadConfig(v *viper.Viper, configDir string) (*Config, error) {
	setDefaults(v)

	if configDir != "" {
		v.AddConfigPath(configDir)
		v.SetConfigType("yaml")
		v.SetConfigName("config.yaml")
		// If a config file is found, read it in.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	// Set the prefix for vars so we get only the ones starting with LABRL
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.LearningParams().Validate(); err != nil {
		return nil, err
	}
	cfg.Logger = NewLogger(cfg)
	return cfg, nil
}

// NewLogger creates the logrus logger described by the configuration
func NewLogger(cfg *Config) types.Logger {
	logger := types.NewLogger()
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Set formatter so both file and stdout format are equal
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: false,
		FullTimestamp:    true,
	})

	var out io.Writer = os.Stdout
	if cfg.Quiet {
		out = io.Discard
	}
	if cfg.Logfile != "" {
		f, err := os.OpenFile(cfg.Logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			logger.Errorf("Could not open %s for logging to file: %s", cfg.Logfile, err.Error())
		} else if cfg.Quiet {
			out = f
		} else {
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	logger.SetOutput(out)
	return logger
}

func (c *Config) LearningParams() types.LearningParams {
	return types.LearningParams{
		Episodes: c.Learning.Episodes,
		Alpha:    c.Learning.Alpha,
		Gamma:    c.Learning.Gamma,
		Epsilon:  c.Learning.Epsilon,
		Reward:   c.Learning.Reward,
		Horizon:  c.Learning.Horizon,
	}
}

func (c *Config) LabConfig() lab.Config {
	return lab.Config{
		URL:                c.Lab.URL,
		Timeout:            c.Lab.Timeout,
		ResetPath:          c.Lab.ResetPath,
		LightThresholds:    c.Discretization.LightLevel,
		SunshineThresholds: c.Discretization.Sunshine,
	}
}

func (c *Config) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}
