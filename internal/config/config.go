package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	Game       GameConfig       `mapstructure:"game"`
	SessionLog SessionLogConfig `mapstructure:"session_log"`
	Transport  TransportConfig  `mapstructure:"transport"`
}

// GameConfig 是每个房间状态机使用的规则参数
type GameConfig struct {
	MaxPlayers      int           `mapstructure:"max_players"`
	MinPlayers      int           `mapstructure:"min_players"`
	MaxRounds       int           `mapstructure:"max_rounds"`
	RoundSeconds    int           `mapstructure:"round_seconds"`
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"`
	GuessAward      int           `mapstructure:"guess_award"`
	DrawerAward     int           `mapstructure:"drawer_award"`
	WordListFile    string        `mapstructure:"word_list_file"`
	AvoidRepeats    int           `mapstructure:"avoid_repeats"`
	RoomIdleTTL     time.Duration `mapstructure:"room_idle_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type SessionLogConfig struct {
	// none | sqlite | postgres
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Buffer int    `mapstructure:"buffer"`
}

type TransportConfig struct {
	MessagesPerSecond float64       `mapstructure:"messages_per_second"`
	Burst             int           `mapstructure:"burst"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	HeartbeatTimeout  time.Duration `mapstructure:"heartbeat_timeout"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

// InitConfig 从当前目录的 app_config.json 加载配置，文件不存在时使用默认值
func InitConfig() *AppConfig {
	c, err := Load("")
	if err != nil {
		panic(fmt.Errorf("加载配置失败: %w", err))
	}

	return c
}

// Load reads the config file at path, or app_config.json from the working
// directory when path is empty. A missing default file is not an error.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DRAWGUESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app_config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.Game.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	d := DefaultGameConfig()
	v.SetDefault("game.max_players", d.MaxPlayers)
	v.SetDefault("game.min_players", d.MinPlayers)
	v.SetDefault("game.max_rounds", d.MaxRounds)
	v.SetDefault("game.round_seconds", d.RoundSeconds)
	v.SetDefault("game.tick_interval", d.TickInterval)
	v.SetDefault("game.settle_delay", d.SettleDelay)
	v.SetDefault("game.guess_award", d.GuessAward)
	v.SetDefault("game.drawer_award", d.DrawerAward)
	v.SetDefault("game.word_list_file", d.WordListFile)
	v.SetDefault("game.avoid_repeats", d.AvoidRepeats)
	v.SetDefault("game.room_idle_ttl", d.RoomIdleTTL)
	v.SetDefault("game.cleanup_interval", d.CleanupInterval)

	v.SetDefault("session_log.driver", "none")
	v.SetDefault("session_log.dsn", "")
	v.SetDefault("session_log.buffer", 256)

	v.SetDefault("transport.messages_per_second", 30.0)
	v.SetDefault("transport.burst", 60)
	v.SetDefault("transport.heartbeat_interval", 30*time.Second)
	v.SetDefault("transport.heartbeat_timeout", 45*time.Second)
}

func DefaultGameConfig() GameConfig {
	return GameConfig{
		MaxPlayers:      8,
		MinPlayers:      2,
		MaxRounds:       5,
		RoundSeconds:    60,
		TickInterval:    time.Second,
		SettleDelay:     3 * time.Second,
		GuessAward:      10,
		DrawerAward:     10,
		RoomIdleTTL:     5 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

func (g GameConfig) Validate() error {
	switch {
	case g.MaxPlayers < 2:
		return errors.New("game.max_players must be at least 2")
	case g.MinPlayers < 1 || g.MinPlayers > g.MaxPlayers:
		return errors.New("game.min_players must be between 1 and game.max_players")
	case g.MaxRounds < 1:
		return errors.New("game.max_rounds must be at least 1")
	case g.RoundSeconds < 1:
		return errors.New("game.round_seconds must be at least 1")
	case g.TickInterval <= 0:
		return errors.New("game.tick_interval must be positive")
	case g.SettleDelay < 0:
		return errors.New("game.settle_delay cannot be negative")
	case g.GuessAward < 0 || g.DrawerAward < 0:
		return errors.New("awards cannot be negative")
	}

	return nil
}
