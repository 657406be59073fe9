package config

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Port          int           `mapstructure:"port"`
	LobbyUpstream string        `mapstructure:"lobby_upstream"`
	GameUpstream  string        `mapstructure:"game_upstream"`
	ReadLimit     int64         `mapstructure:"read_limit"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	Log           LogConfig     `mapstructure:"log"`
	Hax           HaxConfig     `mapstructure:"hax"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// TracePath enables the full-payload log. Keep it on disk only: payloads carry
	// other players' identities.
	TracePath string `mapstructure:"trace_path"`
}

type HaxConfig struct {
	StripPasswords    bool     `mapstructure:"strip_passwords"`
	ShowMobileGames   bool     `mapstructure:"show_mobile_games"`
	ShowOtherVersions bool     `mapstructure:"show_other_versions"`
	RPCMethods        []string `mapstructure:"rpc_methods"`
}

// Loader keeps the viper instance around so the file can be watched.
type Loader struct {
	v      *viper.Viper
	loaded bool
}

func Load() (*Config, *Loader, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, *Loader, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("lobby_upstream", "wss://ns.exitgames.com:19093")
	v.SetDefault("game_upstream", "wss://gameserver.exitgames.com:19091")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("dial_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.trace_path", "")
	v.SetDefault("hax.strip_passwords", false)
	v.SetDefault("hax.show_mobile_games", false)
	v.SetDefault("hax.show_other_versions", false)

	l := &Loader{v: v}
	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		l.loaded = true
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("config ready")
	return cfg, l, nil
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Watch calls onChange with the re-read config whenever the file changes.
// It is a no-op when no file was loaded.
func (l *Loader) Watch(onChange func(*Config)) {
	if !l.loaded {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.decode()
		if err != nil {
			log.Error().Err(err).Str("module", "config").Str("file", e.Name).Msg("reload failed")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Msg("config reloaded")
		onChange(cfg)
	})
	l.v.WatchConfig()
}
