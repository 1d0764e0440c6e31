package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "TARA_"

type (
	Config struct {
		TelegramAPIToken string   `env:"TOKEN,required"`
		SuperAdminID     int64    `env:"SUPER_ADMIN_ID,required"`
		EnabledHandlers  []string `env:"HANDLERS,default=admin,moderator"`
		LogLevel         int      `env:"LOG_LEVEL,default=4"`
		ACLFile          string   `env:"ACL_FILE"`
		MetricsAddr      string   `env:"METRICS_ADDR,default=:2112"`
		Storage          Storage
		Moderation       Moderation
		Admin            Admin
	}

	Storage struct {
		DotPath string `env:"DOT_PATH,default=~/.tarabot"`
		DBName  string `env:"DB_NAME,default=tarabot.db"`
	}

	Moderation struct {
		NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT,default=10s"`
		MaxParallelSends int           `env:"MAX_PARALLEL_SENDS,default=8"`
	}

	Admin struct {
		PendingTTL time.Duration `env:"PENDING_TTL,default=10m"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

func Load() (Config, error) {
	once.Do(func() {
		cfg := &Config{}
		if err := process(cfg); err != nil {
			globalErr = err
			return
		}
		if err := cfg.Storage.expand(); err != nil {
			globalErr = err
			return
		}
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}

// LoadStorage reads only the storage section, for tools that never talk to Telegram.
func LoadStorage() (Storage, error) {
	st := Storage{}
	if err := process(&st); err != nil {
		return st, err
	}
	return st, st.expand()
}

func process(target any) error {
	envcfg := envconfig.Config{
		Lookuper: envconfig.PrefixLookuper(envPrefix, envconfig.OsLookuper()),
		Target:   target,
	}
	if err := envconfig.ProcessWith(context.Background(), &envcfg); err != nil {
		return fmt.Errorf("process env config: %w", err)
	}
	return nil
}

func (s *Storage) expand() error {
	path, err := homedir.Expand(s.DotPath)
	if err != nil {
		return fmt.Errorf("expand dot path: %w", err)
	}
	s.DotPath = path
	return nil
}
