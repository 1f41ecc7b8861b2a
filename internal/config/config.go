// Package config loads host-process tunables (watchdog timeout,
// oscillation cap, concurrency thresholds, storage paths, observer
// transport address) via viper, layering defaults, an optional config
// file, and environment variable overrides — the kernel itself never
// reads this package directly.
package config

import (
	"log"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds every host-level tunable. Kernel semantics (§3-§9 of the
// design) never depend on these values beyond what is explicitly passed
// into sim.Config.
type Config struct {
	Port string

	OscillationCap     int
	WatchdogTimeout    time.Duration
	ParallelThreshold  int
	ComponentWorkers   int
	VNETWorkers        int

	RunHistoryDBPath string

	ObserverAddr string
}

// Load builds a Config from defaults, an optional file at configPath,
// and environment variables (the latter two overriding the former in
// that order). A subset of tunables — oscillation cap and watchdog
// timeout — are hot-reloadable via fsnotify if a config file is in use;
// the identifier scheme and file format are never reloadable.
func Load(configPath string) (*Config, func(func(Config)), error) {
	viper.SetDefault("port", "7090")
	viper.SetDefault("oscillation_cap", 50)
	viper.SetDefault("watchdog_timeout", "10s")
	viper.SetDefault("parallel_threshold", 2000)
	viper.SetDefault("component_workers", 4)
	viper.SetDefault("vnet_workers", 2)
	viper.SetDefault("run_history_db_path", "data/relaysim.db")
	viper.SetDefault("observer_addr", ":7091")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("relaysim")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("data")
		viper.AddConfigPath("$HOME/.relaysim")
		viper.AddConfigPath("/etc/relaysim")
	}

	haveFile := true
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			haveFile = false
			log.Printf("no config file found, using defaults and environment variables")
		} else {
			return nil, nil, err
		}
	} else {
		log.Printf("using config file: %s", viper.ConfigFileUsed())
	}

	viper.SetEnvPrefix("relaysim")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	cfg := fromViper()

	watch := func(onChange func(Config)) {
		if !haveFile {
			return
		}
		viper.OnConfigChange(func(in fsnotify.Event) {
			log.Printf("config file changed: %s", in.Name)
			onChange(fromViper())
		})
		viper.WatchConfig()
	}

	return &cfg, watch, nil
}

func fromViper() Config {
	return Config{
		Port:              viper.GetString("port"),
		OscillationCap:    viper.GetInt("oscillation_cap"),
		WatchdogTimeout:   viper.GetDuration("watchdog_timeout"),
		ParallelThreshold: viper.GetInt("parallel_threshold"),
		ComponentWorkers:  viper.GetInt("component_workers"),
		VNETWorkers:       viper.GetInt("vnet_workers"),
		RunHistoryDBPath:  viper.GetString("run_history_db_path"),
		ObserverAddr:      viper.GetString("observer_addr"),
	}
}
