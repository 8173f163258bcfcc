// Package config provides a reusable loader for the fabric's environment-
// based configuration: db_url, time resolution, epoch anchor, multicast
// link target, key rotation parameters, compute-pool size, and broadcast
// cadence.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"v2vfabric/pkg/utils"
)

// Settings is the unified configuration for both the authority service
// and a transceiver instance. Unset fields fall back to built-in
// defaults.
type Settings struct {
	DBURL string `mapstructure:"db_url"`

	TimeResolutionMS int    `mapstructure:"time_resolution_ms"`
	MinDatetime      string `mapstructure:"min_datetime"`

	MulticastAddr string `mapstructure:"multicast_addr"`
	MulticastPort int    `mapstructure:"multicast_port"`

	KeyRotationMins       int `mapstructure:"key_rotation_mins"`
	KeyExpirationBufferMS int `mapstructure:"key_expiration_buffer_ms"`

	NumThreads          int `mapstructure:"num_threads"`
	BroadcastPeriodSecs int `mapstructure:"broadcast_period_secs"`

	Port string `mapstructure:"port"`
}

// TimeResolution returns TimeResolutionMS as a time.Duration.
func (s Settings) TimeResolution() time.Duration {
	return time.Duration(s.TimeResolutionMS) * time.Millisecond
}

// KeyInterval returns KeyRotationMins as a time.Duration.
func (s Settings) KeyInterval() time.Duration {
	return time.Duration(s.KeyRotationMins) * time.Minute
}

// KeyExpBuffer returns KeyExpirationBufferMS as a time.Duration.
func (s Settings) KeyExpBuffer() time.Duration {
	return time.Duration(s.KeyExpirationBufferMS) * time.Millisecond
}

// BroadcastPeriod returns BroadcastPeriodSecs as a time.Duration.
func (s Settings) BroadcastPeriod() time.Duration {
	return time.Duration(s.BroadcastPeriodSecs) * time.Second
}

// Epoch parses MinDatetime as an RFC 3339 timestamp.
func (s Settings) Epoch() (time.Time, error) {
	return time.Parse(time.RFC3339, s.MinDatetime)
}

// AppSettings holds the configuration loaded via Load.
var AppSettings Settings

func setDefaults() {
	viper.SetDefault("db_url", "memory://authority")
	viper.SetDefault("time_resolution_ms", 500)
	viper.SetDefault("min_datetime", "2020-01-01T00:00:00Z")
	viper.SetDefault("multicast_addr", "224.0.0.250")
	viper.SetDefault("multicast_port", 1935)
	viper.SetDefault("key_rotation_mins", 5)
	viper.SetDefault("key_expiration_buffer_ms", 500)
	viper.SetDefault("num_threads", 5)
	viper.SetDefault("broadcast_period_secs", 1)
	viper.SetDefault("port", "8090")
}

// Load reads V2V_-prefixed environment variables over the built-in
// defaults into AppSettings and returns it. A missing .env file is not an
// error; env vars and defaults are sufficient to run.
func Load() (*Settings, error) {
	_ = godotenv.Load() // optional; env vars and defaults suffice without it

	setDefaults()
	viper.SetEnvPrefix("v2v")
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppSettings); err != nil {
		return nil, utils.Wrap(err, "unmarshal settings")
	}
	return &AppSettings, nil
}
