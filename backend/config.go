package backend

import (
	"os"

	"github.com/dweymouth/autopause/backend/autopause"
	"github.com/dweymouth/autopause/backend/logging"
	"github.com/dweymouth/autopause/res"
	"github.com/pelletier/go-toml/v2"
)

type TargetConfig struct {
	// Well-known bus name of the player to pause and resume.
	BusName string
	// MPRIS Identity the player reports about itself.
	Identity string
}

type LogConfig struct {
	Format string
}

type Config struct {
	Target TargetConfig
	Log    LogConfig
}

// DefaultConfig is used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			BusName:  res.DefaultTargetBusName,
			Identity: res.DefaultTargetIdentity,
		},
		Log: LogConfig{
			Format: logging.FormatConsole,
		},
	}
}

func ReadConfigFile(filepath string) (*Config, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := DefaultConfig()
	if err := toml.NewDecoder(f).Decode(c); err != nil {
		return nil, err
	}

	// Backfill empty values so a partial file still names a target
	def := DefaultConfig()
	if c.Target.BusName == "" {
		c.Target.BusName = def.Target.BusName
	}
	if c.Target.Identity == "" {
		c.Target.Identity = def.Target.Identity
	}
	if !logging.ValidFormat(c.Log.Format) {
		c.Log.Format = def.Log.Format
	}

	return c, nil
}

func (c *Config) AutopauseTarget() autopause.Target {
	return autopause.Target{
		BusName:  c.Target.BusName,
		Identity: c.Target.Identity,
	}
}
