package commands

import (
	"fmt"

	"github.com/rillplay/engine/internal/config"
	"github.com/rillplay/engine/internal/logging"
	"github.com/rillplay/engine/pkg/decoder"
	"github.com/rillplay/engine/pkg/decoder/plugins/mp3"
	"github.com/rillplay/engine/pkg/decoder/plugins/oggopus"
	"github.com/rillplay/engine/pkg/decoder/plugins/wavpcm"
	"github.com/rillplay/engine/pkg/events"
	"github.com/rillplay/engine/pkg/outputdevice"
	"github.com/rillplay/engine/pkg/player"
)

func loadConfig() (config.Config, error) {
	if cfgPath != "" {
		return config.LoadFrom(cfgPath)
	}
	return config.Load()
}

func newRegistry(cfg config.Config) (*decoder.Registry, error) {
	reg := decoder.NewRegistry(cfg.UseMimeMagic)
	for _, p := range []decoder.Plugin{mp3.New(), oggopus.New(), wavpcm.New()} {
		if err := reg.Register(p); err != nil {
			return nil, fmt.Errorf("register %s: %w", p.Name(), err)
		}
	}
	reg.SetPreferences(cfg.PreferredDecoders)
	return reg, nil
}

func newSession(reg *decoder.Registry, sink events.Sink) *player.Session {
	cfg, err := loadConfig()
	if err != nil {
		cfg = config.Config{}
	}
	pcfg := player.Config{PrebufferingKiB: cfg.Prebuffering, AutoNext: cfg.AutoNext}
	return player.NewSession(reg, sink, pcfg, outputdevice.Open, logging.DefaultLogger())
}
