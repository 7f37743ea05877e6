package broker

import (
	"context"

	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/store"
)

// New selects the execution backend. Live IG trading requires both LIVE
// mode and the IG provider; every other combination simulates.
func New(ctx context.Context, cfg *store.Config) interfaces.Broker {
	if cfg.Mode == "LIVE" && cfg.Broker.Provider == "IG" {
		if cfg.Broker.Demo {
			logger.Info(ctx, "Using IG broker against the demo environment")
		} else {
			logger.Warn(ctx, "Using IG broker against the LIVE environment - real orders will be placed")
		}
		return NewIG(cfg)
	}

	logger.Warn(ctx, "Running with simulated execution - orders will not reach a venue")
	return NewSim()
}
