// Package session resolves the tap target and builds the plan before a run.
package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/adbtap/internal/device"
	"github.com/verte-zerg/adbtap/internal/model"
	"github.com/verte-zerg/adbtap/internal/planner"
)

const (
	// FallbackRadius is used when the display size is unknown.
	FallbackRadius = 200
	radiusScale    = 0.20
	presetYScale   = 0.6
)

// Prober is the part of the device needed before tapping starts.
type Prober interface {
	QueryConnectedDevices(ctx context.Context) (bool, error)
	QueryDisplayResolution(ctx context.Context) (width, height int, err error)
}

// Resolution is a display size in device pixels.
type Resolution struct {
	Width  int
	Height int
}

// Setup is everything the scheduler needs that depends on the device.
type Setup struct {
	Resolution *Resolution
	Center     model.Point
	Radius     float64
	Pinned     bool
	Plan       []model.TapPoint
}

// CheckDevice fails unless a usable device is attached.
func CheckDevice(ctx context.Context, dev Prober) error {
	ok, err := dev.QueryConnectedDevices(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: adb reports no authorized device", device.ErrDeviceUnavailable)
	}
	return nil
}

// Prepare checks the device, resolves the target center and region radius, and
// builds the plan. Nothing is tapped.
func Prepare(ctx context.Context, dev Prober, cfg model.RunConfig, p *planner.Planner, log zerolog.Logger) (Setup, error) {
	if err := CheckDevice(ctx, dev); err != nil {
		return Setup{}, err
	}

	var setup Setup
	needResolution := !cfg.HasExplicitTarget()
	wantResolution := needResolution || (!cfg.SinglePoint && cfg.Radius <= 0)
	if wantResolution {
		w, h, err := dev.QueryDisplayResolution(ctx)
		switch {
		case err == nil:
			setup.Resolution = &Resolution{Width: w, Height: h}
			log.Debug().Int("width", w).Int("height", h).Msg("display resolution")
		case needResolution:
			return Setup{}, err
		default:
			log.Warn().Err(err).Int("radius", FallbackRadius).Msg("resolution unavailable, using fallback radius")
		}
	}

	setup.Center = resolveCenter(cfg, setup.Resolution)
	setup.Radius = resolveRadius(cfg, setup.Resolution)
	if cfg.SinglePoint {
		return setup, nil
	}

	explicit := cfg.X != nil || cfg.Y != nil
	calibrated, known := CalibratedCenter(setup.Resolution)
	setup.Pinned = explicit && (!known || setup.Center != calibrated)
	if setup.Pinned {
		setup.Plan = p.BuildPinned(setup.Center, setup.Radius)
	} else {
		setup.Plan = p.Build(setup.Center, setup.Radius)
	}
	return setup, nil
}

// CalibratedCenter is the preset target: horizontally centered, 60% down.
func CalibratedCenter(res *Resolution) (model.Point, bool) {
	if res == nil {
		return model.Point{}, false
	}
	return model.Point{X: res.Width / 2, Y: int(float64(res.Height) * presetYScale)}, true
}

func resolveCenter(cfg model.RunConfig, res *Resolution) model.Point {
	var center model.Point
	if res != nil {
		center = model.Point{X: res.Width / 2, Y: res.Height / 2}
		if cfg.Preset {
			center, _ = CalibratedCenter(res)
		}
	}
	if cfg.X != nil {
		center.X = *cfg.X
	}
	if cfg.Y != nil {
		center.Y = *cfg.Y
	}
	return center
}

func resolveRadius(cfg model.RunConfig, res *Resolution) float64 {
	if cfg.Radius > 0 {
		return float64(cfg.Radius)
	}
	if res != nil {
		return float64(int(float64(res.Height) * radiusScale))
	}
	return FallbackRadius
}
