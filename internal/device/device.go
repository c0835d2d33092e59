// Package device talks to an Android device through the adb bridge.
package device

import (
	"context"
	"errors"
)

var (
	// ErrBridgeNotFound reports that the adb binary could not be located.
	ErrBridgeNotFound = errors.New("adb bridge not found")
	// ErrDeviceUnavailable reports that no usable device is attached.
	ErrDeviceUnavailable = errors.New("no device available")
	// ErrResolutionQuery reports that the display size could not be parsed.
	ErrResolutionQuery = errors.New("display resolution query failed")
	// ErrTapDispatch reports that a single tap could not be delivered.
	ErrTapDispatch = errors.New("tap dispatch failed")
)

// Device is the device I/O needed to run a tap session.
type Device interface {
	QueryConnectedDevices(ctx context.Context) (bool, error)
	QueryDisplayResolution(ctx context.Context) (width, height int, err error)
	Tap(ctx context.Context, x, y int) error
}

// Hint returns remediation guidance for a fatal device error.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrBridgeNotFound):
		return "Install Android platform-tools and make sure adb is on your PATH (or pass --adb)."
	case errors.Is(err, ErrDeviceUnavailable):
		return "Connect your device via USB or adb connect, enable USB debugging and accept the authorization prompt."
	case errors.Is(err, ErrResolutionQuery):
		return "Pass explicit --x and --y coordinates to skip the resolution query."
	default:
		return ""
	}
}
