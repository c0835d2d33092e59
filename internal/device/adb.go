package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Options configure the adb bridge.
type Options struct {
	Binary   string
	Serial   string
	Timeout  time.Duration
	LookPath func(string) (string, error)
	Run      Runner
}

// ADB implements Device on top of the adb command line tool.
type ADB struct {
	binary   string
	serial   string
	timeout  time.Duration
	lookPath func(string) (string, error)
	run      Runner

	resolved string
}

// Info describes one entry of `adb devices`.
type Info struct {
	Serial string
	State  string
}

// Usable reports whether adb can issue commands to the device.
func (i Info) Usable() bool {
	return i.State == "device"
}

// NewADB returns an adb bridge. The binary is resolved lazily on first use.
func NewADB(opts Options) *ADB {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "adb"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	run := opts.Run
	if run == nil {
		run = execRunner
	}
	return &ADB{
		binary:   binary,
		serial:   strings.TrimSpace(opts.Serial),
		timeout:  timeout,
		lookPath: lookPath,
		run:      run,
	}
}

// ListDevices returns every device adb reports, usable or not.
func (a *ADB) ListDevices(ctx context.Context) ([]Info, error) {
	out, err := a.exec(ctx, false, "devices")
	if err != nil {
		if errors.Is(err, ErrBridgeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: adb devices: %v", ErrDeviceUnavailable, err)
	}
	return parseDevices(string(out)), nil
}

// QueryConnectedDevices reports whether a usable device is attached. When a
// serial is configured only that device counts.
func (a *ADB) QueryConnectedDevices(ctx context.Context) (bool, error) {
	infos, err := a.ListDevices(ctx)
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		if !info.Usable() {
			continue
		}
		if a.serial == "" || info.Serial == a.serial {
			return true, nil
		}
	}
	return false, nil
}

// QueryDisplayResolution returns the size input coordinates are mapped onto.
func (a *ADB) QueryDisplayResolution(ctx context.Context) (int, int, error) {
	out, err := a.exec(ctx, true, "shell", "wm", "size")
	if err != nil {
		if errors.Is(err, ErrBridgeNotFound) {
			return 0, 0, err
		}
		return 0, 0, fmt.Errorf("%w: wm size: %v", ErrDeviceUnavailable, err)
	}
	return parseResolution(string(out))
}

// Tap sends a single tap at the given coordinates.
func (a *ADB) Tap(ctx context.Context, x, y int) error {
	out, err := a.exec(ctx, true, "shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%w at (%d, %d): %v: %s", ErrTapDispatch, x, y, err, msg)
		}
		return fmt.Errorf("%w at (%d, %d): %v", ErrTapDispatch, x, y, err)
	}
	return nil
}

func (a *ADB) exec(ctx context.Context, withSerial bool, args ...string) ([]byte, error) {
	bin, err := a.binaryPath()
	if err != nil {
		return nil, err
	}
	if withSerial && a.serial != "" {
		args = append([]string{"-s", a.serial}, args...)
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	out, err := a.run(ctx, bin, args...)
	if err != nil && errors.Is(err, exec.ErrNotFound) {
		return out, fmt.Errorf("%w: %v", ErrBridgeNotFound, err)
	}
	return out, err
}

func (a *ADB) binaryPath() (string, error) {
	if a.resolved != "" {
		return a.resolved, nil
	}
	path, err := a.lookPath(a.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBridgeNotFound, a.binary, err)
	}
	a.resolved = path
	return path, nil
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func parseDevices(out string) []Info {
	var infos []Info
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "List of devices") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		infos = append(infos, Info{Serial: fields[0], State: fields[1]})
	}
	return infos
}

func parseResolution(out string) (int, int, error) {
	var physical, override string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(strings.ToLower(key)) {
		case "physical size":
			physical = strings.TrimSpace(value)
		case "override size":
			override = strings.TrimSpace(value)
		}
	}
	size := physical
	if override != "" {
		size = override
	}
	if size == "" {
		return 0, 0, fmt.Errorf("%w: unexpected output %q", ErrResolutionQuery, strings.TrimSpace(out))
	}
	w, h, ok := strings.Cut(size, "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: malformed size %q", ErrResolutionQuery, size)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: width %q: %v", ErrResolutionQuery, w, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: height %q: %v", ErrResolutionQuery, h, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: non-positive size %dx%d", ErrResolutionQuery, width, height)
	}
	return width, height, nil
}
