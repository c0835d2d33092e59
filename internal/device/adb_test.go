package device

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"reflect"
	"testing"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	out   map[string]string
	err   error
	calls []call
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	key := ""
	for _, a := range args {
		if a == "-s" {
			continue
		}
		if key != "" {
			key += " "
		}
		key += a
	}
	return []byte(f.out[key]), f.err
}

func foundAdb(string) (string, error) {
	return "/opt/platform-tools/adb", nil
}

func TestQueryConnectedDevices(t *testing.T) {
	runner := &fakeRunner{out: map[string]string{
		"devices": "* daemon started successfully\nList of devices attached\nemulator-5554\tdevice\nR58M\tunauthorized\n\n",
	}}
	adb := NewADB(Options{LookPath: foundAdb, Run: runner.run})
	ok, err := adb.QueryConnectedDevices(context.Background())
	if err != nil {
		t.Fatalf("query devices: %v", err)
	}
	if !ok {
		t.Fatalf("expected a usable device")
	}
	if runner.calls[0].name != "/opt/platform-tools/adb" {
		t.Fatalf("expected resolved binary, got %q", runner.calls[0].name)
	}
}

func TestQueryConnectedDevicesNoneUsable(t *testing.T) {
	runner := &fakeRunner{out: map[string]string{
		"devices": "List of devices attached\nR58M\tunauthorized\n",
	}}
	adb := NewADB(Options{LookPath: foundAdb, Run: runner.run})
	ok, err := adb.QueryConnectedDevices(context.Background())
	if err != nil {
		t.Fatalf("query devices: %v", err)
	}
	if ok {
		t.Fatalf("expected no usable device")
	}
}

func TestQueryConnectedDevicesSerialFilter(t *testing.T) {
	runner := &fakeRunner{out: map[string]string{
		"devices": "List of devices attached\nemulator-5554\tdevice\n",
	}}
	adb := NewADB(Options{LookPath: foundAdb, Run: runner.run, Serial: "R58M"})
	ok, err := adb.QueryConnectedDevices(context.Background())
	if err != nil {
		t.Fatalf("query devices: %v", err)
	}
	if ok {
		t.Fatalf("expected serial filter to exclude emulator")
	}
}

func TestBridgeNotFound(t *testing.T) {
	adb := NewADB(Options{
		LookPath: func(string) (string, error) { return "", exec.ErrNotFound },
		Run:      (&fakeRunner{}).run,
	})
	if _, err := adb.QueryConnectedDevices(context.Background()); !errors.Is(err, ErrBridgeNotFound) {
		t.Fatalf("expected ErrBridgeNotFound, got %v", err)
	}
	if _, _, err := adb.QueryDisplayResolution(context.Background()); !errors.Is(err, ErrBridgeNotFound) {
		t.Fatalf("expected ErrBridgeNotFound, got %v", err)
	}
}

func TestListDevicesRunFailure(t *testing.T) {
	runner := &fakeRunner{err: os.ErrDeadlineExceeded}
	adb := NewADB(Options{LookPath: foundAdb, Run: runner.run})
	if _, err := adb.ListDevices(context.Background()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestQueryDisplayResolution(t *testing.T) {
	tests := []struct {
		name   string
		out    string
		width  int
		height int
	}{
		{name: "physical", out: "Physical size: 1080x2400\n", width: 1080, height: 2400},
		{name: "override wins", out: "Physical size: 1440x3200\nOverride size: 1080x2400\n", width: 1080, height: 2400},
		{name: "crlf", out: "Physical size: 720x1600\r\n", width: 720, height: 1600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{out: map[string]string{"shell wm size": tt.out}}
			adb := NewADB(Options{LookPath: foundAdb, Run: runner.run})
			w, h, err := adb.QueryDisplayResolution(context.Background())
			if err != nil {
				t.Fatalf("query resolution: %v", err)
			}
			if w != tt.width || h != tt.height {
				t.Fatalf("expected %dx%d, got %dx%d", tt.width, tt.height, w, h)
			}
		})
	}
}

func TestQueryDisplayResolutionParseFailure(t *testing.T) {
	for _, out := range []string{"", "error: closed\n", "Physical size: 1080\n", "Physical size: axb\n", "Physical size: 0x0\n"} {
		runner := &fakeRunner{out: map[string]string{"shell wm size": out}}
		adb := NewADB(Options{LookPath: foundAdb, Run: runner.run})
		if _, _, err := adb.QueryDisplayResolution(context.Background()); !errors.Is(err, ErrResolutionQuery) {
			t.Fatalf("output %q: expected ErrResolutionQuery, got %v", out, err)
		}
	}
}

func TestTapArgs(t *testing.T) {
	runner := &fakeRunner{}
	adb := NewADB(Options{LookPath: foundAdb, Run: runner.run, Serial: "emulator-5554"})
	if err := adb.Tap(context.Background(), 540, 1440); err != nil {
		t.Fatalf("tap: %v", err)
	}
	want := []string{"-s", "emulator-5554", "shell", "input", "tap", "540", "1440"}
	if !reflect.DeepEqual(runner.calls[0].args, want) {
		t.Fatalf("unexpected args %v", runner.calls[0].args)
	}
}

func TestTapFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1"), out: map[string]string{"shell input tap 1 2": "device offline"}}
	adb := NewADB(Options{LookPath: foundAdb, Run: runner.run})
	err := adb.Tap(context.Background(), 1, 2)
	if !errors.Is(err, ErrTapDispatch) {
		t.Fatalf("expected ErrTapDispatch, got %v", err)
	}
}

func TestHint(t *testing.T) {
	if Hint(ErrBridgeNotFound) == "" || Hint(ErrDeviceUnavailable) == "" || Hint(ErrResolutionQuery) == "" {
		t.Fatalf("expected hints for fatal errors")
	}
	if Hint(errors.New("other")) != "" {
		t.Fatalf("expected no hint for unknown errors")
	}
}
