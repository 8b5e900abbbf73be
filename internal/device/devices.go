package device

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Device is one entry of "adb devices -l".
type Device struct {
	Serial      string `json:"serial"`
	State       string `json:"state"` // device, offline, unauthorized, ...
	USB         string `json:"usb,omitempty"`
	Product     string `json:"product,omitempty"`
	Model       string `json:"model,omitempty"`
	DeviceName  string `json:"device,omitempty"`
	TransportID string `json:"transport_id,omitempty"`
}

// String renders the device the way adb lists it.
func (d Device) String() string {
	parts := []string{d.Serial, d.State}
	for _, kv := range [][2]string{
		{"usb", d.USB},
		{"product", d.Product},
		{"model", d.Model},
		{"device", d.DeviceName},
		{"transport_id", d.TransportID},
	} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+":"+kv[1])
		}
	}
	return strings.Join(parts, " ")
}

// Devices lists attached devices.
func (a *ADB) Devices(ctx context.Context) ([]Device, error) {
	out, err := a.bridge.RunGlobal(ctx, "devices", "-l")
	if err != nil {
		return nil, err
	}
	return ParseDevices(out), nil
}

// ParseDevices parses "adb devices -l" output. Header and daemon status
// lines are skipped.
func ParseDevices(out string) []Device {
	devices := []Device{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		d := Device{Serial: fields[0], State: fields[1]}
		for _, f := range fields[2:] {
			key, value, ok := strings.Cut(f, ":")
			if !ok {
				continue
			}
			switch key {
			case "usb":
				d.USB = value
			case "product":
				d.Product = value
			case "model":
				d.Model = value
			case "device":
				d.DeviceName = value
			case "transport_id":
				d.TransportID = value
			}
		}
		devices = append(devices, d)
	}
	return devices
}

// Properties summarizes a device.
type Properties struct {
	Serial         string `json:"serial"`
	Model          string `json:"model"`
	Manufacturer   string `json:"manufacturer"`
	AndroidVersion string `json:"android_version"`
	SDK            string `json:"sdk"`
	ScreenSize     string `json:"screen_size"`
}

// Lines renders the properties as "Key: value" lines.
func (p *Properties) Lines() []string {
	return []string{
		"Serial: " + p.Serial,
		"Model: " + p.Model,
		"Manufacturer: " + p.Manufacturer,
		"Android Version: " + p.AndroidVersion,
		"SDK: " + p.SDK,
		"Screen Size: " + p.ScreenSize,
	}
}

var screenSizePattern = regexp.MustCompile(`(\d+)x(\d+)`)

// Properties reads identifying properties and the screen size concurrently.
// The bridge semaphore still bounds how many adb processes actually run.
func (a *ADB) Properties(ctx context.Context, serial string) (*Properties, error) {
	props := &Properties{}

	g, gctx := errgroup.WithContext(ctx)
	getprop := func(name string, dst *string) {
		g.Go(func() error {
			out, err := a.bridge.Run(gctx, serial, "shell", "getprop", name)
			if err != nil {
				return err
			}
			*dst = strings.TrimSpace(out)
			return nil
		})
	}
	getprop("ro.serialno", &props.Serial)
	getprop("ro.product.model", &props.Model)
	getprop("ro.product.manufacturer", &props.Manufacturer)
	getprop("ro.build.version.release", &props.AndroidVersion)
	getprop("ro.build.version.sdk", &props.SDK)

	g.Go(func() error {
		out, err := a.bridge.Run(gctx, serial, "shell", "wm", "size")
		if err != nil {
			return err
		}
		size, err := ParseScreenSize(out)
		if err != nil {
			return err
		}
		props.ScreenSize = size
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return props, nil
}

// ParseScreenSize extracts "WxH" from "wm size" output, preferring an
// override size over the physical one.
func ParseScreenSize(out string) (string, error) {
	var physical string
	for _, line := range strings.Split(out, "\n") {
		m := screenSizePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "Override size") {
			return m[0], nil
		}
		if physical == "" {
			physical = m[0]
		}
	}
	if physical == "" {
		return "", &Error{Kind: KindParseFailure, Op: "shell wm", Message: fmt.Sprintf("unrecognized wm size output: %q", strings.TrimSpace(out))}
	}
	return physical, nil
}
