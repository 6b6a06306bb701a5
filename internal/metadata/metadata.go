// Package metadata captures the device and location context attached to
// every clock mutation.
package metadata

import (
	"context"
	"os"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxFieldLen = 128

// deviceNamespace seeds derived device identifiers so the same host always
// maps to the same id.
var deviceNamespace = uuid.MustParse("6f1c2f0e-3a0b-4d9e-9f57-3c1b7d2a9e41")

// Context is the per-mutation device context.
type Context struct {
	DeviceIdentifier string
	Location         string
	Hostname         string
}

// Collector produces a Context for the current process. Configured values
// override detected ones.
type Collector struct {
	deviceID string
	location string
	hostname func() (string, error)
}

func NewCollector(deviceID, location string) *Collector {
	return &Collector{deviceID: deviceID, location: location, hostname: os.Hostname}
}

// Collect returns the device context. It never fails: an undetectable host
// falls back to "unknown-host".
func (c *Collector) Collect() Context {
	host, err := c.hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		host = "unknown-host"
	}
	host = sanitize(host)

	id := sanitize(c.deviceID)
	if id == "" {
		id = DeriveDeviceID(host, runtime.GOOS)
	}
	return Context{
		DeviceIdentifier: id,
		Location:         sanitize(c.location),
		Hostname:         host,
	}
}

// DeriveDeviceID returns a stable identifier for a host/platform pair.
func DeriveDeviceID(host, platform string) string {
	return "dev-" + uuid.NewSHA1(deviceNamespace, []byte(strings.ToLower(host)+"/"+platform)).String()[:13]
}

// sanitize strips control characters and bounds length in bytes, cutting on a
// rune boundary.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if len(s) <= maxFieldLen {
		return s
	}
	cut := maxFieldLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

type contextKey struct{ name string }

var deviceKey = contextKey{"device"}

// WithContext attaches md to ctx.
func WithContext(ctx context.Context, md Context) context.Context {
	return context.WithValue(ctx, deviceKey, md)
}

// FromContext returns the attached device context and true if set.
func FromContext(ctx context.Context) (Context, bool) {
	md, ok := ctx.Value(deviceKey).(Context)
	return md, ok
}
