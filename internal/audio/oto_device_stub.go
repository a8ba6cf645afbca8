//go:build !cgo && !darwin && !windows

package audio

import (
	"fmt"
	"log/slog"
)

const otoAvailable = false

// NewOtoDevice is unavailable on this platform without cgo.
func NewOtoDevice(cfg DeviceConfig, logger *slog.Logger) (Device, error) {
	return nil, fmt.Errorf("%w: oto requires cgo on this platform", ErrBackendNotAvailable)
}
