//go:build !cgo

package audio

import (
	"fmt"
	"log/slog"
)

const malgoAvailable = false

// NewMalgoDevice is unavailable in builds without cgo.
func NewMalgoDevice(cfg DeviceConfig, logger *slog.Logger) (Device, error) {
	return nil, fmt.Errorf("%w: malgo requires cgo (build with CGO_ENABLED=1)", ErrBackendNotAvailable)
}
