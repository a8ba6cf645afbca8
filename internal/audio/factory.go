package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Backend names accepted by BackendFactory.
const (
	BackendAuto  = "auto"
	BackendMalgo = "malgo"
	BackendOto   = "oto"
	BackendNone  = "none"
)

// Factory errors
var (
	ErrInvalidBackendType    = errors.New("invalid backend type")
	ErrBackendCreationFailed = errors.New("backend creation failed")
)

// BackendFactory turns a configured backend name into a DeviceFactory.
type BackendFactory interface {
	CreateBackend(backendType string) (DeviceFactory, error)
	GetSupportedBackends() []string
	IsValidBackendType(backendType string) bool
}

// DefaultBackendFactory implements BackendFactory with build-time backend
// detection.
type DefaultBackendFactory struct {
	config    DeviceConfig
	logger    *slog.Logger
	available func(backend string) bool
	creators  map[string]func(DeviceConfig, *slog.Logger) (Device, error)
}

// NewBackendFactory creates a factory for the backends compiled into this
// binary.
func NewBackendFactory(cfg DeviceConfig, logger *slog.Logger) *DefaultBackendFactory {
	return NewBackendFactoryWithDependencies(cfg, logger, backendCompiledIn, map[string]func(DeviceConfig, *slog.Logger) (Device, error){
		BackendMalgo: NewMalgoDevice,
		BackendOto:   NewOtoDevice,
		BackendNone: func(_ DeviceConfig, logger *slog.Logger) (Device, error) {
			return NewSilentDevice(logger), nil
		},
	})
}

// NewBackendFactoryWithDependencies creates a factory with injected
// availability checks and device constructors, for testing.
func NewBackendFactoryWithDependencies(cfg DeviceConfig, logger *slog.Logger, available func(string) bool, creators map[string]func(DeviceConfig, *slog.Logger) (Device, error)) *DefaultBackendFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultBackendFactory{
		config:    cfg,
		logger:    logger,
		available: available,
		creators:  creators,
	}
}

// CreateBackend returns a DeviceFactory for backendType. Nothing is opened
// until the returned factory is called.
func (f *DefaultBackendFactory) CreateBackend(backendType string) (DeviceFactory, error) {
	if backendType == "" {
		backendType = BackendAuto
	}
	if !f.IsValidBackendType(backendType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBackendType, backendType)
	}

	if backendType != BackendAuto {
		return f.deviceFactory(backendType), nil
	}

	candidates := f.autoCandidates()
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no audio backend compiled in", ErrBackendCreationFailed)
	}
	f.logger.Debug("auto backend candidates", "candidates", candidates)

	return func(ctx context.Context) (Device, error) {
		var errs []error
		for _, name := range candidates {
			device, err := f.deviceFactory(name)(ctx)
			if err == nil {
				return device, nil
			}
			f.logger.Warn("audio backend unavailable, trying next", "backend", name, "error", err)
			errs = append(errs, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrBackendCreationFailed, errors.Join(errs...))
	}, nil
}

func (f *DefaultBackendFactory) deviceFactory(name string) DeviceFactory {
	return func(ctx context.Context) (Device, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		create, ok := f.creators[name]
		if !ok || !f.available(name) {
			return nil, fmt.Errorf("%w: %s", ErrBackendNotAvailable, name)
		}
		device, err := create(f.config, f.logger)
		if err != nil {
			return nil, err
		}
		f.logger.Debug("audio device created", "backend", name)
		return device, nil
	}
}

// autoCandidates lists real output backends in preference order.
func (f *DefaultBackendFactory) autoCandidates() []string {
	var out []string
	for _, name := range []string{BackendMalgo, BackendOto} {
		if f.available(name) {
			out = append(out, name)
		}
	}
	return out
}

// GetSupportedBackends returns a list of all supported backend types
func (f *DefaultBackendFactory) GetSupportedBackends() []string {
	return SupportedBackends()
}

// IsValidBackendType checks if a backend type is supported
func (f *DefaultBackendFactory) IsValidBackendType(backendType string) bool {
	return IsValidBackend(backendType)
}

// SupportedBackends lists every backend name, whether or not it is compiled in.
func SupportedBackends() []string {
	return []string{BackendAuto, BackendMalgo, BackendOto, BackendNone}
}

// IsValidBackend reports whether name is a known backend. Empty means auto.
func IsValidBackend(name string) bool {
	if name == "" {
		return true
	}
	for _, supported := range SupportedBackends() {
		if name == supported {
			return true
		}
	}
	return false
}

func backendCompiledIn(name string) bool {
	switch name {
	case BackendMalgo:
		return malgoAvailable
	case BackendOto:
		return otoAvailable
	case BackendNone:
		return true
	default:
		return false
	}
}
