package fs

import (
	"github.com/spf13/afero"
)

// Factory hands out the filesystems the player reads from and writes to.
type Factory interface {
	// Production returns the real OS filesystem.
	Production() afero.Fs
	// Sounds returns a read-only view of the OS filesystem for audio resources.
	Sounds() afero.Fs
	// Memory returns an isolated in-memory filesystem.
	Memory() afero.Fs
}

type DefaultFactory struct{}

func NewDefaultFactory() Factory {
	return &DefaultFactory{}
}

func (f *DefaultFactory) Production() afero.Fs {
	return afero.NewOsFs()
}

// Sounds wraps the OS filesystem so that resolving a clip can never modify it.
func (f *DefaultFactory) Sounds() afero.Fs {
	return afero.NewReadOnlyFs(afero.NewOsFs())
}

func (f *DefaultFactory) Memory() afero.Fs {
	return afero.NewMemMapFs()
}
