package backend

import (
	"errors"

	"github.com/gogpu/drawconf"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or cannot be initialized on this system.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend name constants.
const (
	// BackendReference is the name of the CPU-based reference rasterizer.
	BackendReference = "reference"
	// BackendWgpu is the name of the GPU backend (gogpu/wgpu).
	BackendWgpu = "wgpu"
)

// Factory creates a new backend context instance. Creation may fail,
// for example when no suitable GPU adapter is present.
type Factory func() (drawconf.Context, error)
