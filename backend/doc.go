// Package backend provides a pluggable draw-backend abstraction.
//
// The backend package lets drawconf run its comparisons against any
// registered implementation of drawconf.Context. The reference backend
// is a deterministic CPU rasterizer; the wgpu backend drives real GPU
// hardware through gogpu/wgpu.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime:
//
//	import (
//		_ "github.com/gogpu/drawconf/backend/reference"
//		_ "github.com/gogpu/drawconf/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default() to get the best available result backend, or Get() to
// request a specific backend by name:
//
//	result, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ref, err := backend.Get("reference")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Available Backends
//
// - "reference": CPU-based reference rasterizer (always available)
// - "wgpu": GPU-accelerated via gogpu/wgpu
package backend
