// Package drawconf tests draw-call equivalence between a hardware
// backend and a software reference rasterizer.
//
// # Overview
//
// drawconf generates randomized but reproducible draw specifications
// (topology, draw method, vertex attribute layouts and encodings),
// executes each one on two backends with identical data and generated
// shaders, and compares the rendered surfaces with primitive-aware
// tolerances. A backend passes when every specification renders the
// same image as the reference, within the allowed rasterization
// differences.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/drawconf"
//		"github.com/gogpu/drawconf/backend"
//	)
//
//	result, _ := backend.Get("wgpu")
//	ref, _ := backend.Get("reference")
//
//	runner := drawconf.NewRunner(result, ref, drawconf.RunnerConfig{})
//	defer runner.Destroy()
//
//	runner.AddIteration(spec, "first quadrant, tightly packed shorts")
//	for {
//		more, err := runner.Iterate()
//		if err != nil || !more {
//			break
//		}
//	}
//	if runner.Status() == drawconf.StatusFailed {
//		log.Fatal(runner.Failure())
//	}
//
// # Architecture
//
// The library is organized into:
//   - Public API: DrawSpec, DrawRunner, Context, Surface
//   - shadergen: deterministic WGSL program generation
//   - internal/datagen: seeded attribute and index data generation
//   - internal/imgdiff: tolerant image comparison with failure masks
//   - backend: registry plus the reference and wgpu contexts
//
// All data generation is seeded from the specification itself, so a
// failing case reproduces bit-exactly from its description alone.
package drawconf

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
