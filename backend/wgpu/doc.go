// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu is the hardware rendering backend, built on the gogpu/wgpu
// HAL. Importing the package registers the "wgpu" backend:
//
//	import _ "github.com/gogpu/drawconf/backend/wgpu"
//
//	ctx, err := backend.Get("wgpu")
//
// The backend opens a standalone offscreen Vulkan device by default. A
// host application that already owns a device can share it through
// NewWithProvider and a gpucontext.DeviceProvider.
//
// Attribute streams are converted to 32-bit vertex formats on the CPU
// before upload, through the same fetch conversion the reference backend
// uses. The GPU side of a draw therefore exercises vertex shading,
// primitive assembly, rasterization and interpolation, while fetch
// encodings the hardware cannot express (packed formats, unaligned
// offsets, non-unit divisors) are folded away beforehand. Line loops and
// triangle fans are rewritten into line strips and triangle lists.
//
// Build with the nogpu tag to exclude the backend and its GPU
// dependencies entirely.
package wgpu
