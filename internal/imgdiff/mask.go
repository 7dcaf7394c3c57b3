// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package imgdiff

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// minMaskSize is the smallest edge length a saved mask is scaled to.
// Conformance surfaces are often tiny and unreadable at native size.
const minMaskSize = 256

// SaveMask writes a comparison mask as PNG, upscaled with
// nearest-neighbor filtering so individual faulty pixels stay visible.
func SaveMask(path string, mask *image.RGBA) error {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()

	scale := 1
	if smaller := min(w, h); smaller > 0 {
		for smaller*scale < minMaskSize {
			scale++
		}
	}

	out := mask
	if scale > 1 {
		out = image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
		draw.NearestNeighbor.Scale(out, out.Rect, mask, mask.Rect, draw.Src, nil)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imgdiff: save mask: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, out); err != nil {
		return fmt.Errorf("imgdiff: encode mask: %w", err)
	}
	return nil
}
