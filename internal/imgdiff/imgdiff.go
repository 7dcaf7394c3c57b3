// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package imgdiff decides whether two renderings of the same draw call
// are equivalent. Backends legitimately disagree about the exact pixels
// along primitive silhouettes, so the comparison is tolerant in two
// ways: a pixel may match a color anywhere in its 3x3 neighborhood, and
// pixels near geometric edges (triangles) or line intersections (lines)
// are only required to agree on coverage, not on color. Point renderings
// get no relaxation at all since points essentially never legitimately
// overlap.
//
// Every comparison produces a visualization mask: matching pixels are
// rendered as grayscale-tinted green, mismatches as red. The outermost
// pixel ring is never compared, because coverage there cannot be checked
// against anything outside the image, and is pre-painted green.
package imgdiff

import (
	"fmt"
	"image"
	"image/color"
)

// kernelRadius is the half-width of the neighborhood search kernel.
const kernelRadius = 1

// Default mismatch budgets per primitive class. The line budget is
// slightly smaller than the triangle budget: line intersections excuse
// far more pixels up front than edge detection does.
const (
	DefaultPointBudget    = 0
	DefaultLineBudget     = 8
	DefaultTriangleBudget = 10
)

// Threshold returns the per-channel difference threshold for a render
// target with the given bits per channel.
func Threshold(bits [3]int) [3]int {
	var t [3]int
	for i, b := range bits {
		t[i] = 1 << (8 - b)
	}
	return t
}

// Result is the outcome of one comparison.
type Result struct {
	// Match reports whether the faulty pixel count stayed within budget.
	Match bool

	// Faulty counts mismatching pixels that no relaxation excused.
	Faulty int

	// Mask is the visualization of the comparison.
	Mask *image.RGBA
}

// ComparePoints compares two point-class renderings. Each pixel must
// find its counterpart's color within the search kernel; no mismatching
// pixel is tolerated.
func ComparePoints(ref, res *image.RGBA, threshold [3]int) Result {
	return compare(ref, res, threshold, DefaultPointBudget, nil)
}

// CompareLines compares two line-class renderings. Pixels failing the
// neighborhood color check are excused down to a coverage-only check
// when they lie near a line intersection, defined as having at least
// four covered pixels in the 3x3 neighborhood of either image.
func CompareLines(ref, res *image.RGBA, threshold [3]int, maxFaulty int) Result {
	excuse := func(x, y int) bool {
		return coverageCount(ref, x, y, threshold) >= 4 ||
			coverageCount(res, x, y, threshold) >= 4
	}
	return compare(ref, res, threshold, maxFaulty, excuse)
}

// CompareTriangles compares two triangle-class renderings. Pixels
// failing the neighborhood color check are excused down to a
// coverage-only check when either image shows a geometric edge at that
// position.
func CompareTriangles(ref, res *image.RGBA, threshold [3]int, maxFaulty int) Result {
	excuse := func(x, y int) bool {
		return nearEdge(ref, x, y, threshold) || nearEdge(res, x, y, threshold)
	}
	return compare(ref, res, threshold, maxFaulty, excuse)
}

// compare is the shared engine. A non-border pixel matches when either
// image contains a color matching the other image's pixel within the
// kernel. Failing pixels go through the class-specific excuse; excused
// pixels only need matching coverage. The rest count against the budget.
func compare(ref, res *image.RGBA, threshold [3]int, maxFaulty int, excuse func(x, y int) bool) Result {
	w, h := ref.Rect.Dx(), ref.Rect.Dy()
	if res.Rect.Dx() != w || res.Rect.Dy() != h {
		panic(fmt.Sprintf("imgdiff: surface sizes differ: %dx%d vs %dx%d",
			w, h, res.Rect.Dx(), res.Rect.Dy()))
	}

	mask := image.NewRGBA(image.Rect(0, 0, w, h))
	paintBorder(mask)

	faulty := 0
	for y := kernelRadius; y < h-kernelRadius; y++ {
		for x := kernelRadius; x < w-kernelRadius; x++ {
			refPix := rgbAt(ref, x, y)
			resPix := rgbAt(res, x, y)

			ok := neighborhoodContainsColor(res, x, y, refPix, threshold) &&
				neighborhoodContainsColor(ref, x, y, resPix, threshold)

			if !ok && excuse != nil && excuse(x, y) {
				ok = neighborhoodCoverageMatches(res, x, y, refPix, threshold) &&
					neighborhoodCoverageMatches(ref, x, y, resPix, threshold)
			}

			if ok {
				lum := (int(refPix[0]) + int(refPix[1]) + int(refPix[2])) / 3
				mask.SetRGBA(x, y, color.RGBA{
					R: uint8(lum / 2),
					G: uint8(128 + lum/2),
					B: uint8(lum / 2),
					A: 255,
				})
			} else {
				faulty++
				mask.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			}
		}
	}

	return Result{Match: faulty <= maxFaulty, Faulty: faulty, Mask: mask}
}

// rgbAt reads the RGB channels of a pixel.
func rgbAt(img *image.RGBA, x, y int) [3]uint8 {
	i := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
	return [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
}

// channelsMatch reports whether two colors agree per channel within the
// threshold.
func channelsMatch(a, b [3]uint8, threshold [3]int) bool {
	for c := 0; c < 3; c++ {
		d := int(a[c]) - int(b[c])
		if d < 0 {
			d = -d
		}
		if d > threshold[c] {
			return false
		}
	}
	return true
}

// covered reports whether a pixel is distinguishable from the black
// clear color.
func covered(p [3]uint8, threshold [3]int) bool {
	for c := 0; c < 3; c++ {
		if int(p[c]) > threshold[c] {
			return true
		}
	}
	return false
}

// neighborhoodContainsColor reports whether any pixel of the 3x3
// neighborhood matches the given color within the threshold.
func neighborhoodContainsColor(img *image.RGBA, x, y int, want [3]uint8, threshold [3]int) bool {
	for dy := -kernelRadius; dy <= kernelRadius; dy++ {
		for dx := -kernelRadius; dx <= kernelRadius; dx++ {
			if channelsMatch(rgbAt(img, x+dx, y+dy), want, threshold) {
				return true
			}
		}
	}
	return false
}

// neighborhoodCoverageMatches reports whether the 3x3 neighborhood
// contains a pixel with the same coverage (background vs non-background)
// as the given color.
func neighborhoodCoverageMatches(img *image.RGBA, x, y int, want [3]uint8, threshold [3]int) bool {
	wantCovered := covered(want, threshold)
	for dy := -kernelRadius; dy <= kernelRadius; dy++ {
		for dx := -kernelRadius; dx <= kernelRadius; dx++ {
			if covered(rgbAt(img, x+dx, y+dy), threshold) == wantCovered {
				return true
			}
		}
	}
	return false
}

// coverageCount counts covered pixels in the 3x3 neighborhood.
func coverageCount(img *image.RGBA, x, y int, threshold [3]int) int {
	n := 0
	for dy := -kernelRadius; dy <= kernelRadius; dy++ {
		for dx := -kernelRadius; dx <= kernelRadius; dx++ {
			if covered(rgbAt(img, x+dx, y+dy), threshold) {
				n++
			}
		}
	}
	return n
}

// nearEdge detects a geometric edge at (x, y): a ramp-direction reversal
// beyond the rounding threshold across the horizontal or the vertical
// 3-pixel run through the pixel. The channel bytes are masked with a
// bitwise AND in earlier renditions of this check; the logical-AND
// variant seen in the wild is a defect and is not reproduced here.
func nearEdge(img *image.RGBA, x, y int, threshold [3]int) bool {
	dirs := [2][2]int{{1, 0}, {0, 1}}
	for _, d := range dirs {
		a := rgbAt(img, x-d[0], y-d[1])
		b := rgbAt(img, x, y)
		c := rgbAt(img, x+d[0], y+d[1])
		for ch := 0; ch < 3; ch++ {
			rounding := threshold[ch] * 4
			d1 := int(b[ch]) - int(a[ch])
			d2 := int(c[ch]) - int(b[ch])
			if d1 > rounding && d2 < -rounding {
				return true
			}
			if d1 < -rounding && d2 > rounding {
				return true
			}
		}
	}
	return false
}

// paintBorder pre-paints the outermost pixel ring of the mask green.
func paintBorder(mask *image.RGBA) {
	green := color.RGBA{G: 255, A: 255}
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	for x := 0; x < w; x++ {
		for r := 0; r < kernelRadius; r++ {
			mask.SetRGBA(x, r, green)
			mask.SetRGBA(x, h-1-r, green)
		}
	}
	for y := 0; y < h; y++ {
		for r := 0; r < kernelRadius; r++ {
			mask.SetRGBA(r, y, green)
			mask.SetRGBA(w-1-r, y, green)
		}
	}
}
