// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package reference

import (
	"math"

	"github.com/gogpu/drawconf"
)

// rasterize assembles primitives from the shaded vertex stream and
// draws them into the render target.
func (c *Context) rasterize(prim drawconf.Primitive, verts []vertex) {
	switch prim {
	case drawconf.Points:
		for _, v := range verts {
			c.drawPoint(v)
		}
	case drawconf.Lines:
		for i := 0; i+1 < len(verts); i += 2 {
			c.drawLine(verts[i], verts[i+1])
		}
	case drawconf.LineStrip:
		for i := 0; i+1 < len(verts); i++ {
			c.drawLine(verts[i], verts[i+1])
		}
	case drawconf.LineLoop:
		for i := 0; i+1 < len(verts); i++ {
			c.drawLine(verts[i], verts[i+1])
		}
		if len(verts) > 2 {
			c.drawLine(verts[len(verts)-1], verts[0])
		}
	case drawconf.Triangles:
		for i := 0; i+2 < len(verts); i += 3 {
			c.drawTriangle(verts[i], verts[i+1], verts[i+2])
		}
	case drawconf.TriangleStrip:
		for i := 0; i+2 < len(verts); i++ {
			c.drawTriangle(verts[i], verts[i+1], verts[i+2])
		}
	case drawconf.TriangleFan:
		for i := 1; i+1 < len(verts); i++ {
			c.drawTriangle(verts[0], verts[i], verts[i+1])
		}
	}
}

// window maps scaled NDC to window coordinates. The framebuffer origin
// is the top-left corner, so the y axis flips.
func (c *Context) window(v vertex) (x, y float64) {
	x = float64(c.vpX) + (v.x+1)/2*float64(c.vpW)
	y = float64(c.vpY) + (1-v.y)/2*float64(c.vpH)
	return x, y
}

// inViewport reports whether a pixel lies inside the render area.
func (c *Context) inViewport(x, y int) bool {
	return x >= c.vpX && x < c.vpX+c.vpW && y >= c.vpY && y < c.vpY+c.vpH
}

// writePixel clamps and stores one fragment.
func (c *Context) writePixel(x, y int, col [3]float64) {
	if !c.inViewport(x, y) {
		return
	}
	c.target.SetPixel(x, y, clampByte(col[0]), clampByte(col[1]), clampByte(col[2]))
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// drawPoint rasterizes a one-pixel point: the pixel containing the
// point's window position.
func (c *Context) drawPoint(v vertex) {
	wx, wy := c.window(v)
	c.writePixel(int(math.Floor(wx)), int(math.Floor(wy)), v.color)
}

// drawLine rasterizes a one-pixel-wide line with a DDA walk, linearly
// interpolating the vertex colors along the major axis.
func (c *Context) drawLine(a, b vertex) {
	ax, ay := c.window(a)
	bx, by := c.window(b)

	x0, y0 := int(math.Floor(ax)), int(math.Floor(ay))
	x1, y1 := int(math.Floor(bx)), int(math.Floor(by))

	steps := max(abs(x1-x0), abs(y1-y0))
	if steps == 0 {
		c.writePixel(x0, y0, a.color)
		return
	}

	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := x0 + int(math.Round(t*float64(x1-x0)))
		y := y0 + int(math.Round(t*float64(y1-y0)))
		c.writePixel(x, y, lerpColor(a.color, b.color, t))
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func lerpColor(a, b [3]float64, t float64) [3]float64 {
	return [3]float64{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// drawTriangle rasterizes a filled triangle with edge functions sampled
// at pixel centers, interpolating colors barycentrically. Degenerate
// triangles cover no centers and draw nothing.
func (c *Context) drawTriangle(a, b, d vertex) {
	ax, ay := c.window(a)
	bx, by := c.window(b)
	dx, dy := c.window(d)

	area := (bx-ax)*(dy-ay) - (by-ay)*(dx-ax)
	if area == 0 {
		return
	}

	minX := max(int(math.Floor(min(ax, bx, dx))), c.vpX)
	maxX := min(int(math.Ceil(max(ax, bx, dx))), c.vpX+c.vpW-1)
	minY := max(int(math.Floor(min(ay, by, dy))), c.vpY)
	maxY := min(int(math.Ceil(max(ay, by, dy))), c.vpY+c.vpH-1)

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			cx := float64(px) + 0.5
			cy := float64(py) + 0.5

			// Signed areas of the three sub-triangles.
			w0 := (bx-cx)*(dy-cy) - (by-cy)*(dx-cx)
			w1 := (dx-cx)*(ay-cy) - (dy-cy)*(ax-cx)
			w2 := (ax-cx)*(by-cy) - (ay-cy)*(bx-cx)

			if area < 0 {
				w0, w1, w2 = -w0, -w1, -w2
			}
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			inv := 1 / math.Abs(area)
			l0, l1, l2 := w0*inv, w1*inv, w2*inv
			col := [3]float64{
				l0*a.color[0] + l1*b.color[0] + l2*d.color[0],
				l0*a.color[1] + l1*b.color[1] + l2*d.color[1],
				l0*a.color[2] + l1*b.color[2] + l2*d.color[2],
			}
			c.writePixel(px, py, col)
		}
	}
}
