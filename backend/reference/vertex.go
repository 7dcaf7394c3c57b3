// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package reference

import (
	"github.com/gogpu/drawconf"
)

// vertex is one shaded vertex: its scaled NDC position and the final
// color the fragment stage interpolates.
type vertex struct {
	x, y  float64
	color [3]float64
}

// shadeVertex fetches every program input for the given element and
// instance and evaluates the generated program's vertex function.
func (c *Context) shadeVertex(elem, inst int) (vertex, error) {
	var posX, posY float64
	color := [3]float64{1, 1, 1}

	for _, in := range c.program.inputs {
		state, ok := c.attribs[in.Location]
		if !ok {
			return vertex{}, &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "draw with unbound attribute"}
		}

		var v [4]float64
		if state.isDefault {
			v = state.def
		} else {
			data := sourceBytes(state.ptr.Source)
			if data == nil {
				return vertex{}, &drawconf.DrawError{Kind: drawconf.DrawErrInvalidOperation, Op: "draw without attribute data"}
			}
			var err error
			v, err = state.ptr.Fetch(data, elem, inst)
			if err != nil {
				return vertex{}, err
			}
		}

		if in.Position {
			tx, ty := positionTerm(in.Components, v)
			posX += tx
			posY += ty
		} else {
			t := colorTerm(in.Components, v)
			color[0] *= t[0]
			color[1] *= t[1]
			color[2] *= t[2]
		}
	}

	coordScale := float64(c.program.uniforms["coordScale"])
	colorScale := float64(c.program.uniforms["colorScale"])

	return vertex{
		x: coordScale * posX,
		y: coordScale * posY,
		color: [3]float64{
			0.5*colorScale*color[0] + 0.5,
			0.5*colorScale*color[1] + 0.5,
			0.5*colorScale*color[2] + 0.5,
		},
	}, nil
}

// positionTerm folds a fetched value to its 2D position contribution,
// matching the generated vertex source.
func positionTerm(comps int, v [4]float64) (x, y float64) {
	switch comps {
	case 1:
		return v[0], v[0]
	case 2:
		return v[0], v[1]
	case 3:
		return v[0] + v[2], v[1]
	default:
		return v[0] + v[2], v[1] + v[3]
	}
}

// colorTerm folds a fetched value to its color factor, matching the
// generated vertex source.
func colorTerm(comps int, v [4]float64) [3]float64 {
	switch comps {
	case 1:
		return [3]float64{v[0], v[0], v[0]}
	case 2:
		return [3]float64{v[0], v[1], 1}
	case 3:
		return [3]float64{v[0], v[1], v[2]}
	default:
		return [3]float64{v[0] * v[3], v[1] * v[3], v[2] * v[3]}
	}
}
