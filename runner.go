// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawconf

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gogpu/drawconf/internal/datagen"
	"github.com/gogpu/drawconf/internal/imgdiff"
	"github.com/gogpu/drawconf/scalar"
	"github.com/gogpu/drawconf/shadergen"
)

// Phase is the step the runner will execute on the next Iterate call.
// Each queued specification is processed in two phases, draw then
// compare.
type Phase uint8

const (
	// PhaseDraw renders the current specification on both backends.
	PhaseDraw Phase = iota

	// PhaseCompare diffs the two rendered surfaces.
	PhaseCompare
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseDraw:
		return "draw"
	case PhaseCompare:
		return "compare"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Status is the overall outcome of a test so far.
type Status uint8

const (
	// StatusRunning means steps remain.
	StatusRunning Status = iota

	// StatusPassed means every compare step succeeded.
	StatusPassed

	// StatusFailed means a fatal error or an unacknowledged comparison
	// failure occurred; no further steps execute.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// RunnerConfig holds configuration for creating a DrawRunner.
type RunnerConfig struct {
	// Width and Height give the viewport size (default: 256), clamped
	// to MaxSurfaceSize.
	Width  int
	Height int

	// MaxSurfaceSize bounds the render-target dimensions (default: 512).
	MaxSurfaceSize int

	// LineBudget and TriangleBudget override the tolerated mismatch
	// counts of the relaxed comparisons (defaults: 8 and 10).
	LineBudget     int
	TriangleBudget int

	// MaskDir, when non-empty, is a directory the error masks of failed
	// comparisons are written to, one PNG per iteration named after the
	// specification.
	MaskDir string
}

// iteration is one queued specification with its description.
type iteration struct {
	spec DrawSpec
	desc string

	// skipCompare is set when the draw step was rejected by a backend
	// and the rejection was acknowledged as a compatibility outcome.
	skipCompare bool
}

// DrawRunner iterates a queue of draw specifications against two
// backends, alternating draw and compare steps. Execution is
// single-threaded and step-driven: an external driver calls Iterate
// repeatedly, and each call either completes one step or records a
// failure. The two backends are driven strictly sequentially within one
// draw step; the reference implementation is not thread-safe, and
// deterministic interleaving of uploads is required for reproducibility.
type DrawRunner struct {
	resultPack *AttribPack // backend under test
	refPack    *AttribPack // software reference

	cfg        RunnerConfig
	iterations []iteration
	current    int
	phase      Phase

	// progSpec is the specification the current compiled program was
	// generated for, used to skip rebuilds across shader-compatible
	// iterations.
	progSpec *DrawSpec

	status  Status
	failure string

	threshold [3]int
}

// NewRunner creates a runner driving the result backend and the
// reference backend. Both contexts are externally owned; the runner
// never mutates them concurrently.
func NewRunner(result, reference Context, cfg RunnerConfig) *DrawRunner {
	if result == nil || reference == nil {
		panic("drawconf: nil context")
	}
	if cfg.MaxSurfaceSize <= 0 {
		cfg.MaxSurfaceSize = 512
	}
	if cfg.Width <= 0 {
		cfg.Width = 256
	}
	if cfg.Height <= 0 {
		cfg.Height = 256
	}
	cfg.Width = min(cfg.Width, cfg.MaxSurfaceSize)
	cfg.Height = min(cfg.Height, cfg.MaxSurfaceSize)
	if cfg.LineBudget <= 0 {
		cfg.LineBudget = imgdiff.DefaultLineBudget
	}
	if cfg.TriangleBudget <= 0 {
		cfg.TriangleBudget = imgdiff.DefaultTriangleBudget
	}

	Logger().Info("drawconf: runner created",
		slog.String("result", result.Name()),
		slog.String("reference", reference.Name()),
		slog.Int("width", cfg.Width),
		slog.Int("height", cfg.Height))

	return &DrawRunner{
		resultPack: NewAttribPack(result, cfg.Width, cfg.Height),
		refPack:    NewAttribPack(reference, cfg.Width, cfg.Height),
		cfg:        cfg,
		status:     StatusRunning,
		threshold:  imgdiff.Threshold([3]int{8, 8, 8}),
	}
}

// AddIteration queues a specification. Invalid specifications are
// silently discarded: the test generator is expected to pre-filter, and
// the check here is only a safety net.
func (r *DrawRunner) AddIteration(spec DrawSpec, desc string) {
	if !spec.Valid() {
		Logger().Debug("drawconf: dropping invalid specification",
			slog.String("name", spec.Name()))
		return
	}
	r.iterations = append(r.iterations, iteration{spec: spec, desc: desc})
}

// Status returns the overall outcome so far.
func (r *DrawRunner) Status() Status {
	return r.status
}

// Failure returns the recorded failure reason, empty while passing.
func (r *DrawRunner) Failure() string {
	return r.failure
}

// Iterate executes one step and reports whether more steps remain. A
// non-nil error is a fatal backend error; comparison failures are
// recorded in Status instead. After a failure no further steps execute.
func (r *DrawRunner) Iterate() (bool, error) {
	if r.status != StatusRunning {
		return false, nil
	}
	if len(r.iterations) == 0 {
		r.status = StatusPassed
		return false, nil
	}

	it := &r.iterations[r.current]
	var err error
	switch r.phase {
	case PhaseDraw:
		err = r.drawStep(it)
		r.phase = PhaseCompare
	case PhaseCompare:
		r.compareStep(it)
		r.phase = PhaseDraw
		r.current++
	}

	if err != nil {
		r.fail(err.Error())
		return false, err
	}
	if r.status != StatusRunning {
		return false, nil
	}
	if r.current == len(r.iterations) {
		r.status = StatusPassed
		return false, nil
	}
	return true, nil
}

// fail records a failure and halts further steps.
func (r *DrawRunner) fail(reason string) {
	r.status = StatusFailed
	r.failure = reason
}

// drawStep generates this iteration's data, rebuilds the program when
// needed and issues the identical draw on both backends.
func (r *DrawRunner) drawStep(it *iteration) error {
	spec := &it.spec
	hash := spec.Hash()
	info := spec.Method.info()

	elemCount := ElementCount(spec.Primitive, spec.PrimitiveCount)

	// Number of elements the attribute arrays must provide.
	arrayElems := elemCount
	switch {
	case info.ranged:
		arrayElems = spec.IndexMax + 1
	case info.first:
		arrayElems = spec.First + elemCount
	}

	data := &stepData{
		attribData: make([][]byte, len(spec.Attribs)),
		defaults:   make([][4]scalar.Value, len(spec.Attribs)),
	}
	for i, a := range spec.Attribs {
		seed := hash + uint32(i)
		if a.UseDefaultAttribute {
			data.defaults[i] = datagen.AttribValue(seed, a.InputType)
			continue
		}
		// A divisor attribute advances once per InstanceDivisor
		// instances, so its array is sized by the instance count, not by
		// the vertex element count.
		count := arrayElems
		if info.instanced && a.InstanceDivisor > 0 {
			count = 0
			if spec.InstanceCount > 0 {
				count = (spec.InstanceCount-1)/a.InstanceDivisor + 1
			}
		}
		data.attribData[i] = datagen.Array(seed, count, a.ComponentCount,
			a.Offset, a.Stride, a.InputType)
	}
	if info.indexed {
		indexMin, indexMax := 0, elemCount-1
		if info.ranged {
			indexMin, indexMax = spec.IndexMin, spec.IndexMax
		}
		data.indexData = datagen.Indices(hash, elemCount, spec.IndexType,
			spec.IndexOffset, indexMin, indexMax)
	}

	// Rebuild the program only when the previous specification is not
	// shader-compatible with this one.
	var prog *shadergen.Program
	if r.progSpec == nil || !ShaderCompatible(r.progSpec, spec) {
		p := shadergen.Generate(shaderInputs(spec))
		prog = &p
	}
	r.progSpec = spec

	coordScale := r.coordScale(spec)
	colorScale := r.colorScale(spec)

	cmd := DrawCommand{
		Primitive:     spec.Primitive,
		Method:        spec.Method,
		First:         spec.First,
		Count:         elemCount,
		InstanceCount: spec.InstanceCount,
		IndexType:     spec.IndexType,
		IndexMin:      spec.IndexMin,
		IndexMax:      spec.IndexMax,
	}

	Logger().Debug("drawconf: draw step",
		slog.String("name", spec.Name()),
		slog.Uint64("hash", uint64(hash)),
		slog.Int("elements", elemCount))

	// Strictly sequential: the reference context is not thread-safe.
	if err := r.runPack(it, r.resultPack, spec, prog, data, cmd, coordScale, colorScale); err != nil {
		return err
	}
	return r.runPack(it, r.refPack, spec, prog, data, cmd, coordScale, colorScale)
}

// runPack executes the draw on one pack, acknowledging categorized
// rejections of recognized compatibility tests.
func (r *DrawRunner) runPack(it *iteration, pack *AttribPack, spec *DrawSpec, prog *shadergen.Program, data *stepData, cmd DrawCommand, coordScale, colorScale float32) error {
	err := pack.run(spec, prog, data, cmd, coordScale, colorScale)
	if err == nil {
		return nil
	}

	var drawErr *DrawError
	if errors.As(err, &drawErr) && compatAccepts(spec.CompatTest(), drawErr.Kind) {
		Logger().Warn("drawconf: compatibility test rejected as expected",
			slog.String("backend", pack.Context().Name()),
			slog.String("kind", drawErr.Kind.String()),
			slog.String("classification", spec.CompatTest().String()))
		it.skipCompare = true
		return nil
	}
	return fmt.Errorf("draw on %s: %w", pack.Context().Name(), err)
}

// compatAccepts reports whether a compatibility-test classification
// expects a rejection of the given category. The generic invalid
// operation is accepted for either classification.
func compatAccepts(c CompatTest, k DrawErrorKind) bool {
	switch c {
	case CompatUnalignedOffset:
		return k == DrawErrUnalignedOffset || k == DrawErrInvalidOperation
	case CompatUnalignedStride:
		return k == DrawErrUnalignedStride || k == DrawErrInvalidOperation
	default:
		return false
	}
}

// compareStep diffs the two surfaces with the comparison strategy of the
// specification's primitive class.
func (r *DrawRunner) compareStep(it *iteration) {
	if it.skipCompare {
		return
	}
	spec := &it.spec

	ref := r.refPack.Surface().RGBA()
	res := r.resultPack.Surface().RGBA()

	var result imgdiff.Result
	switch spec.Primitive.Class() {
	case ClassPoint:
		result = imgdiff.ComparePoints(ref, res, r.threshold)
	case ClassLine:
		result = imgdiff.CompareLines(ref, res, r.threshold, r.cfg.LineBudget)
	case ClassTriangle:
		result = imgdiff.CompareTriangles(ref, res, r.threshold, r.cfg.TriangleBudget)
	}

	if result.Match {
		return
	}
	r.saveMask(spec, result)

	if spec.CompatTest() != CompatNone {
		// Expected failure: the backend tolerated the misaligned layout
		// but rendered it differently.
		Logger().Warn("drawconf: comparison failure acknowledged for compatibility test",
			slog.String("name", spec.Name()),
			slog.Int("faulty", result.Faulty))
		return
	}

	r.fail(fmt.Sprintf("image comparison failed for %s: %d faulty pixels", spec.Name(), result.Faulty))
}

// saveMask persists the comparison's error mask when a mask directory
// is configured. Persistence failure is logged, never fatal: the mask
// is diagnostic output, not part of the verdict.
func (r *DrawRunner) saveMask(spec *DrawSpec, result imgdiff.Result) {
	if r.cfg.MaskDir == "" {
		return
	}
	path := filepath.Join(r.cfg.MaskDir, spec.Name()+".png")
	if err := imgdiff.SaveMask(path, result.Mask); err != nil {
		Logger().Warn("drawconf: saving error mask failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	Logger().Info("drawconf: error mask written",
		slog.String("path", path),
		slog.Int("faulty", result.Faulty))
}

// shaderInputs maps a specification's attributes to shader inputs.
func shaderInputs(spec *DrawSpec) []shadergen.Input {
	inputs := make([]shadergen.Input, len(spec.Attribs))
	for i, a := range spec.Attribs {
		inputs[i] = shadergen.Input{
			Name:       fmt.Sprintf("a_%d", i),
			Location:   i,
			Components: a.OutputType.Components(),
			Class:      a.OutputType.Class(),
			Position:   spec.positional(i),
		}
	}
	return inputs
}

// attribMaxValue is the largest magnitude an attribute contributes after
// fetch conversion.
func attribMaxValue(a AttribSpec) float64 {
	if a.InputType.Packed() {
		if a.Normalize {
			return 1
		}
		return 1023
	}
	if a.Normalize {
		return 1
	}
	return scalar.Max(a.InputType).Float()
}

// coordScale is derived once per specification so the summed
// position-role contributions stay within clip range no matter which
// encodings the specification mixes. Contributions are additive, so the
// bounds multiply.
func (r *DrawRunner) coordScale(spec *DrawSpec) float32 {
	scale := 1.0
	for i, a := range spec.Attribs {
		if !spec.positional(i) {
			continue
		}
		v := attribMaxValue(a) * 1.1
		if a.OutputType.Components() == 4 {
			// Pairwise combination sums two component pairs.
			v *= 2
		}
		scale *= v
	}
	return float32(1.0 / scale)
}

// colorScale keeps the multiplicatively combined color-role
// contributions within displayable range.
func (r *DrawRunner) colorScale(spec *DrawSpec) float32 {
	scale := 1.0
	for i, a := range spec.Attribs {
		if spec.positional(i) {
			continue
		}
		max := attribMaxValue(a)
		scale /= max
		if a.OutputType.Components() == 4 {
			// The fourth component multiplies in once more.
			scale /= max
		}
	}
	return float32(scale)
}

// Destroy releases both packs' backend resources.
func (r *DrawRunner) Destroy() {
	r.resultPack.Destroy()
	r.refPack.Destroy()
}
