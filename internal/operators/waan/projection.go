package waan

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ec-jrc/abcd-go/pkg/wire"
)

// ProjectionAnalyzer is an alternative analyzer: instead of gated
// integrals it projects the waveform onto a small fixed basis (a
// matmul against Basis), the way a digitizer's onboard DSP might
// reduce a pulse to a handful of optimal-filter coefficients. The
// first two projected coefficients become Qshort/Qlong; the analyzer
// never drops a waveform.
type ProjectionAnalyzer struct {
	// Basis is a (k x samples) matrix; each row is one basis vector the
	// waveform is projected onto. k must be at least 2.
	Basis *mat.Dense
}

// NewProjectionAnalyzer validates basis and returns an analyzer bound
// to it.
func NewProjectionAnalyzer(basis *mat.Dense) (*ProjectionAnalyzer, error) {
	rows, _ := basis.Dims()
	if rows < 2 {
		return nil, fmt.Errorf("waan: projection basis needs at least 2 rows, got %d", rows)
	}
	return &ProjectionAnalyzer{Basis: basis}, nil
}

// Analyze implements AnalyzeFunc: samples is projected onto Basis and
// the first two coefficients become Qshort/Qlong.
func (p *ProjectionAnalyzer) Analyze(samples []uint16, _ [][]uint8, cfg ChannelConfig) (wire.PSDEvent, bool) {
	_, cols := p.Basis.Dims()
	n := cols
	if len(samples) < n {
		n = len(samples)
	}

	baseline := estimateBaseline(samples, cfg.BaselineSamples)

	signal := mat.NewVecDense(cols, nil)
	for i := 0; i < n; i++ {
		signal.SetVec(i, baseline-float64(samples[i]))
	}

	var projected mat.VecDense
	projected.MulVec(p.Basis, signal)

	return wire.PSDEvent{
		Qshort:   clampUint16(projected.AtVec(0)),
		Qlong:    clampUint16(projected.AtVec(1)),
		Baseline: clampUint16(baseline),
	}, true
}
