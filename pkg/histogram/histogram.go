// Package histogram implements the 1D and 2D histogram engines (spec
// §4.6): fixed-bin-count running counters, filled one value at a time
// and serialized to the JSON shape the dashboard sink expects.
package histogram

import (
	"encoding/json"
	"fmt"
	"math"
)

// Config describes a 1D histogram's binning.
type Config struct {
	Bins     int     `json:"bins"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	BinWidth float64 `json:"bin_width"`
}

// Histogram1D is a fixed-range, fixed-bin-count counter over a stream
// of float64 values.
type Histogram1D struct {
	config Config
	counts []uint64
}

// New1D builds a Histogram1D with bins buckets spanning [min, max).
func New1D(bins int, min, max float64) (*Histogram1D, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("histogram: bins must be positive, got %d", bins)
	}
	if max <= min {
		return nil, fmt.Errorf("histogram: max (%v) must be greater than min (%v)", max, min)
	}
	h := &Histogram1D{
		config: Config{
			Bins:     bins,
			Min:      min,
			Max:      max,
			BinWidth: (max - min) / float64(bins),
		},
	}
	h.counts = make([]uint64, bins)
	return h, nil
}

// Fill increments the bin value falls into. Values outside [min, max)
// are silently dropped (spec P7: sum of bin counts is at most the
// number of Fill calls, with equality exactly when every value lands
// in range).
func (h *Histogram1D) Fill(value float64) {
	bin := int(math.Floor((value - h.config.Min) / h.config.BinWidth))
	if bin < 0 || bin >= h.config.Bins {
		return
	}
	h.counts[bin]++
}

// Reset zeroes every bin without changing the binning.
func (h *Histogram1D) Reset() {
	for i := range h.counts {
		h.counts[i] = 0
	}
}

// Counts returns the live bin counters. The caller must not mutate the
// returned slice.
func (h *Histogram1D) Counts() []uint64 { return h.counts }

// Config reports the histogram's binning.
func (h *Histogram1D) Config() Config { return h.config }

// histogram1DJSON mirrors the {config, histo} shape emitted by the
// reference implementation's to_json().
type histogram1DJSON struct {
	Config Config   `json:"config"`
	Histo  []uint64 `json:"histo"`
}

// MarshalJSON renders {"config": {...}, "histo": [...]}.
func (h *Histogram1D) MarshalJSON() ([]byte, error) {
	return json.Marshal(histogram1DJSON{Config: h.config, Histo: h.counts})
}

// Config2D describes a 2D histogram's binning on both axes.
type Config2D struct {
	BinsX     int     `json:"bins_x"`
	MinX      float64 `json:"min_x"`
	MaxX      float64 `json:"max_x"`
	BinWidthX float64 `json:"bin_width_x"`

	BinsY     int     `json:"bins_y"`
	MinY      float64 `json:"min_y"`
	MaxY      float64 `json:"max_y"`
	BinWidthY float64 `json:"bin_width_y"`
}

// Histogram2D is the two-axis counterpart of Histogram1D, used for
// qshort-vs-qlong PSD plots.
type Histogram2D struct {
	config Config2D
	counts [][]uint64
}

// New2D builds a Histogram2D spanning [minX,maxX) x [minY,maxY).
func New2D(binsX int, minX, maxX float64, binsY int, minY, maxY float64) (*Histogram2D, error) {
	if binsX <= 0 || binsY <= 0 {
		return nil, fmt.Errorf("histogram: bins must be positive, got (%d, %d)", binsX, binsY)
	}
	if maxX <= minX || maxY <= minY {
		return nil, fmt.Errorf("histogram: max must be greater than min on both axes")
	}
	h := &Histogram2D{
		config: Config2D{
			BinsX: binsX, MinX: minX, MaxX: maxX, BinWidthX: (maxX - minX) / float64(binsX),
			BinsY: binsY, MinY: minY, MaxY: maxY, BinWidthY: (maxY - minY) / float64(binsY),
		},
	}
	h.counts = make([][]uint64, binsX)
	for i := range h.counts {
		h.counts[i] = make([]uint64, binsY)
	}
	return h, nil
}

// Fill increments the (x, y) bin, dropping the pair if either
// coordinate falls outside its axis range.
func (h *Histogram2D) Fill(x, y float64) {
	binX := int(math.Floor((x - h.config.MinX) / h.config.BinWidthX))
	binY := int(math.Floor((y - h.config.MinY) / h.config.BinWidthY))
	if binX < 0 || binX >= h.config.BinsX || binY < 0 || binY >= h.config.BinsY {
		return
	}
	h.counts[binX][binY]++
}

// Reset zeroes every bin without changing the binning.
func (h *Histogram2D) Reset() {
	for i := range h.counts {
		for j := range h.counts[i] {
			h.counts[i][j] = 0
		}
	}
}

// Counts returns the live bin matrix, indexed [x][y]. The caller must
// not mutate it.
func (h *Histogram2D) Counts() [][]uint64 { return h.counts }

// Config reports the histogram's binning.
func (h *Histogram2D) Config() Config2D { return h.config }

type histogram2DJSON struct {
	Config Config2D   `json:"config"`
	Histo  [][]uint64 `json:"histo2D"`
}

// MarshalJSON renders {"config": {...}, "histo2D": [[...], ...]}.
func (h *Histogram2D) MarshalJSON() ([]byte, error) {
	return json.Marshal(histogram2DJSON{Config: h.config, Histo: h.counts})
}
