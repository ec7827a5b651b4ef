// Package schedule derives the epoch-indexed training plan from a validated
// configuration: when warm-up hands over to the main schedule, when mixup
// intensity steps up, and how the input resolution grows under progressive
// learning. The package only computes the plan; acting on it is the training
// program's job.
package schedule

import (
	"math"

	"github.com/eugenenazirov/traincfg/internal/schema"
)

// Plan is the derived epoch bookkeeping for one training run. All epoch
// values are zero-based and relative to the end of warm-up; fields holding -1
// mark events that never fire.
type Plan struct {
	Epochs         int `json:"epochs"`
	WarmEpochs     int `json:"warmEpochs"`
	TotalEpochs    int `json:"totalEpochs"`
	MomentumSwitch int `json:"momentumSwitch"`
	AugWeakenEpoch int `json:"augWeakenEpoch"`
	FocalSwitch    int `json:"focalSwitch"`

	// MixupChangeNodes are the two epochs at which the mixup blend
	// distribution sharpens; ResizeMilestones are the matching input
	// heights, growing from half to full resolution. Both are nil unless
	// progressive learning is enabled.
	MixupChangeNodes []int `json:"mixupChangeNodes,omitempty"`
	ResizeMilestones []int `json:"resizeMilestones,omitempty"`
}

// BuildPlan computes the plan for a validated configuration.
func BuildPlan(cfg *schema.Config) Plan {
	hyp := cfg.Hyp

	plan := Plan{
		Epochs:         hyp.Epochs,
		WarmEpochs:     hyp.WarmEpochs,
		TotalEpochs:    hyp.Epochs + hyp.WarmEpochs,
		MomentumSwitch: hyp.WarmEpochs,
		AugWeakenEpoch: -1,
		FocalSwitch:    -1,
	}

	if cfg.Data.Train.AugEpoch > 0 {
		plan.AugWeakenEpoch = cfg.Data.Train.AugEpoch
	}
	if hyp.Strategy.Focal.Enabled {
		plan.FocalSwitch = hyp.Strategy.Focal.StartEpoch
	}

	if hyp.Strategy.ProgLearn {
		start, end := hyp.Strategy.Mixup.EpochRange[0], hyp.Strategy.Mixup.EpochRange[1]
		plan.MixupChangeNodes = changeNodes(start, end)
		plan.ResizeMilestones = resizeMilestones(minHeight(cfg.Data.ImageSizes))
	}

	return plan
}

// changeNodes splits the mixup range into two stages: the range start and
// its rounded midpoint.
func changeNodes(start, end int) []int {
	nodes := linspace(float64(start), float64(end), 3)
	return []int{
		int(math.Round(nodes[0])),
		int(math.Round(nodes[1])),
	}
}

// resizeMilestones grows the input height from half to full resolution in
// three stages. Values truncate toward zero.
func resizeMilestones(height int) []int {
	stages := linspace(float64(height)*0.5, float64(height), 3)
	out := make([]int, len(stages))
	for i, v := range stages {
		out[i] = int(v)
	}
	return out
}

func minHeight(sizes []schema.ImageSize) int {
	min := sizes[0].Height
	for _, size := range sizes[1:] {
		if size.Height < min {
			min = size.Height
		}
	}
	return min
}

// linspace returns n evenly spaced values from start to end inclusive.
func linspace(start, end float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	step := (end - start) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = end
	return out
}
