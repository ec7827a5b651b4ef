package schema

import "fmt"

// ModelFamily identifies where a model architecture comes from.
type ModelFamily string

const (
	FamilyTorchvision ModelFamily = "torchvision"
	FamilyCustom      ModelFamily = "custom"
)

// Optimizer is a closed enum of supported optimizers.
type Optimizer string

const (
	OptimizerSGD  Optimizer = "sgd"
	OptimizerAdam Optimizer = "adam"
)

// Scheduler is a closed enum of supported learning-rate schedules.
type Scheduler string

const (
	SchedulerLinear         Scheduler = "linear"
	SchedulerCosineWithWarm Scheduler = "cosine_with_warm"
)

// Config is a fully validated training configuration. It is constructed once
// by Load or Parse and never mutated afterwards.
type Config struct {
	Model ModelConfig `json:"model"`
	Data  DataConfig  `json:"data"`
	Hyp   HypConfig   `json:"hyp"`
}

// ModelConfig describes the model to construct. The document carries a single
// `choice: "family-name"` token which the loader splits into Family and Name.
type ModelConfig struct {
	Family         ModelFamily    `json:"family"`
	Name           string         `json:"name"`
	Kwargs         map[string]any `json:"kwargs,omitempty"`
	NumClasses     int            `json:"numClasses"`
	Pretrained     bool           `json:"pretrained"`
	BackboneFreeze bool           `json:"backboneFreeze"`
	BNFreeze       bool           `json:"bnFreeze"`
	BNFreezeAffine bool           `json:"bnFreezeAffine"`
}

// DataConfig describes the dataset location and the train/val pipelines.
type DataConfig struct {
	Root       string      `json:"root"`
	NumWorkers int         `json:"numWorkers"`
	ImageSizes []ImageSize `json:"imageSizes"`
	Train      SplitConfig `json:"train"`
	Val        SplitConfig `json:"val"`
}

// ImageSize is a (height, width) pair. A Width of zero means the width is
// adaptive: the image is resized so its shorter edge matches Height.
type ImageSize struct {
	Height int `json:"height"`
	Width  int `json:"width,omitempty"`
}

// Adaptive reports whether the width follows the aspect ratio.
func (s ImageSize) Adaptive() bool { return s.Width == 0 }

func (s ImageSize) String() string {
	if s.Adaptive() {
		return fmt.Sprintf("(%d, adaptive)", s.Height)
	}
	return fmt.Sprintf("(%d, %d)", s.Height, s.Width)
}

// SplitConfig configures one dataset split. AugEpoch of zero means the
// augmentation pipeline is never weakened.
type SplitConfig struct {
	BatchSize    int      `json:"batchSize"`
	AugmentSteps []string `json:"augmentSteps"`
	AugEpoch     int      `json:"augEpoch,omitempty"`
}

// LossConfig selects the classification loss. Exactly one flag is true.
type LossConfig struct {
	CE  bool `json:"ce"`
	BCE bool `json:"bce"`
}

// Choice returns the name of the selected loss.
func (l LossConfig) Choice() string {
	if l.BCE {
		return "bce"
	}
	return "ce"
}

// MixupConfig blends sample pairs with the given ratio inside the half-open
// epoch range [start, end). A ratio of zero disables mixup.
type MixupConfig struct {
	Ratio      float64 `json:"ratio"`
	EpochRange [2]int  `json:"epochRange"`
}

// Enabled reports whether mixup participates in training.
func (m MixupConfig) Enabled() bool { return m.Ratio > 0 }

// FocalConfig switches the loss to focal loss from StartEpoch onwards.
type FocalConfig struct {
	Enabled    bool `json:"enabled"`
	StartEpoch int  `json:"startEpoch"`
}

// StrategyConfig groups the optional training strategies.
type StrategyConfig struct {
	ProgLearn bool        `json:"progLearn"`
	Mixup     MixupConfig `json:"mixup"`
	Focal     FocalConfig `json:"focal"`
}

// HypConfig holds the optimisation hyperparameters.
type HypConfig struct {
	Epochs         int            `json:"epochs"`
	LR0            float64        `json:"lr0"`
	LrfRatio       float64        `json:"lrfRatio"`
	Momentum       float64        `json:"momentum"`
	WeightDecay    float64        `json:"weightDecay"`
	WarmupMomentum float64        `json:"warmupMomentum"`
	WarmEpochs     int            `json:"warmEpochs"`
	Loss           LossConfig     `json:"loss"`
	LabelSmooth    float64        `json:"labelSmooth"`
	Strategy       StrategyConfig `json:"strategy"`
	Optimizer      Optimizer      `json:"optimizer"`
	Scheduler      Scheduler      `json:"scheduler"`
}

// Clone returns a deep copy so callers can hold configurations without
// sharing the kwargs map or slices with other readers.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c

	if c.Model.Kwargs != nil {
		out.Model.Kwargs = make(map[string]any, len(c.Model.Kwargs))
		for k, v := range c.Model.Kwargs {
			out.Model.Kwargs[k] = v
		}
	}

	out.Data.ImageSizes = append([]ImageSize(nil), c.Data.ImageSizes...)
	out.Data.Train.AugmentSteps = append([]string(nil), c.Data.Train.AugmentSteps...)
	out.Data.Val.AugmentSteps = append([]string(nil), c.Data.Val.AugmentSteps...)

	return &out
}
