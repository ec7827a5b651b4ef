package schema

import (
	"slices"

	"github.com/eugenenazirov/traincfg/internal/augment"
)

// validate checks every invariant in document order and stops at the first
// violation.
func (c *Config) validate() error {
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateData(); err != nil {
		return err
	}
	return c.validateHyp()
}

func (c *Config) validateModel() error {
	m := c.Model

	switch m.Family {
	case FamilyTorchvision, FamilyCustom:
	default:
		return schemaErrf("model.choice", "unknown model family %q, want torchvision or custom", m.Family)
	}

	if m.NumClasses < 1 {
		return validationErrf("model.num_classes", "must be a positive integer, got %d", m.NumClasses)
	}

	// Pretrained weights fix the architecture; only dropout may be tuned.
	if m.Pretrained {
		for key := range m.Kwargs {
			if key != "dropout" {
				return validationErrf("model.kwargs", "%q cannot be set on a pretrained model; only dropout is allowed", key)
			}
		}
	}

	return nil
}

func (c *Config) validateData() error {
	d := c.Data

	if d.Root == "" {
		return validationErrf("data.root", "must not be empty")
	}
	if d.NumWorkers < 0 {
		return validationErrf("data.nw", "must be a non-negative integer, got %d", d.NumWorkers)
	}

	if len(d.ImageSizes) == 0 {
		return validationErrf("data.imgsz", "at least one image size is required")
	}
	for _, size := range d.ImageSizes {
		if size.Height < 1 {
			return validationErrf("data.imgsz", "height must be a positive integer, got %d", size.Height)
		}
		if size.Width < 0 {
			return validationErrf("data.imgsz", "width must be non-negative, got %d", size.Width)
		}
	}

	if err := validateSplit("data.train", d.Train); err != nil {
		return err
	}
	if err := validateSplit("data.val", d.Val); err != nil {
		return err
	}

	return c.validatePipelines()
}

func validateSplit(field string, split SplitConfig) error {
	if split.BatchSize < 1 {
		return validationErrf(field+".bs", "must be a positive integer, got %d", split.BatchSize)
	}
	if len(split.AugmentSteps) == 0 {
		return validationErrf(field+".augment", "at least one augmentation step is required")
	}
	for _, step := range split.AugmentSteps {
		if !augment.Recognized(step) {
			return schemaErrf(field+".augment", "unknown augmentation step %q", step)
		}
	}
	if split.AugEpoch < 0 {
		return validationErrf(field+".aug_epoch", "must be a positive integer, got %d", split.AugEpoch)
	}
	return nil
}

// validatePipelines checks the cross-split augmentation rules: size steps
// must be consistent between train and val, val must be the tail of train,
// and normalize tracks pretrained weights.
func (c *Config) validatePipelines() error {
	train := c.Data.Train.AugmentSteps
	val := c.Data.Val.AugmentSteps

	if slices.Contains(train, "center_crop") && slices.Contains(train, "resize") {
		return validationErrf("data.train.augment", "center_crop and resize cannot be combined; crop offline instead")
	}
	for _, step := range train {
		if augment.SizeStep(step) && !slices.Contains(val, step) {
			return validationErrf("data.val.augment", "size step %q used in train must also appear in val", step)
		}
	}
	if len(val) > len(train) || !slices.Equal(train[len(train)-len(val):], val) {
		return validationErrf("data.val.augment", "val steps must match the tail of the train pipeline")
	}

	trainNorm := slices.Contains(train, "normalize")
	valNorm := slices.Contains(val, "normalize")
	if c.Model.Pretrained && (!trainNorm || !valNorm) {
		return validationErrf("model.pretrained", "pretrained weights require normalize in both train and val pipelines")
	}
	if !c.Model.Pretrained && (trainNorm || valNorm) {
		return validationErrf("model.pretrained", "normalize requires pretrained weights")
	}

	return nil
}

func (c *Config) validateHyp() error {
	h := c.Hyp

	if h.Epochs < 1 {
		return validationErrf("hyp.epochs", "must be a positive integer, got %d", h.Epochs)
	}
	if h.LR0 <= 0 {
		return validationErrf("hyp.lr0", "must be a positive number, got %g", h.LR0)
	}
	if h.LrfRatio <= 0 || h.LrfRatio > 1 {
		return validationErrf("hyp.lrf_ratio", "must be in (0, 1], got %g", h.LrfRatio)
	}
	if h.Momentum < 0 || h.Momentum > 1 {
		return validationErrf("hyp.momentum", "must be in [0, 1], got %g", h.Momentum)
	}
	if h.WeightDecay < 0 {
		return validationErrf("hyp.weight_decay", "must be non-negative, got %g", h.WeightDecay)
	}
	if h.WarmEpochs < 0 {
		return validationErrf("hyp.warm_ep", "must be non-negative, got %d", h.WarmEpochs)
	}
	if h.WarmEpochs >= h.Epochs {
		return validationErrf("hyp.warm_ep", "must be smaller than epochs (%d >= %d)", h.WarmEpochs, h.Epochs)
	}

	if h.Loss.CE == h.Loss.BCE {
		return validationErrf("hyp.loss", "exactly one of ce/bce must be true")
	}
	if h.LabelSmooth < 0 || h.LabelSmooth > 1 {
		return validationErrf("hyp.label_smooth", "must be in [0, 1], got %g", h.LabelSmooth)
	}

	switch h.Optimizer {
	case OptimizerSGD, OptimizerAdam:
	default:
		return schemaErrf("hyp.optimizer", "unknown optimizer %q, want sgd or adam", h.Optimizer)
	}

	switch h.Scheduler {
	case SchedulerLinear, SchedulerCosineWithWarm:
	default:
		return schemaErrf("hyp.scheduler", "unknown scheduler %q, want linear or cosine_with_warm", h.Scheduler)
	}
	if h.WarmEpochs == 0 && h.Scheduler != SchedulerLinear {
		return validationErrf("hyp.scheduler", "without warm-up epochs the scheduler must be linear")
	}
	if h.WarmEpochs > 0 && h.Scheduler != SchedulerCosineWithWarm {
		return validationErrf("hyp.scheduler", "warm-up epochs require cosine_with_warm")
	}

	return c.validateStrategy()
}

func (c *Config) validateStrategy() error {
	s := c.Hyp.Strategy

	if s.Mixup.Ratio < 0 || s.Mixup.Ratio > 1 {
		return validationErrf("hyp.strategy.mixup.ratio", "must be in [0, 1], got %g", s.Mixup.Ratio)
	}
	if s.Mixup.Enabled() {
		start, end := s.Mixup.EpochRange[0], s.Mixup.EpochRange[1]
		if start < 0 || start >= end {
			return validationErrf("hyp.strategy.mixup.epoch_range", "want 0 <= start < end, got [%d, %d)", start, end)
		}
		if end > c.Hyp.Epochs {
			return validationErrf("hyp.strategy.mixup.epoch_range", "end must not exceed epochs (%d > %d)", end, c.Hyp.Epochs)
		}
	}

	if s.Focal.Enabled && !c.Hyp.Loss.BCE {
		return validationErrf("hyp.strategy.focal", "focal loss requires the bce loss")
	}
	if s.Focal.StartEpoch < 0 {
		return validationErrf("hyp.strategy.focal.start_epoch", "must be non-negative, got %d", s.Focal.StartEpoch)
	}

	if s.ProgLearn {
		if !s.Mixup.Enabled() {
			return validationErrf("hyp.strategy.prog_learn", "progressive learning requires a mixup ratio > 0")
		}
		if c.Data.Train.AugEpoch < s.Mixup.EpochRange[1] {
			return validationErrf("hyp.strategy.prog_learn", "progressive learning requires data.train.aug_epoch >= mixup end (%d < %d)", c.Data.Train.AugEpoch, s.Mixup.EpochRange[1])
		}
	}

	return nil
}
