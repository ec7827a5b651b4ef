package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultLrfRatio = 0.1

// Load reads and parses the training configuration document at path.
// Loading the same file twice yields equal configurations.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a training configuration document, applies defaults,
// normalizes shorthand notation, and validates every invariant. The first
// violation is returned as a ParseError, SchemaError, or ValidationError.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc yamlDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: errors.New("empty document")}
		}
		return nil, classifyDecodeError(err)
	}

	cfg, err := doc.toConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// classifyDecodeError maps yaml decoding failures onto the error taxonomy.
// Type mismatches and unknown fields arrive as *yaml.TypeError; anything
// else is malformed syntax.
func classifyDecodeError(err error) error {
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return schemaErr
	}
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return &SchemaError{Field: "document", Reason: strings.Join(typeErr.Errors, "; ")}
	}
	return &ParseError{Err: err}
}

// yamlDocument mirrors the on-disk document structure. Pointer sections
// distinguish "absent" from "present but empty".
type yamlDocument struct {
	Model *yamlModel `yaml:"model"`
	Data  *yamlData  `yaml:"data"`
	Hyp   *yamlHyp   `yaml:"hyp"`
}

type yamlModel struct {
	Choice         string         `yaml:"choice"`
	Kwargs         map[string]any `yaml:"kwargs"`
	NumClasses     int            `yaml:"num_classes"`
	Pretrained     bool           `yaml:"pretrained"`
	BackboneFreeze bool           `yaml:"backbone_freeze"`
	BNFreeze       bool           `yaml:"bn_freeze"`
	BNFreezeAffine bool           `yaml:"bn_freeze_affine"`
}

type yamlData struct {
	Root       string     `yaml:"root"`
	NumWorkers *int       `yaml:"nw"`
	ImageSizes sizeList   `yaml:"imgsz"`
	Train      *yamlSplit `yaml:"train"`
	Val        *yamlSplit `yaml:"val"`
}

type yamlSplit struct {
	BatchSize int      `yaml:"bs"`
	Augment   stepList `yaml:"augment"`
	AugEpoch  int      `yaml:"aug_epoch"`
}

type yamlHyp struct {
	Epochs         int           `yaml:"epochs"`
	LR0            float64       `yaml:"lr0"`
	LrfRatio       *float64      `yaml:"lrf_ratio"`
	Momentum       float64       `yaml:"momentum"`
	WeightDecay    float64       `yaml:"weight_decay"`
	WarmupMomentum float64       `yaml:"warmup_momentum"`
	WarmEpochs     int           `yaml:"warm_ep"`
	Loss           *yamlLoss     `yaml:"loss"`
	LabelSmooth    float64       `yaml:"label_smooth"`
	Strategy       *yamlStrategy `yaml:"strategy"`
	Optimizer      string        `yaml:"optimizer"`
	Scheduler      string        `yaml:"scheduler"`
}

type yamlLoss struct {
	CE  bool `yaml:"ce"`
	BCE bool `yaml:"bce"`
}

type yamlStrategy struct {
	ProgLearn bool       `yaml:"prog_learn"`
	Mixup     *yamlMixup `yaml:"mixup"`
	Focal     *yamlFocal `yaml:"focal"`
}

type yamlMixup struct {
	Ratio      float64 `yaml:"ratio"`
	EpochRange []int   `yaml:"epoch_range"`
}

type yamlFocal struct {
	Enabled    bool `yaml:"enabled"`
	StartEpoch int  `yaml:"start_epoch"`
}

// stepList accepts either a space-separated scalar ("resize to_tensor") or a
// YAML sequence of step names.
type stepList []string

func (l *stepList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*l = strings.Fields(raw)
		return nil
	case yaml.SequenceNode:
		var raw []string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*l = raw
		return nil
	}
	return schemaErrf("augment", "line %d: want a string or a sequence of step names", node.Line)
}

// sizeList accepts the shorthand image-size forms:
//
//	imgsz: 360            -> [(360, adaptive)]
//	imgsz: [360]          -> [(360, adaptive)]
//	imgsz: [360, 640]     -> [(360, 640)]
//	imgsz: [[360], [224, 224]] -> [(360, adaptive), (224, 224)]
type sizeList []ImageSize

func (l *sizeList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		size, err := decodeSizeEntry(node)
		if err != nil {
			return err
		}
		*l = []ImageSize{size}
		return nil
	case yaml.SequenceNode:
		sizes, err := decodeSizeSequence(node)
		if err != nil {
			return err
		}
		*l = sizes
		return nil
	}
	return schemaErrf("data.imgsz", "line %d: want an integer, a pair, or a sequence of sizes", node.Line)
}

func decodeSizeSequence(node *yaml.Node) ([]ImageSize, error) {
	scalars := 0
	for _, entry := range node.Content {
		if entry.Kind == yaml.ScalarNode {
			scalars++
		}
	}
	if scalars != 0 && scalars != len(node.Content) {
		return nil, schemaErrf("data.imgsz", "line %d: cannot mix integers and pairs in one sequence", node.Line)
	}

	// A flat pair of integers is a single (height, width) entry.
	if scalars == len(node.Content) && len(node.Content) == 2 {
		size, err := decodeSizePair(node)
		if err != nil {
			return nil, err
		}
		return []ImageSize{size}, nil
	}

	sizes := make([]ImageSize, 0, len(node.Content))
	for _, entry := range node.Content {
		var (
			size ImageSize
			err  error
		)
		switch entry.Kind {
		case yaml.ScalarNode:
			size, err = decodeSizeEntry(entry)
		case yaml.SequenceNode:
			size, err = decodeSizePair(entry)
		default:
			err = schemaErrf("data.imgsz", "line %d: want an integer or a pair", entry.Line)
		}
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

func decodeSizeEntry(node *yaml.Node) (ImageSize, error) {
	var height int
	if err := node.Decode(&height); err != nil {
		return ImageSize{}, schemaErrf("data.imgsz", "line %d: want an integer size", node.Line)
	}
	return ImageSize{Height: height}, nil
}

func decodeSizePair(node *yaml.Node) (ImageSize, error) {
	var pair []int
	if err := node.Decode(&pair); err != nil {
		return ImageSize{}, schemaErrf("data.imgsz", "line %d: want integer sizes", node.Line)
	}
	switch len(pair) {
	case 1:
		return ImageSize{Height: pair[0]}, nil
	case 2:
		return ImageSize{Height: pair[0], Width: pair[1]}, nil
	}
	return ImageSize{}, schemaErrf("data.imgsz", "line %d: a size entry holds one or two integers, got %d", node.Line, len(pair))
}

// toConfig maps the raw document onto typed entities and applies defaults.
func (d *yamlDocument) toConfig() (*Config, error) {
	if d.Model == nil {
		return nil, schemaErrf("model", "required section missing")
	}
	if d.Data == nil {
		return nil, schemaErrf("data", "required section missing")
	}
	if d.Hyp == nil {
		return nil, schemaErrf("hyp", "required section missing")
	}

	family, name, ok := strings.Cut(d.Model.Choice, "-")
	if !ok || family == "" || name == "" {
		return nil, schemaErrf("model.choice", "want \"family-name\" (e.g. torchvision-resnet50), got %q", d.Model.Choice)
	}

	cfg := &Config{
		Model: ModelConfig{
			Family:         ModelFamily(family),
			Name:           name,
			Kwargs:         d.Model.Kwargs,
			NumClasses:     d.Model.NumClasses,
			Pretrained:     d.Model.Pretrained,
			BackboneFreeze: d.Model.BackboneFreeze,
			BNFreeze:       d.Model.BNFreeze,
			BNFreezeAffine: d.Model.BNFreezeAffine,
		},
		Data: DataConfig{
			Root:       d.Data.Root,
			ImageSizes: d.Data.ImageSizes,
		},
	}

	if d.Data.NumWorkers != nil {
		cfg.Data.NumWorkers = *d.Data.NumWorkers
	}

	train, err := toSplit("data.train", d.Data.Train)
	if err != nil {
		return nil, err
	}
	val, err := toSplit("data.val", d.Data.Val)
	if err != nil {
		return nil, err
	}
	cfg.Data.Train = train
	cfg.Data.Val = val

	hyp, err := toHyp(d.Hyp)
	if err != nil {
		return nil, err
	}
	cfg.Hyp = hyp

	return cfg, nil
}

func toSplit(field string, raw *yamlSplit) (SplitConfig, error) {
	if raw == nil {
		return SplitConfig{}, schemaErrf(field, "required section missing")
	}
	return SplitConfig{
		BatchSize:    raw.BatchSize,
		AugmentSteps: raw.Augment,
		AugEpoch:     raw.AugEpoch,
	}, nil
}

func toHyp(raw *yamlHyp) (HypConfig, error) {
	if raw.Loss == nil {
		return HypConfig{}, schemaErrf("hyp.loss", "required section missing")
	}

	hyp := HypConfig{
		Epochs:         raw.Epochs,
		LR0:            raw.LR0,
		LrfRatio:       defaultLrfRatio,
		Momentum:       raw.Momentum,
		WeightDecay:    raw.WeightDecay,
		WarmupMomentum: raw.WarmupMomentum,
		WarmEpochs:     raw.WarmEpochs,
		Loss:           LossConfig{CE: raw.Loss.CE, BCE: raw.Loss.BCE},
		LabelSmooth:    raw.LabelSmooth,
		Optimizer:      Optimizer(raw.Optimizer),
		Scheduler:      Scheduler(raw.Scheduler),
	}
	if raw.LrfRatio != nil {
		hyp.LrfRatio = *raw.LrfRatio
	}

	if raw.Strategy != nil {
		hyp.Strategy.ProgLearn = raw.Strategy.ProgLearn
		if raw.Strategy.Focal != nil {
			hyp.Strategy.Focal = FocalConfig{
				Enabled:    raw.Strategy.Focal.Enabled,
				StartEpoch: raw.Strategy.Focal.StartEpoch,
			}
		}
		if raw.Strategy.Mixup != nil {
			hyp.Strategy.Mixup.Ratio = raw.Strategy.Mixup.Ratio
			if n := len(raw.Strategy.Mixup.EpochRange); n != 0 && n != 2 {
				return HypConfig{}, schemaErrf("hyp.strategy.mixup.epoch_range", "want [start, end], got %d values", n)
			}
			if len(raw.Strategy.Mixup.EpochRange) == 2 {
				hyp.Strategy.Mixup.EpochRange = [2]int{
					raw.Strategy.Mixup.EpochRange[0],
					raw.Strategy.Mixup.EpochRange[1],
				}
			}
		}
	}

	return hyp, nil
}
