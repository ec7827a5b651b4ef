package schedule

import (
	"reflect"
	"testing"

	"github.com/eugenenazirov/traincfg/internal/schema"
)

func baseConfig() *schema.Config {
	return &schema.Config{
		Data: schema.DataConfig{
			ImageSizes: []schema.ImageSize{{Height: 224, Width: 224}},
			Train: schema.SplitConfig{
				BatchSize:    32,
				AugmentSteps: []string{"resize", "to_tensor"},
				AugEpoch:     40,
			},
			Val: schema.SplitConfig{
				BatchSize:    64,
				AugmentSteps: []string{"resize", "to_tensor"},
			},
		},
		Hyp: schema.HypConfig{
			Epochs:     50,
			WarmEpochs: 3,
			Loss:       schema.LossConfig{BCE: true},
			Strategy: schema.StrategyConfig{
				ProgLearn: true,
				Mixup: schema.MixupConfig{
					Ratio:      0.2,
					EpochRange: [2]int{10, 30},
				},
				Focal: schema.FocalConfig{Enabled: true, StartEpoch: 5},
			},
		},
	}
}

func TestBuildPlan(t *testing.T) {
	plan := BuildPlan(baseConfig())

	if plan.Epochs != 50 || plan.WarmEpochs != 3 || plan.TotalEpochs != 53 {
		t.Fatalf("unexpected epoch accounting: %+v", plan)
	}
	if plan.MomentumSwitch != 3 {
		t.Fatalf("expected momentum switch at 3, got %d", plan.MomentumSwitch)
	}
	if plan.AugWeakenEpoch != 40 {
		t.Fatalf("expected aug weaken at 40, got %d", plan.AugWeakenEpoch)
	}
	if plan.FocalSwitch != 5 {
		t.Fatalf("expected focal switch at 5, got %d", plan.FocalSwitch)
	}
	if want := []int{10, 20}; !reflect.DeepEqual(plan.MixupChangeNodes, want) {
		t.Fatalf("expected mixup nodes %v, got %v", want, plan.MixupChangeNodes)
	}
	if want := []int{112, 168, 224}; !reflect.DeepEqual(plan.ResizeMilestones, want) {
		t.Fatalf("expected resize milestones %v, got %v", want, plan.ResizeMilestones)
	}
}

func TestBuildPlanWithoutStrategies(t *testing.T) {
	cfg := baseConfig()
	cfg.Data.Train.AugEpoch = 0
	cfg.Hyp.Strategy = schema.StrategyConfig{}

	plan := BuildPlan(cfg)

	if plan.AugWeakenEpoch != -1 {
		t.Fatalf("expected no aug weaken epoch, got %d", plan.AugWeakenEpoch)
	}
	if plan.FocalSwitch != -1 {
		t.Fatalf("expected no focal switch, got %d", plan.FocalSwitch)
	}
	if plan.MixupChangeNodes != nil || plan.ResizeMilestones != nil {
		t.Fatalf("expected no progressive milestones, got %+v", plan)
	}
}

func TestChangeNodesRoundMidpoint(t *testing.T) {
	if want := []int{5, 13}; !reflect.DeepEqual(changeNodes(5, 20), want) {
		t.Fatalf("expected %v, got %v", want, changeNodes(5, 20))
	}
}

func TestResizeMilestonesTruncate(t *testing.T) {
	if want := []int{112, 168, 225}; !reflect.DeepEqual(resizeMilestones(225), want) {
		t.Fatalf("expected %v, got %v", want, resizeMilestones(225))
	}
}

func TestMinHeightPicksSmallest(t *testing.T) {
	sizes := []schema.ImageSize{{Height: 640}, {Height: 360}, {Height: 480}}
	if got := minHeight(sizes); got != 360 {
		t.Fatalf("expected 360, got %d", got)
	}
}

func TestLinspace(t *testing.T) {
	got := linspace(0, 10, 5)
	want := []float64{0, 2.5, 5, 7.5, 10}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if single := linspace(4, 9, 1); !reflect.DeepEqual(single, []float64{4}) {
		t.Fatalf("expected [4], got %v", single)
	}
}
