package augment

import (
	"slices"
	"testing"
)

func TestNamesSortedAndComplete(t *testing.T) {
	names := Names()

	if len(names) != len(steps) {
		t.Fatalf("expected %d names, got %d", len(steps), len(names))
	}
	if !slices.IsSorted(names) {
		t.Fatalf("expected sorted names, got %v", names)
	}
	for _, name := range names {
		if !Recognized(name) {
			t.Fatalf("listed step %q not recognized", name)
		}
	}
}

func TestRecognized(t *testing.T) {
	if !Recognized("random_horizonflip") {
		t.Fatalf("expected random_horizonflip to be recognized")
	}
	if Recognized("gaussian_blur") {
		t.Fatalf("did not expect gaussian_blur to be recognized")
	}
	if Recognized("") {
		t.Fatalf("did not expect empty name to be recognized")
	}
}

func TestSizeStep(t *testing.T) {
	for _, name := range []string{"center_crop", "resize"} {
		if !SizeStep(name) {
			t.Fatalf("expected %q to be a size step", name)
		}
	}
	if SizeStep("to_tensor") {
		t.Fatalf("did not expect to_tensor to be a size step")
	}
	if SizeStep("unknown") {
		t.Fatalf("did not expect unknown names to be size steps")
	}
}
