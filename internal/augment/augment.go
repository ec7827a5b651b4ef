// Package augment defines the closed set of augmentation step names a
// training configuration may reference. The loader validates augment
// pipelines against this registry; the actual image transforms live in the
// external training program.
package augment

import "sort"

type stepInfo struct {
	// sizeStep marks steps that change the spatial size of the image.
	// Such steps must agree between the train and val pipelines.
	sizeStep bool
}

var steps = map[string]stepInfo{
	"center_crop":         {sizeStep: true},
	"color_jitter":        {},
	"normalize":           {},
	"random_affine":       {},
	"random_augment":      {},
	"random_cutout":       {},
	"random_horizonflip":  {},
	"random_verticalflip": {},
	"resize":              {sizeStep: true},
	"to_tensor":           {},
}

// Recognized reports whether name is a registered augmentation step.
func Recognized(name string) bool {
	_, ok := steps[name]
	return ok
}

// SizeStep reports whether name is a registered step that alters image size.
func SizeStep(name string) bool {
	return steps[name].sizeStep
}

// Names returns the registered step names in sorted order.
func Names() []string {
	out := make([]string, 0, len(steps))
	for name := range steps {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
