package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validDoc = `model:
  choice: torchvision-resnet50
  num_classes: 10
  pretrained: true
data:
  root: data/flowers
  imgsz: [224, 224]
  train:
    bs: 32
    augment: random_horizonflip resize to_tensor normalize
    aug_epoch: 40
  val:
    bs: 64
    augment: resize to_tensor normalize
hyp:
  epochs: 50
  lr0: 0.01
  momentum: 0.937
  weight_decay: 0.0005
  warmup_momentum: 0.8
  warm_ep: 3
  loss:
    ce: false
    bce: true
  label_smooth: 0.1
  strategy:
    prog_learn: true
    mixup:
      ratio: 0.2
      epoch_range: [10, 30]
    focal:
      enabled: false
      start_epoch: 0
  optimizer: sgd
  scheduler: cosine_with_warm
`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
}

func TestRunCheckValidDocument(t *testing.T) {
	path := writeDoc(t, validDoc)

	var out bytes.Buffer
	if err := runCheck(path, &out); err != nil {
		t.Fatalf("runCheck returned error: %v", err)
	}

	summary := out.String()
	if !strings.Contains(summary, "OK") {
		t.Fatalf("expected OK in summary: %s", summary)
	}
	if !strings.Contains(summary, "torchvision-resnet50") {
		t.Fatalf("expected model choice in summary: %s", summary)
	}
	if !strings.Contains(summary, "mixup nodes=[10 20]") {
		t.Fatalf("expected derived plan in summary: %s", summary)
	}
}

func TestRunCheckInvalidDocument(t *testing.T) {
	path := writeDoc(t, strings.Replace(validDoc, "bce: true", "bce: false", 1))

	var out bytes.Buffer
	if err := runCheck(path, &out); err == nil {
		t.Fatalf("expected error for invalid document")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no summary output on failure, got %s", out.String())
	}
}

func TestRunCheckMissingFile(t *testing.T) {
	var out bytes.Buffer
	if err := runCheck(filepath.Join(t.TempDir(), "absent.yaml"), &out); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
