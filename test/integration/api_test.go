package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/traincfg/internal/api"
	"github.com/eugenenazirov/traincfg/internal/registry"
)

const trainingDoc = `model:
  choice: torchvision-efficientnet_b0
  num_classes: 100
  pretrained: true
data:
  root: data/food
  nw: 8
  imgsz: [380]
  train:
    bs: 64
    augment: color_jitter random_horizonflip resize to_tensor normalize
  val:
    bs: 128
    augment: resize to_tensor normalize
hyp:
  epochs: 40
  lr0: 0.005
  momentum: 0.9
  weight_decay: 0.0005
  warmup_momentum: 0.8
  warm_ep: 2
  loss:
    ce: true
    bce: false
  label_smooth: 0.05
  optimizer: sgd
  scheduler: cosine_with_warm
`

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	reg := registry.NewMemoryRegistry()
	handler := api.NewHandler(reg)
	logger := zaptest.NewLogger(t)
	return api.NewRouter(handler, logger)
}

func performRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationFlow(t *testing.T) {
	handler := newRouter(t)

	rec := performRequest(t, handler, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodPost, "/api/validate", trainingDoc)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from validate, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(t, handler, http.MethodPut, "/api/configs/food-baseline", trainingDoc)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from store, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/configs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from list, got %d", rec.Code)
	}
	var list struct {
		Configs []string `json:"configs"`
		Count   int      `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 || list.Configs[0] != "food-baseline" {
		t.Fatalf("unexpected list payload: %+v", list)
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/configs/food-baseline", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from get, got %d", rec.Code)
	}
	var stored struct {
		Config struct {
			Data struct {
				ImageSizes []struct {
					Height int `json:"height"`
					Width  int `json:"width"`
				} `json:"imageSizes"`
			} `json:"data"`
		} `json:"config"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	sizes := stored.Config.Data.ImageSizes
	if len(sizes) != 1 || sizes[0].Height != 380 || sizes[0].Width != 0 {
		t.Fatalf("expected adaptive size (380, adaptive), got %+v", sizes)
	}

	invalid := strings.Replace(trainingDoc, "warm_ep: 2", "warm_ep: 40", 1)
	rec = performRequest(t, handler, http.MethodPost, "/api/validate", invalid)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 from validate, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodDelete, "/api/configs/food-baseline", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from delete, got %d", rec.Code)
	}
}
