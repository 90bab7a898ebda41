package avatar

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/idplease/pkg/cache"
	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/integrations"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Source
	}{
		{"", Source{}},
		{"  ", Source{}},
		{"https://example.com/a.png", Source{URL: "https://example.com/a.png"}},
		{"ipfs://bafy/1.png", Source{URL: "ipfs://bafy/1.png"}},
		{"./me.jpg", Source{Path: "./me.jpg"}},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestCropSquare(t *testing.T) {
	tests := []struct{ w, h, want int }{
		{100, 60, 60},
		{40, 90, 40},
		{50, 50, 50},
	}
	for _, tt := range tests {
		got := CropSquare(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))).Bounds()
		if got.Dx() != tt.want || got.Dy() != tt.want {
			t.Errorf("CropSquare(%dx%d) = %dx%d, want %dx%d", tt.w, tt.h, got.Dx(), got.Dy(), tt.want, tt.want)
		}
	}
}

func TestLoadImage(t *testing.T) {
	l := NewLoader(nil, time.Minute, "")
	av, err := l.Load(context.Background(), FromImage(image.NewRGBA(image.Rect(0, 0, 30, 20))))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if b := av.Image.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Errorf("bounds = %v, want 20x20", b)
	}
	if av.Digest != "" {
		t.Errorf("Digest = %q, want empty for in-memory image", av.Digest)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "me.png")
	bad := filepath.Join(dir, "me.txt")
	os.WriteFile(good, testPNG(t, 64, 32), 0o644)
	os.WriteFile(bad, []byte("not an image"), 0o644)

	l := NewLoader(nil, time.Minute, "")

	av, err := l.Load(context.Background(), Parse(good))
	if err != nil {
		t.Fatalf("Load(%s) error: %v", good, err)
	}
	if b := av.Image.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("bounds = %v, want 32x32", b)
	}
	if av.Digest == "" {
		t.Error("Digest should identify file bytes")
	}

	if _, err := l.Load(context.Background(), Parse(bad)); !apperrors.Is(err, apperrors.ErrCodeImageDecode) {
		t.Errorf("Load(bad) error = %v, want IMAGE_DECODE_ERROR", err)
	}
	if _, err := l.Load(context.Background(), Parse(filepath.Join(dir, "missing.png"))); !apperrors.Is(err, apperrors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
	if _, err := l.Load(context.Background(), Source{}); !apperrors.Is(err, apperrors.ErrCodeImageLoad) {
		t.Errorf("Load(empty) error = %v, want IMAGE_LOAD_ERROR", err)
	}
}

func TestLoadURLWithIPFSGatewayAndCache(t *testing.T) {
	data := testPNG(t, 10, 10)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/ipfs/bafy/1.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer server.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	l := NewLoader(c, time.Hour, server.URL+"/ipfs/", integrations.WithHTTPClient(server.Client()))
	for i := 0; i < 2; i++ {
		av, err := l.Load(context.Background(), Parse("ipfs://bafy/1.png"))
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if av.Digest != cache.Hash(data) {
			t.Errorf("Digest = %q, want hash of served bytes", av.Digest)
		}
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1 (second load cached)", got)
	}
}

func TestLoadURLNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	l := NewLoader(nil, time.Minute, "", integrations.WithHTTPClient(server.Client()))
	_, err := l.Load(context.Background(), Parse(server.URL+"/missing.png"))
	if !apperrors.Is(err, apperrors.ErrCodeImageLoad) {
		t.Errorf("Load() error = %v, want IMAGE_LOAD_ERROR", err)
	}
}
