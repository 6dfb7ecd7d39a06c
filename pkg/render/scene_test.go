package render

import (
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/draw"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	transparent = color.RGBA{}
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// TestEmptySceneIsTransparent tests that a scene with no layers renders fully transparent.
func TestEmptySceneIsTransparent(t *testing.T) {
	scene := NewScene(image.Pt(240, 240))
	frame := scene.Render()

	if frame.Bounds() != image.Rect(0, 0, 240, 240) {
		t.Fatalf("Expected 240x240 canvas, got %v", frame.Bounds())
	}
	for i, v := range frame.Pix {
		if v != 0 {
			t.Fatalf("Expected transparent canvas, byte %d is %d", i, v)
		}
	}
}

// TestSceneAddIdempotent tests that adding a layer twice keeps one entry.
func TestSceneAddIdempotent(t *testing.T) {
	scene := NewScene(image.Pt(10, 10))
	layer := NewStaticLayer(solid(2, 2, red), image.Pt(0, 0))

	scene.Add(layer)
	scene.Add(layer)
	if scene.Len() != 1 {
		t.Errorf("Expected 1 layer after double add, got %d", scene.Len())
	}

	// A different layer with the same bitmap is a distinct member
	scene.Add(NewStaticLayer(layer.Render(), image.Pt(0, 0)))
	if scene.Len() != 2 {
		t.Errorf("Expected 2 layers, got %d", scene.Len())
	}

	scene.Add(nil)
	if scene.Len() != 2 {
		t.Errorf("Expected nil to be ignored, got %d layers", scene.Len())
	}
}

// TestSceneRemoveIdempotent tests that removing an absent layer is a no-op.
func TestSceneRemoveIdempotent(t *testing.T) {
	scene := NewScene(image.Pt(10, 10))
	a := NewStaticLayer(solid(2, 2, red), image.Pt(0, 0))
	b := NewStaticLayer(solid(2, 2, blue), image.Pt(0, 0))

	scene.Add(a)
	scene.Remove(b)
	if !scene.Contains(a) || scene.Len() != 1 {
		t.Fatal("Expected removing an absent layer to leave the scene unchanged")
	}

	scene.Remove(a)
	scene.Remove(a)
	if scene.Contains(a) || scene.Len() != 0 {
		t.Error("Expected layer to be removed exactly once")
	}
}

// TestSceneDrawOrder tests that later layers are drawn on top.
func TestSceneDrawOrder(t *testing.T) {
	scene := NewScene(image.Pt(4, 4))
	bottom := NewStaticLayer(solid(4, 4, red), image.Pt(0, 0))
	top := NewStaticLayer(solid(2, 2, blue), image.Pt(1, 1))

	scene.Add(bottom)
	scene.Add(top)
	frame := scene.Render()

	if got := frame.RGBAAt(0, 0); got != red {
		t.Errorf("Expected red at (0,0), got %v", got)
	}
	if got := frame.RGBAAt(1, 1); got != blue {
		t.Errorf("Expected blue at (1,1), got %v", got)
	}
	if got := frame.RGBAAt(3, 3); got != red {
		t.Errorf("Expected red at (3,3), got %v", got)
	}

	layers := scene.Layers()
	if len(layers) != 2 || layers[0] != bottom || layers[1] != top {
		t.Errorf("Expected layers in insertion order, got %v", layers)
	}
}

// TestSceneClipping tests layers that extend past the canvas.
func TestSceneClipping(t *testing.T) {
	scene := NewScene(image.Pt(10, 10))
	scene.Add(NewSpriteLayer(solid(6, 6, red), image.Pt(-3, -3)))
	scene.Add(NewSpriteLayer(solid(6, 6, blue), image.Pt(8, 8)))
	scene.Add(NewSpriteLayer(solid(6, 6, blue), image.Pt(50, 50)))

	frame := scene.Render()

	if got := frame.RGBAAt(0, 0); got != red {
		t.Errorf("Expected clipped sprite at (0,0), got %v", got)
	}
	if got := frame.RGBAAt(2, 2); got != red {
		t.Errorf("Expected clipped sprite at (2,2), got %v", got)
	}
	if got := frame.RGBAAt(3, 3); got != transparent {
		t.Errorf("Expected transparent at (3,3), got %v", got)
	}
	if got := frame.RGBAAt(9, 9); got != blue {
		t.Errorf("Expected clipped sprite at (9,9), got %v", got)
	}
}

// TestSceneAlphaBlending tests source-over of a half-transparent layer.
func TestSceneAlphaBlending(t *testing.T) {
	scene := NewScene(image.Pt(2, 2))
	scene.Add(NewStaticLayer(solid(2, 2, red), image.Pt(0, 0)))

	// Premultiplied half-alpha blue
	scene.Add(NewSpriteLayer(solid(2, 2, color.RGBA{0, 0, 128, 128}), image.Pt(0, 0)))
	// Fully transparent pixels leave the background alone
	scene.Add(NewSpriteLayer(solid(1, 1, transparent), image.Pt(1, 1)))

	got := scene.Render().RGBAAt(1, 1)
	if got.A != 255 {
		t.Errorf("Expected opaque result, got alpha %d", got.A)
	}
	if got.R < 125 || got.R > 128 {
		t.Errorf("Expected red about half, got %d", got.R)
	}
	if got.B != 128 {
		t.Errorf("Expected blue 128, got %d", got.B)
	}
}

// TestSceneSwap tests that Swap leaves only the fresh layers.
func TestSceneSwap(t *testing.T) {
	scene := NewScene(image.Pt(10, 10))
	background := NewStaticLayer(solid(10, 10, red), image.Pt(0, 0))
	scene.Add(background)

	old := []*Layer{
		NewSpriteLayer(solid(2, 2, blue), image.Pt(0, 0)),
		NewSpriteLayer(solid(2, 2, blue), image.Pt(4, 4)),
	}
	scene.Swap(nil, old)
	if scene.Len() != 3 {
		t.Fatalf("Expected 3 layers, got %d", scene.Len())
	}

	fresh := []*Layer{NewSpriteLayer(solid(2, 2, blue), image.Pt(8, 8))}
	scene.Swap(old, fresh)

	if scene.Len() != 2 {
		t.Fatalf("Expected 2 layers after swap, got %d", scene.Len())
	}
	for _, l := range old {
		if scene.Contains(l) {
			t.Error("Expected old sprite to be removed")
		}
	}
	if !scene.Contains(background) || !scene.Contains(fresh[0]) {
		t.Error("Expected background and fresh sprite to remain")
	}

	frame := scene.Render()
	if got := frame.RGBAAt(0, 0); got != red {
		t.Errorf("Expected stale sprite pixels gone, got %v", got)
	}
	if got := frame.RGBAAt(8, 8); got != blue {
		t.Errorf("Expected fresh sprite at (8,8), got %v", got)
	}
}

// TestSceneMembershipAtRender tests that Render reads the current membership.
func TestSceneMembershipAtRender(t *testing.T) {
	scene := NewScene(image.Pt(2, 2))
	banner := NewErrorLayer(solid(2, 2, blue), image.Pt(0, 0))

	scene.Add(banner)
	if got := scene.Render().RGBAAt(0, 0); got != blue {
		t.Fatalf("Expected banner shown, got %v", got)
	}

	scene.Remove(banner)
	if got := scene.Render().RGBAAt(0, 0); got != transparent {
		t.Errorf("Expected banner hidden on next render, got %v", got)
	}

	scene.Add(banner)
	if got := scene.Render().RGBAAt(0, 0); got != blue {
		t.Errorf("Expected banner shown again, got %v", got)
	}
}

// TestGradientLayer tests the legend bar endpoints.
func TestGradientLayer(t *testing.T) {
	ramp := DefaultRamp()
	layer := NewGradientLayer(ramp, image.Rect(10, 4, 230, 10), 0, 45000)

	if layer.Kind() != KindGradient {
		t.Errorf("Expected gradient kind, got %v", layer.Kind())
	}
	if layer.Frame() != image.Rect(10, 4, 230, 10) {
		t.Errorf("Unexpected frame %v", layer.Frame())
	}

	img := layer.Render()
	if img.Bounds() != image.Rect(0, 0, 220, 6) {
		t.Fatalf("Expected 220x6 bitmap, got %v", img.Bounds())
	}
	if got := img.RGBAAt(0, 3); got != ramp.Color(0) {
		t.Errorf("Expected left edge %v, got %v", ramp.Color(0), got)
	}
	if got := img.RGBAAt(219, 0); got != ramp.Color(45000) {
		t.Errorf("Expected right edge %v, got %v", ramp.Color(45000), got)
	}
	if layer.Render() != img {
		t.Error("Expected gradient bitmap to be drawn once")
	}
}

// TestKindString tests the layer kind names used in logs.
func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		KindStatic:   "static",
		KindGradient: "gradient",
		KindError:    "error",
		KindSprite:   "sprite",
		Kind(9):      "Kind(9)",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
