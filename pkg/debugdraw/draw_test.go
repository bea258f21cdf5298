package debugdraw

import (
	"context"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-collide/pkg/config"
	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
	"github.com/opd-ai/go-collide/pkg/world"
)

func newScene(t *testing.T) (*world.World, []world.Contact) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Field = spatial.Region{W: 256, H: 256}
	w, err := world.New(cfg)
	require.NoError(t, err)

	require.NoError(t, w.Upsert(world.Body{ID: 1, Shape: physics.Circle{Center: physics.Vector2D{X: 60, Y: 60}, Radius: 30}}))
	require.NoError(t, w.Upsert(world.Body{ID: 2, Shape: physics.Circle{Center: physics.Vector2D{X: 100, Y: 60}, Radius: 30}}))
	require.NoError(t, w.Upsert(world.Body{ID: 3, Shape: physics.Box{Pos: physics.Vector2D{X: 150, Y: 150}, W: 60, H: 60}}))
	require.NoError(t, w.Upsert(world.Body{ID: 4, Shape: physics.Box{Pos: physics.Vector2D{X: 20, Y: 180}, W: 40, H: 40}, Static: true}))

	contacts, err := w.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	return w, contacts
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRender(t *testing.T) {
	w, contacts := newScene(t)
	opts := DefaultOptions()
	opts.Width, opts.Height = 256, 256

	img := Render(w, contacts, opts)

	require.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())
	assert.Equal(t, opts.Background, rgba(img, 250, 5))
	// the contact's MTV runs along y = 60, so sample off that line
	assert.Equal(t, opts.Colliding, rgba(img, 50, 75))
	assert.Equal(t, opts.Colliding, rgba(img, 110, 75))
	assert.Equal(t, opts.Body, rgba(img, 180, 180))
	assert.Equal(t, opts.Static, rgba(img, 40, 200))
}

func TestRender_ScalesView(t *testing.T) {
	w, contacts := newScene(t)

	img := Render(w, contacts, Options{Width: 128, Height: 128})
	require.Equal(t, image.Rect(0, 0, 128, 128), img.Bounds())

	d := DefaultOptions()
	// body 3 spans 150..210, i.e. 75..105 at half scale
	assert.Equal(t, d.Body, rgba(img, 90, 90))
	assert.Equal(t, d.Background, rgba(img, 125, 2))

	// zoom on body 4 only
	zoomed := Render(w, contacts, Options{Width: 64, Height: 64, View: spatial.Region{X: 20, Y: 180, W: 40, H: 40}})
	assert.Equal(t, d.Static, rgba(zoomed, 32, 32))
}

func TestRender_NoContacts(t *testing.T) {
	w, _ := newScene(t)
	opts := DefaultOptions()
	opts.Width, opts.Height = 256, 256

	img := Render(w, nil, opts)
	assert.Equal(t, opts.Body, rgba(img, 50, 75))
}

func TestSavePNG(t *testing.T) {
	w, contacts := newScene(t)
	path := filepath.Join(t.TempDir(), "scene.png")

	require.NoError(t, SavePNG(path, w, contacts, Options{DrawBounds: true}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 512, cfg.Height)

	assert.Error(t, SavePNG(filepath.Join(t.TempDir(), "missing", "x.png"), w, contacts, Options{}))
}
