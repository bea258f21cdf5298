// Package debugdraw renders world snapshots to images for inspecting
// broad and narrow phase results by eye.
package debugdraw

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
	"github.com/opd-ai/go-collide/pkg/world"
)

// Options controls the output image
type Options struct {
	Width  int
	Height int
	// View is the world area mapped onto the image. Zero means the
	// world's configured field.
	View spatial.Region

	Background  color.Color
	Body        color.Color
	Static      color.Color
	Colliding   color.Color
	Outline     color.Color
	MTV         color.Color
	LineWidth   float64
	DrawBounds  bool
	BoundsColor color.Color
}

// DefaultOptions returns a 512x512 palette with light background
func DefaultOptions() Options {
	return Options{
		Width:       512,
		Height:      512,
		Background:  color.RGBA{250, 250, 255, 255},
		Body:        color.RGBA{120, 160, 220, 255},
		Static:      color.RGBA{150, 150, 150, 255},
		Colliding:   color.RGBA{255, 62, 62, 255},
		Outline:     color.RGBA{20, 25, 35, 255},
		MTV:         color.RGBA{83, 200, 69, 255},
		LineWidth:   1,
		BoundsColor: color.RGBA{30, 30, 40, 80},
	}
}

// withDefaults fills unset fields from DefaultOptions
func (o Options) withDefaults(field spatial.Region) Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.View.W <= 0 || o.View.H <= 0 {
		o.View = field
	}
	if o.Background == nil {
		o.Background = d.Background
	}
	if o.Body == nil {
		o.Body = d.Body
	}
	if o.Static == nil {
		o.Static = d.Static
	}
	if o.Colliding == nil {
		o.Colliding = d.Colliding
	}
	if o.Outline == nil {
		o.Outline = d.Outline
	}
	if o.MTV == nil {
		o.MTV = d.MTV
	}
	if o.LineWidth <= 0 {
		o.LineWidth = d.LineWidth
	}
	if o.BoundsColor == nil {
		o.BoundsColor = d.BoundsColor
	}
	return o
}

// canvas maps world coordinates onto the image
type canvas struct {
	dc     *gg.Context
	view   spatial.Region
	sx, sy float64
}

func (c *canvas) point(v physics.Vector2D) (float64, float64) {
	return (v.X - c.view.X) * c.sx, (v.Y - c.view.Y) * c.sy
}

// Render draws every body of w. Bodies taking part in one of contacts are
// filled with the Colliding color and each contact's MTV is drawn from
// the center of A.
func Render(w *world.World, contacts []world.Contact, opts Options) image.Image {
	opts = opts.withDefaults(w.Config().Field)

	dc := gg.NewContext(opts.Width, opts.Height)
	c := &canvas{
		dc:   dc,
		view: opts.View,
		sx:   float64(opts.Width) / opts.View.W,
		sy:   float64(opts.Height) / opts.View.H,
	}

	dc.SetColor(opts.Background)
	dc.DrawRectangle(0, 0, float64(opts.Width), float64(opts.Height))
	dc.Fill()

	colliding := make(map[uint64]bool, len(contacts)*2)
	for _, ct := range contacts {
		colliding[ct.A] = true
		colliding[ct.B] = true
	}

	bodies := w.Bodies()
	centers := make(map[uint64]physics.Vector2D, len(bodies))
	for _, b := range bodies {
		bounds := b.Shape.Bounds()
		centers[b.ID] = bounds.Center()

		fill := opts.Body
		switch {
		case colliding[b.ID]:
			fill = opts.Colliding
		case b.Static:
			fill = opts.Static
		}
		if !c.path(b.Shape) {
			continue
		}
		dc.SetColor(fill)
		dc.FillPreserve()
		dc.SetColor(opts.Outline)
		dc.SetLineWidth(opts.LineWidth)
		dc.Stroke()

		if opts.DrawBounds {
			x, y := c.point(bounds.Pos)
			dc.SetColor(opts.BoundsColor)
			dc.DrawRectangle(x, y, bounds.W*c.sx, bounds.H*c.sy)
			dc.Stroke()
		}
	}

	dc.SetColor(opts.MTV)
	dc.SetLineWidth(opts.LineWidth * 2)
	for _, ct := range contacts {
		from, ok := centers[ct.A]
		if !ok {
			continue
		}
		x0, y0 := c.point(from)
		x1, y1 := c.point(from.Sub(ct.MTV))
		dc.DrawLine(x0, y0, x1, y1)
		dc.Stroke()
	}

	return dc.Image()
}

// path adds the outline of s to the current path. It reports false for
// shapes it cannot draw.
func (c *canvas) path(s physics.Shape) bool {
	switch v := s.(type) {
	case physics.Circle:
		c.circle(v)
	case *physics.Circle:
		c.circle(*v)
	case physics.Box:
		c.polygon(v.ToPolygon().CalcPoints(), v.Pos)
	case *physics.Box:
		c.polygon(v.ToPolygon().CalcPoints(), v.Pos)
	case *physics.Polygon:
		c.polygon(v.CalcPoints(), v.Pos)
	default:
		return false
	}
	return true
}

func (c *canvas) circle(circle physics.Circle) {
	x, y := c.point(circle.Center)
	if c.sx == c.sy {
		c.dc.DrawCircle(x, y, circle.Radius*c.sx)
		return
	}
	c.dc.DrawEllipse(x, y, circle.Radius*c.sx, circle.Radius*c.sy)
}

func (c *canvas) polygon(points []physics.Vector2D, pos physics.Vector2D) {
	if len(points) == 0 {
		return
	}
	c.dc.NewSubPath()
	for i, p := range points {
		x, y := c.point(pos.Add(p))
		if i == 0 {
			c.dc.MoveTo(x, y)
			continue
		}
		c.dc.LineTo(x, y)
	}
	c.dc.ClosePath()
}

// SavePNG renders w like Render and writes the image to path
func SavePNG(path string, w *world.World, contacts []world.Contact, opts Options) error {
	return gg.SavePNG(path, Render(w, contacts, opts))
}
