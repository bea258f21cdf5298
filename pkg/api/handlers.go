package api

import (
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opd-ai/go-collide/pkg/debugdraw"
	"github.com/opd-ai/go-collide/pkg/physics"
	"github.com/opd-ai/go-collide/pkg/spatial"
	"github.com/opd-ai/go-collide/pkg/world"
)

type boundsJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type bodyJSON struct {
	ID     uint64     `json:"id"`
	Kind   string     `json:"kind"`
	Static bool       `json:"static"`
	Bounds boundsJSON `json:"bounds"`
}

type contactJSON struct {
	A       uint64     `json:"a"`
	B       uint64     `json:"b"`
	Overlap float64    `json:"overlap"`
	Normal  [2]float64 `json:"normal"`
	MTV     [2]float64 `json:"mtv"`
	AInB    bool       `json:"aInB"`
	BInA    bool       `json:"bInA"`
}

func shapeKind(s physics.Shape) string {
	switch s.(type) {
	case physics.Circle, *physics.Circle:
		return "circle"
	case physics.Box, *physics.Box:
		return "box"
	case *physics.Polygon:
		return "polygon"
	}
	return "unknown"
}

func toBodyJSON(b world.Body) bodyJSON {
	bounds := b.Shape.Bounds()
	return bodyJSON{
		ID:     b.ID,
		Kind:   shapeKind(b.Shape),
		Static: b.Static,
		Bounds: boundsJSON{X: bounds.Pos.X, Y: bounds.Pos.Y, W: bounds.W, H: bounds.H},
	}
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	s := h.world.Stats()
	writeJSON(w, map[string]interface{}{
		"bodies":           s.Bodies,
		"steps":            s.Steps,
		"lastPairs":        s.LastPairs,
		"lastContacts":     s.LastContacts,
		"lastStepMicros":   s.LastStepDuration.Microseconds(),
		"lastStepUnixNano": s.LastStepAt.UnixNano(),
	})
}

func (h *routerHandlers) handleGetBodies(w http.ResponseWriter, r *http.Request) {
	bodies := h.world.Bodies()
	out := make([]bodyJSON, 0, len(bodies))
	for _, b := range bodies {
		out = append(out, toBodyJSON(b))
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleGetBody(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, "invalid body id", http.StatusBadRequest)
		return
	}
	b, ok := h.world.Body(id)
	if !ok {
		writeError(w, fmt.Sprintf("body %d not found", id), http.StatusNotFound)
		return
	}
	writeJSON(w, toBodyJSON(b))
}

func (h *routerHandlers) handleQuery(w http.ResponseWriter, r *http.Request) {
	vals, err := floatParams(r, "x", "y", "w", "h")
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ids := h.world.Query(spatial.Region{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]})
	if ids == nil {
		ids = []uint64{}
	}
	writeJSON(w, map[string]interface{}{"ids": ids})
}

func (h *routerHandlers) handleHitTest(w http.ResponseWriter, r *http.Request) {
	vals, err := floatParams(r, "x", "y")
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ids, err := h.world.HitTest(physics.Vector2D{X: vals[0], Y: vals[1]})
	if err != nil {
		h.logger.Error(r.Context(), "hit test failed", err)
		writeError(w, "hit test failed", http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeJSON(w, map[string]interface{}{"ids": ids})
}

func (h *routerHandlers) handleStep(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.world.Step(r.Context())
	if err != nil {
		writeError(w, "step failed", http.StatusInternalServerError)
		return
	}
	out := make([]contactJSON, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, contactJSON{
			A:       c.A,
			B:       c.B,
			Overlap: c.Overlap,
			Normal:  [2]float64{c.Normal.X, c.Normal.Y},
			MTV:     [2]float64{c.MTV.X, c.MTV.Y},
			AInB:    c.AInB,
			BInA:    c.BInA,
		})
	}
	writeJSON(w, map[string]interface{}{"contacts": out})
}

func (h *routerHandlers) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	opts := debugdraw.Options{}
	if size := r.URL.Query().Get("size"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 || n > 4096 {
			writeError(w, "size must be between 1 and 4096", http.StatusBadRequest)
			return
		}
		opts.Width, opts.Height = n, n
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, debugdraw.Render(h.world, h.world.LastContacts(), opts)); err != nil {
		h.logger.Error(r.Context(), "snapshot encode failed", err)
	}
}

// floatParams parses the named query parameters, all required
func floatParams(r *http.Request, names ...string) ([]float64, error) {
	q := r.URL.Query()
	out := make([]float64, len(names))
	for i, name := range names {
		v, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid or missing parameter %q", name)
		}
		out[i] = v
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
