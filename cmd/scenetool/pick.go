package main

import (
	"fmt"
	"strconv"

	"github.com/Faultbox/scenegraph/internal/config"
	"github.com/Faultbox/scenegraph/internal/engine/picking"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// cmdPick reports the node under a pixel of the first frame, seen from the
// camera that frames the whole scene.
func cmdPick(cfg *config.Config, coords []string) error {
	if len(coords) < 2 {
		return fmt.Errorf("pick needs x and y pixel coordinates")
	}
	x, err := strconv.ParseFloat(coords[0], 32)
	if err != nil {
		return fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(coords[1], 32)
	if err != nil {
		return fmt.Errorf("y: %w", err)
	}

	m, err := loadScene(cfg)
	if err != nil {
		return err
	}
	in := resolveInputs(cfg, m)

	dd := m.GenerateDrawdata(math.Identity(), in.keys(0), in.emission, in.hidden)
	defer dd.Release()

	cam := newCamera(cfg)
	cam.FitToBounds(sceneBounds(dd))

	ray := picking.ScreenToRay(float32(x), float32(y),
		float32(cfg.Render.Width), float32(cfg.Render.Height), cam.ViewProjection().Inverse())
	hit, ok := picking.PickDrawcall(ray, dd.Drawcalls)
	if !ok {
		fmt.Println("nothing under cursor")
		return nil
	}

	p := ray.At(hit.Distance)
	fmt.Printf("node %d %q  distance %.3f  at (%.3f, %.3f, %.3f)\n",
		hit.Node, m.Node(hit.Node).Name, hit.Distance, p.X, p.Y, p.Z)
	return nil
}
