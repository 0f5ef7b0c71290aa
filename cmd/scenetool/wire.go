package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/config"
	"github.com/Faultbox/scenegraph/internal/engine/debug"
	"github.com/Faultbox/scenegraph/internal/engine/drawdata"
	"github.com/Faultbox/scenegraph/internal/logger"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// cmdWire writes the first frame's drawcall bounds, camera cascade slices and
// cascade light volumes as an OBJ line drawing.
func cmdWire(cfg *config.Config, rest []string) error {
	if len(rest) < 1 {
		return fmt.Errorf("wire needs an output path")
	}
	out := rest[0]

	m, err := loadScene(cfg)
	if err != nil {
		return err
	}
	in := resolveInputs(cfg, m)

	dd := m.GenerateDrawdata(math.Identity(), in.keys(0), in.emission, in.hidden)
	defer dd.Release()

	cam := newCamera(cfg)
	cam.FitToBounds(sceneBounds(dd))
	vp := cam.ViewProjection()

	gbuffer := drawdata.NewGbuffer(vp, cam.Position())
	gbuffer.Append(dd)
	defer gbuffer.Release()

	shadow := drawdata.NewShadow(vp, sceneLightDir(cfg, dd), gbuffer.MinZ(), cfg.Render.LinearBlend, cfg.Render.Cascades)
	shadow.Append(dd)
	defer shadow.Release()

	var sets []debug.Lines
	for i := range dd.Drawcalls {
		dc := &dd.Drawcalls[i]
		sets = append(sets, debug.Lines{
			Name:     fmt.Sprintf("drawcall_%d_node_%d", i, dc.Node),
			Vertices: debug.BoxWireframe(dc.Bounds, 0),
		})
	}
	inv := vp.Inverse()
	for i := range shadow.Cascades {
		c := &shadow.Cascades[i]
		sets = append(sets, debug.Lines{
			Name:     fmt.Sprintf("slice_%d", i),
			Vertices: debug.FrustumWireframe(inv, c.Near, c.Far),
		})
		if c.Empty() {
			continue
		}
		sets = append(sets, debug.Lines{
			Name:     fmt.Sprintf("cascade_%d", i),
			Vertices: debug.BoundWireframe(c.Bound, c.LightNear, c.LightFar),
		})
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := debug.WriteOBJ(f, sets); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("wireframe written", zap.String("path", out), zap.Int("objects", len(sets)))
	return nil
}
