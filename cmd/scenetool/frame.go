package main

import (
	"fmt"
	"strconv"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/config"
	"github.com/Faultbox/scenegraph/internal/engine/camera"
	"github.com/Faultbox/scenegraph/internal/engine/culling"
	"github.com/Faultbox/scenegraph/internal/engine/drawdata"
	"github.com/Faultbox/scenegraph/internal/engine/lighting"
	"github.com/Faultbox/scenegraph/internal/engine/model"
	"github.com/Faultbox/scenegraph/internal/logger"
	"github.com/Faultbox/scenegraph/pkg/math"
)

// orbitStep is the per-frame camera drag, in pixels.
const orbitStep = 4

// frameInputs are the per-scene settings resolved against the model.
type frameInputs struct {
	clips    []model.ClipRef
	hidden   []int
	emission []model.EmissionOverride
}

func resolveInputs(cfg *config.Config, m *model.Model) frameInputs {
	var in frameInputs
	for _, name := range cfg.Scene.Animations {
		if i, err := strconv.Atoi(name); err == nil {
			in.clips = append(in.clips, model.ClipByIndex(i))
			continue
		}
		in.clips = append(in.clips, model.ClipByName(name))
	}

	for _, name := range cfg.Scene.Hidden {
		node, ok := m.FindNodeByName(name)
		if !ok {
			logger.Warn("hidden node not found", zap.String("name", name))
			continue
		}
		in.hidden = append(in.hidden, node)
	}

	for name, mult := range cfg.Scene.Emission {
		node, ok := m.FindNodeByName(name)
		if !ok {
			logger.Warn("emission node not found", zap.String("name", name))
			continue
		}
		in.emission = append(in.emission, model.EmissionOverride{Node: node, Multiplier: mult})
	}
	return in
}

func (in frameInputs) keys(t float32) []model.AnimationKey {
	keys := make([]model.AnimationKey, len(in.clips))
	for i, c := range in.clips {
		keys[i] = model.AnimationKey{Clip: c, Time: t}
	}
	return keys
}

func sceneBounds(dd *model.Drawdata) culling.AABB {
	b := culling.Empty()
	for i := range dd.Drawcalls {
		b = b.Union(dd.Drawcalls[i].Bounds)
	}
	return b
}

// newCamera builds the orbit camera described by the render and camera settings.
func newCamera(cfg *config.Config) *camera.OrbitCamera {
	proj := camera.Projection{
		FovY:   cfg.Render.FovY * math32.Pi / 180,
		Aspect: cfg.Render.Aspect(),
		Near:   cfg.Render.Near,
		Far:    cfg.Render.Far,
	}
	return camera.NewOrbitCamera(proj, cfg.Scene.FrameRate, cfg.Camera.SpringFrequency, cfg.Camera.SpringDamping)
}

// sceneLightDir returns the direction sunlight travels, or the scene's own
// directional light when configured to prefer it.
func sceneLightDir(cfg *config.Config, dd *model.Drawdata) math.Vec3 {
	if dir, ok := lighting.Directional(dd.Lights); ok && cfg.Light.UseSceneLight {
		return dir
	}
	return lighting.LightTravel(cfg.Light.SunLongitude, cfg.Light.SunLatitude)
}

func cmdFrame(cfg *config.Config) error {
	m, err := loadScene(cfg)
	if err != nil {
		return err
	}
	in := resolveInputs(cfg, m)

	cam := newCamera(cfg)
	first := m.GenerateDrawdata(math.Identity(), in.keys(0), in.emission, in.hidden)
	cam.FitToBounds(sceneBounds(first))
	lightDir := sceneLightDir(cfg, first)
	first.Release()

	lights := lighting.NewPointLightBuffer()
	for f := range cfg.Scene.Frames {
		t := float32(f) / float32(cfg.Scene.FrameRate)
		dd := m.GenerateDrawdata(math.Identity(), in.keys(t), in.emission, in.hidden)

		vp := cam.ViewProjection()
		gbuffer := drawdata.NewGbuffer(vp, cam.Position())
		gbuffer.Append(dd)
		gbuffer.Sort()

		shadow := drawdata.NewShadow(vp, lightDir, gbuffer.MinZ(), cfg.Render.LinearBlend, cfg.Render.Cascades)
		shadow.Append(dd)
		shadow.Sort()

		lights.SetLights(lighting.FromInstances(dd.Lights))

		printFrame(f, t, dd, gbuffer, shadow, lights.Len())

		gbuffer.Release()
		shadow.Release()
		dd.Release()

		cam.HandleDrag(orbitStep, 0)
		cam.Update()
	}
	return nil
}

func printFrame(f int, t float32, dd *model.Drawdata, g *drawdata.Gbuffer, s *drawdata.Shadow, pointLights int) {
	joints := 0
	if dd.Skinning != nil {
		joints = len(dd.Skinning.Joints())
	}

	fmt.Printf("frame %d  t=%.3fs\n", f, t)
	fmt.Printf("  drawcalls %d  visible %d  joints %d  point lights %d\n",
		len(dd.Drawcalls), g.Len(), joints, pointLights)
	fmt.Printf("  min z %.5f  max distance %.2f\n", g.MinZ(), g.MaxDistance())
	for _, key := range g.BucketKeys() {
		rigged := "static"
		if key.Rigged {
			rigged = "rigged"
		}
		fmt.Printf("    %-24s %-6s %d\n", key.Pipeline, rigged, len(g.Bucket(key)))
	}
	for i := range s.Cascades {
		c := &s.Cascades[i]
		if c.Empty() {
			fmt.Printf("  cascade %d  z [%.4f, %.4f]  empty\n", i, c.Far, c.Near)
			continue
		}
		fmt.Printf("  cascade %d  z [%.4f, %.4f]  casters %d  light depth [%.2f, %.2f]  area %.2f\n",
			i, c.Far, c.Near, c.Len(), c.LightNear, c.LightFar, c.Bound.Area())
	}
}
