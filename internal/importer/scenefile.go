package importer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/bojexport/pkg/scene"
)

// Scene file errors.
var (
	ErrUnknownMaterial = errors.New("unknown material")
	ErrUnknownTopology = errors.New("unknown topology")
	ErrUnknownSlot     = errors.New("unknown texture slot")
)

// sceneFile is the YAML scene description.
type sceneFile struct {
	Materials map[string]materialSpec `yaml:"materials"`
	Meshes    []meshSpec              `yaml:"meshes"`
}

type meshSpec struct {
	Comments  []string       `yaml:"comments"`
	Vertices  []vertexSpec   `yaml:"vertices"`
	Groups    []groupSpec    `yaml:"groups"`
	Primitive *primitiveSpec `yaml:"primitive"`
	Material  string         `yaml:"material"` // Key into the materials map
}

type vertexSpec struct {
	Position [3]float32  `yaml:"position"`
	Color    *[4]float32 `yaml:"color"` // Defaults to opaque white
	TexCoord [2]float32  `yaml:"texcoord"`
	Normal   [3]float32  `yaml:"normal"`
}

type groupSpec struct {
	Topology string   `yaml:"topology"` // fan, strip or list
	Indices  []uint32 `yaml:"indices"`
}

// materialSpec overrides scene.DefaultMaterial; absent keys keep defaults.
type materialSpec struct {
	Albedo         *[3]float32       `yaml:"albedo"`
	Alpha          *float32          `yaml:"alpha"`
	Roughness      *float32          `yaml:"roughness"`
	Metalness      *float32          `yaml:"metalness"`
	Transmission   *float32          `yaml:"transmission"`
	IOR            *float32          `yaml:"ior"`
	SSSScale       *float32          `yaml:"sss_scale"`
	SSSRadius      *[3]float32       `yaml:"sss_radius"`
	SSS            *[3]float32       `yaml:"sss"`
	Emission       *[3]float32       `yaml:"emission"`
	EmissionScale  *float32          `yaml:"emission_scale"`
	HeightScale    *float32          `yaml:"height_scale"`
	HeightMidlevel *float32          `yaml:"height_midlevel"`
	AlbedoScale    *float32          `yaml:"albedo_scale"`
	TileTextures   *bool             `yaml:"tile_textures"`
	Lighting       map[string]bool   `yaml:"lighting"` // ambient, diffuse, ndotl, ...
	Textures       map[string]string `yaml:"textures"` // slot name -> texture id
}

var lightingNames = [scene.ToggleCount]string{"ambient", "diffuse", "ndotl", "attenuation", "shadow", "light_mask", "reflection"}

// LoadSceneFile reads a YAML scene description.
func LoadSceneFile(path string, opts Options) (scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	s, err := ParseSceneFile(data, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", filepath.Base(path))
	}
	return s, nil
}

// ParseSceneFile builds a scene from YAML data.
func ParseSceneFile(data []byte, opts Options) (scene.Scene, error) {
	var f sceneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	materials := make(map[string]scene.Material, len(f.Materials))
	names := make([]string, 0, len(f.Materials))
	for name := range f.Materials {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mat, err := f.Materials[name].build(name)
		if err != nil {
			return nil, errors.Wrapf(err, "material %q", name)
		}
		materials[name] = mat
	}

	s := make(scene.Scene, 0, len(f.Meshes))
	for i, ms := range f.Meshes {
		m, err := ms.build(materials, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %d", i)
		}
		s = append(s, m)
	}

	opts.logger().Debug("scene file parsed",
		zap.Int("meshes", len(s)), zap.Int("materials", len(materials)))
	return s, nil
}

func (ms meshSpec) build(materials map[string]scene.Material, opts Options) (scene.Mesh, error) {
	m := scene.Mesh{Comments: ms.Comments}

	switch {
	case ms.Material == "":
		m.Material = scene.DefaultMaterial()
	default:
		mat, ok := materials[ms.Material]
		if !ok {
			return m, errors.Wrapf(ErrUnknownMaterial, "%q", ms.Material)
		}
		m.Material = mat
	}

	if ms.Primitive != nil {
		vertices, group, err := ms.Primitive.tessellate(opts.PrimitiveCells)
		if err != nil {
			return m, err
		}
		m.Vertices = vertices
		m.Indices = []scene.IndexGroup{group}
		m.Comments = append(m.Comments, "primitive "+ms.Primitive.Shape)
		return m, nil
	}

	if len(ms.Vertices) > 0 {
		m.Vertices = make([]scene.Vertex, len(ms.Vertices))
	}
	for i, v := range ms.Vertices {
		color := mgl32.Vec4{1, 1, 1, 1}
		if v.Color != nil {
			color = mgl32.Vec4(*v.Color)
		}
		m.Vertices[i] = scene.Vertex{
			Position: mgl32.Vec3(v.Position),
			Color:    color,
			TexCoord: mgl32.Vec2(v.TexCoord),
			Normal:   mgl32.Vec3(v.Normal),
		}
	}

	for _, g := range ms.Groups {
		topology, err := parseTopology(g.Topology)
		if err != nil {
			return m, err
		}
		m.Indices = append(m.Indices, scene.IndexGroup{Topology: topology, Indices: g.Indices})
	}

	return m, nil
}

func parseTopology(name string) (scene.Topology, error) {
	switch strings.ToLower(name) {
	case "", "list", "triangles":
		return scene.TriangleList, nil
	case "fan":
		return scene.TriangleFan, nil
	case "strip":
		return scene.TriangleStrip, nil
	default:
		return scene.TriangleList, errors.Wrapf(ErrUnknownTopology, "%q", name)
	}
}

func (src materialSpec) build(name string) (scene.Material, error) {
	mat := scene.DefaultMaterial()
	mat.Name = name

	setVec3(&mat.Albedo, src.Albedo)
	setFloat(&mat.Alpha, src.Alpha)
	setFloat(&mat.Roughness, src.Roughness)
	setFloat(&mat.Metalness, src.Metalness)
	setFloat(&mat.Transmission, src.Transmission)
	setFloat(&mat.IOR, src.IOR)
	setFloat(&mat.SSSScale, src.SSSScale)
	setVec3(&mat.SSSRadius, src.SSSRadius)
	setVec3(&mat.SSS, src.SSS)
	setVec3(&mat.Emission, src.Emission)
	setFloat(&mat.EmissionScale, src.EmissionScale)
	setFloat(&mat.HeightScale, src.HeightScale)
	setFloat(&mat.HeightMidlevel, src.HeightMidlevel)
	setFloat(&mat.AlbedoScale, src.AlbedoScale)
	if src.TileTextures != nil {
		mat.TileTextures = *src.TileTextures
	}

	if len(src.Lighting) > 0 {
		toggles := mat.Toggles()
		for key, on := range src.Lighting {
			found := false
			for i, n := range lightingNames {
				if strings.EqualFold(key, n) {
					toggles[i] = on
					found = true
				}
			}
			if !found {
				return mat, errors.Errorf("unknown lighting toggle %q", key)
			}
		}
		mat.SetToggles(toggles)
	}

	for slotName, id := range src.Textures {
		slot, ok := parseSlot(slotName)
		if !ok {
			return mat, errors.Wrapf(ErrUnknownSlot, "%q", slotName)
		}
		mat.SetTexture(slot, scene.TextureID(id))
	}

	return mat, nil
}

func parseSlot(name string) (scene.TextureSlot, bool) {
	for slot := scene.TextureSlot(0); slot < scene.SlotCount; slot++ {
		if strings.EqualFold(name, slot.String()) {
			return slot, true
		}
	}
	return 0, false
}

func setFloat(dst *float32, v *float32) {
	if v != nil {
		*dst = *v
	}
}

func setVec3(dst *mgl32.Vec3, v *[3]float32) {
	if v != nil {
		*dst = mgl32.Vec3(*v)
	}
}
