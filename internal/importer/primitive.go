package importer

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Faultbox/bojexport/pkg/scene"
)

// defaultPrimitiveCells controls marching cubes resolution when unset.
const defaultPrimitiveCells = 32

// primitiveSpec describes a generated solid.
type primitiveSpec struct {
	Shape  string     `yaml:"shape"` // box, sphere or cylinder
	Size   [3]float64 `yaml:"size"`
	Radius float64    `yaml:"radius"`
	Height float64    `yaml:"height"`
	Round  float64    `yaml:"round"`
	Cells  int        `yaml:"cells"` // Overrides the import setting
}

func (p *primitiveSpec) solid() (sdf.SDF3, error) {
	switch p.Shape {
	case "box":
		return sdf.Box3D(v3.Vec{X: p.Size[0], Y: p.Size[1], Z: p.Size[2]}, p.Round)
	case "sphere":
		return sdf.Sphere3D(p.Radius)
	case "cylinder":
		return sdf.Cylinder3D(p.Height, p.Radius, p.Round)
	default:
		return nil, errors.Errorf("unknown primitive shape %q", p.Shape)
	}
}

// tessellate converts the solid into a flat-shaded triangle list.
func (p *primitiveSpec) tessellate(cells int) ([]scene.Vertex, scene.IndexGroup, error) {
	group := scene.IndexGroup{Topology: scene.TriangleList}

	s, err := p.solid()
	if err != nil {
		return nil, group, errors.Wrapf(err, "primitive %s", p.Shape)
	}

	if p.Cells > 0 {
		cells = p.Cells
	}
	if cells <= 0 {
		cells = defaultPrimitiveCells
	}

	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	vertices := make([]scene.Vertex, 0, len(triangles)*3)
	group.Indices = make([]uint32, 0, len(triangles)*3)
	for _, tri := range triangles {
		n := tri.Normal()
		normal := mgl32.Vec3{float32(n.X), float32(n.Y), float32(n.Z)}
		for j := 0; j < 3; j++ {
			v := tri[j]
			group.Indices = append(group.Indices, uint32(len(vertices)))
			vertices = append(vertices, scene.Vertex{
				Position: mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)},
				Color:    mgl32.Vec4{1, 1, 1, 1},
				Normal:   normal,
			})
		}
	}

	return vertices, group, nil
}
