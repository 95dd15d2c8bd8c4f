package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/bojexport/pkg/scene"
)

// LoadGLTF reads a .gltf or .glb file.
func LoadGLTF(path string, opts Options) (scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return FromGLTF(doc, filepath.Dir(path), opts)
}

// FromGLTF converts every triangle primitive of doc into a mesh. Image
// files referenced by URI are read relative to baseDir; they and any
// embedded images are registered with opts.Textures.
func FromGLTF(doc *gltf.Document, baseDir string, opts Options) (scene.Scene, error) {
	log := opts.logger()
	g := &gltfImporter{
		doc:      doc,
		baseDir:  baseDir,
		opts:     opts,
		log:      log,
		textures: make(map[uint32]scene.TextureID),
	}

	var s scene.Scene
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			m, ok, err := g.primitive(mesh, prim)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %d (%s) primitive %d", mi, mesh.Name, pi)
			}
			if !ok {
				log.Warn("skipping non-triangle primitive",
					zap.String("mesh", mesh.Name), zap.Int("primitive", pi), zap.Int("mode", int(prim.Mode)))
				continue
			}
			m.Comments = append(m.Comments, fmt.Sprintf("gltf mesh %d %q primitive %d", mi, mesh.Name, pi))
			s = append(s, m)
		}
	}

	log.Debug("glTF imported", zap.Int("meshes", len(s)), zap.Int("textures", len(g.textures)))
	return s, nil
}

type gltfImporter struct {
	doc      *gltf.Document
	baseDir  string
	opts     Options
	log      *zap.Logger
	textures map[uint32]scene.TextureID // glTF texture index -> id
}

func topologyOf(mode gltf.PrimitiveMode) (scene.Topology, bool) {
	switch mode {
	case gltf.PrimitiveTriangles:
		return scene.TriangleList, true
	case gltf.PrimitiveTriangleStrip:
		return scene.TriangleStrip, true
	case gltf.PrimitiveTriangleFan:
		return scene.TriangleFan, true
	default:
		return scene.TriangleList, false
	}
}

func (g *gltfImporter) accessor(index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(g.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	return g.doc.Accessors[index], nil
}

func (g *gltfImporter) primitive(mesh *gltf.Mesh, prim *gltf.Primitive) (scene.Mesh, bool, error) {
	var m scene.Mesh

	topology, ok := topologyOf(prim.Mode)
	if !ok {
		return m, false, nil
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return m, false, errors.New("primitive has no POSITION attribute")
	}
	acr, err := g.accessor(posIdx)
	if err != nil {
		return m, false, err
	}
	positions, err := modeler.ReadPosition(g.doc, acr, nil)
	if err != nil {
		return m, false, errors.Wrap(err, "reading positions")
	}

	m.Vertices = make([]scene.Vertex, len(positions))
	for i, p := range positions {
		m.Vertices[i] = scene.Vertex{
			Position: mgl32.Vec3(p),
			Color:    mgl32.Vec4{1, 1, 1, 1},
		}
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err = g.accessor(idx); err != nil {
			return m, false, err
		}
		normals, err := modeler.ReadNormal(g.doc, acr, nil)
		if err != nil {
			return m, false, errors.Wrap(err, "reading normals")
		}
		for i := range m.Vertices {
			if i < len(normals) {
				m.Vertices[i].Normal = mgl32.Vec3(normals[i])
			}
		}
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = g.accessor(idx); err != nil {
			return m, false, err
		}
		uvs, err := modeler.ReadTextureCoord(g.doc, acr, nil)
		if err != nil {
			return m, false, errors.Wrap(err, "reading texture coordinates")
		}
		for i := range m.Vertices {
			if i < len(uvs) {
				m.Vertices[i].TexCoord = mgl32.Vec2(uvs[i])
			}
		}
	}

	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		if acr, err = g.accessor(idx); err != nil {
			return m, false, err
		}
		colors, err := modeler.ReadColor(g.doc, acr, nil)
		if err != nil {
			return m, false, errors.Wrap(err, "reading colors")
		}
		for i := range m.Vertices {
			if i < len(colors) {
				c := colors[i]
				m.Vertices[i].Color = mgl32.Vec4{
					float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255,
				}
			}
		}
	}

	group := scene.IndexGroup{Topology: topology}
	if prim.Indices != nil {
		if acr, err = g.accessor(*prim.Indices); err != nil {
			return m, false, err
		}
		if group.Indices, err = modeler.ReadIndices(g.doc, acr, nil); err != nil {
			return m, false, errors.Wrap(err, "reading indices")
		}
	} else {
		group.Indices = make([]uint32, len(m.Vertices))
		for i := range group.Indices {
			group.Indices[i] = uint32(i)
		}
	}
	m.Indices = []scene.IndexGroup{group}

	if prim.Material != nil && int(*prim.Material) < len(g.doc.Materials) {
		mat, err := g.material(*prim.Material)
		if err != nil {
			return m, false, err
		}
		m.Material = mat
	} else {
		m.Material = scene.DefaultMaterial()
		if mesh.Name != "" {
			m.Material.Name = mesh.Name
		}
	}

	return m, true, nil
}

func (g *gltfImporter) material(index uint32) (scene.Material, error) {
	src := g.doc.Materials[index]

	mat := scene.DefaultMaterial()
	mat.Name = src.Name
	if mat.Name == "" {
		mat.Name = fmt.Sprintf("material%d", index)
	}
	mat.Albedo = mgl32.Vec3{1, 1, 1}
	mat.Alpha = 1
	mat.Metalness = 1
	mat.Roughness = 1
	mat.Emission = mgl32.Vec3(src.EmissiveFactor)

	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if f := pbr.BaseColorFactor; f != nil {
			mat.Albedo = mgl32.Vec3{f[0], f[1], f[2]}
			mat.Alpha = f[3]
		}
		if pbr.MetallicFactor != nil {
			mat.Metalness = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			mat.Roughness = *pbr.RoughnessFactor
		}

		if info := pbr.BaseColorTexture; info != nil {
			id, err := g.texture(info.Index)
			if err != nil {
				return mat, err
			}
			mat.AlbedoTexture = id
			if src.AlphaMode != gltf.AlphaOpaque {
				mat.AlphaTexture = id
			}
			mat.TileTextures = g.repeats(info.Index)
		}
		if info := pbr.MetallicRoughnessTexture; info != nil {
			id, err := g.texture(info.Index)
			if err != nil {
				return mat, err
			}
			mat.RoughnessTexture = id
			mat.MetalnessTexture = id
		}
	}

	if nt := src.NormalTexture; nt != nil && nt.Index != nil {
		id, err := g.texture(*nt.Index)
		if err != nil {
			return mat, err
		}
		mat.NormalsTexture = id
	}

	if info := src.EmissiveTexture; info != nil {
		id, err := g.texture(info.Index)
		if err != nil {
			return mat, err
		}
		mat.EmissionTexture = id
	}

	return mat, nil
}

// repeats reports whether a texture's sampler tiles in both directions.
func (g *gltfImporter) repeats(index uint32) bool {
	if int(index) >= len(g.doc.Textures) {
		return false
	}
	tex := g.doc.Textures[index]
	if tex.Sampler == nil || int(*tex.Sampler) >= len(g.doc.Samplers) {
		return true
	}
	sampler := g.doc.Samplers[*tex.Sampler]
	return sampler.WrapS == gltf.WrapRepeat && sampler.WrapT == gltf.WrapRepeat
}

// texture returns the identifier for a glTF texture and makes its image
// available to the texture store.
func (g *gltfImporter) texture(index uint32) (scene.TextureID, error) {
	if id, ok := g.textures[index]; ok {
		return id, nil
	}
	if int(index) >= len(g.doc.Textures) {
		return scene.NoTexture, fmt.Errorf("texture %d out of range", index)
	}

	tex := g.doc.Textures[index]
	if tex.Source == nil || int(*tex.Source) >= len(g.doc.Images) {
		g.textures[index] = scene.NoTexture
		return scene.NoTexture, nil
	}
	imgIndex := *tex.Source
	img := g.doc.Images[imgIndex]

	id, data, ext, err := g.image(imgIndex, img, tex.Name)
	if err != nil {
		return scene.NoTexture, errors.Wrapf(err, "image %d", imgIndex)
	}
	if g.opts.Textures != nil && data != nil {
		g.opts.Textures.Register(id, data, ext)
	}

	g.textures[index] = id
	return id, nil
}

// image resolves the identifier and encoded bytes of a glTF image.
func (g *gltfImporter) image(index uint32, img *gltf.Image, fallback string) (scene.TextureID, []byte, string, error) {
	name := img.Name
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = fmt.Sprintf("image%d", index)
	}
	ext := extForMime(img.MimeType)

	switch {
	case img.BufferView != nil:
		data, err := g.bufferView(*img.BufferView)
		return scene.TextureID(name), data, ext, err

	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		return scene.TextureID(name), data, ext, err

	case img.URI != "":
		uri := filepath.FromSlash(img.URI)
		ext = strings.ToLower(filepath.Ext(uri))
		id := scene.TextureID(strings.TrimSuffix(filepath.ToSlash(uri), filepath.Ext(uri)))
		data, err := os.ReadFile(filepath.Join(g.baseDir, uri))
		if os.IsNotExist(err) {
			g.log.Warn("image file not found", zap.String("uri", img.URI))
			return id, nil, ext, nil
		}
		return id, data, ext, err
	}

	return scene.TextureID(name), nil, ext, nil
}

func (g *gltfImporter) bufferView(index uint32) ([]byte, error) {
	if int(index) >= len(g.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", index)
	}
	bv := g.doc.BufferViews[index]
	if int(bv.Buffer) >= len(g.doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
	}
	buf := g.doc.Buffers[bv.Buffer].Data
	end := int(bv.ByteOffset) + int(bv.ByteLength)
	if end > len(buf) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer", index)
	}
	return buf[bv.ByteOffset:end], nil
}

func extForMime(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/bmp":
		return ".bmp"
	default:
		return ""
	}
}
