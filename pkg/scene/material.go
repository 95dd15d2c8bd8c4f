package scene

import "github.com/go-gl/mathgl/mgl32"

// TextureSlot names one of the eight material texture attributes.
type TextureSlot int

// Texture slots in wire order.
const (
	SlotAlbedo TextureSlot = iota
	SlotAlpha
	SlotNormals
	SlotRoughness
	SlotMetalness
	SlotEmission
	SlotSSS
	SlotHeight

	SlotCount = 8
)

// ToggleCount is the number of lighting toggles a material carries.
const ToggleCount = 7

var slotNames = [SlotCount]string{
	"albedo", "alpha", "normals", "roughness", "metalness", "emission", "sss", "height",
}

// String returns the slot name.
func (s TextureSlot) String() string {
	if s < 0 || int(s) >= SlotCount {
		return "unknown"
	}
	return slotNames[s]
}

// Material is a physically based material description.
type Material struct {
	Name string

	Albedo       mgl32.Vec3
	Alpha        float32
	Roughness    float32
	Metalness    float32
	Transmission float32
	IOR          float32

	SSSScale  float32
	SSSRadius mgl32.Vec3
	SSS       mgl32.Vec3 // Subsurface scattering color

	Emission      mgl32.Vec3
	EmissionScale float32

	HeightScale    float32
	HeightMidlevel float32

	// Lighting feature toggles.
	UseAmbient     bool
	UseDiffuse     bool
	UseNdotL       bool
	UseAttenuation bool
	UseShadow      bool
	UseLightMask   bool
	UseReflection  bool

	AlbedoScale  float32
	TileTextures bool

	AlbedoTexture    TextureID
	AlphaTexture     TextureID
	NormalsTexture   TextureID
	RoughnessTexture TextureID
	MetalnessTexture TextureID
	EmissionTexture  TextureID
	SSSTexture       TextureID
	HeightTexture    TextureID
}

// DefaultMaterial returns a material with neutral shading values and all
// lighting features enabled.
func DefaultMaterial() Material {
	return Material{
		Name:           "Default",
		Albedo:         mgl32.Vec3{0.4, 0.4, 0.4},
		Alpha:          1,
		Roughness:      1,
		Metalness:      0,
		IOR:            1.45,
		SSSRadius:      mgl32.Vec3{1, 0.2, 0.1},
		SSS:            mgl32.Vec3{0.8, 0.8, 0.8},
		EmissionScale:  1,
		HeightScale:    0.1,
		HeightMidlevel: 0.5,
		UseAmbient:     true,
		UseDiffuse:     true,
		UseNdotL:       true,
		UseAttenuation: true,
		UseShadow:      true,
		UseLightMask:   true,
		UseReflection:  true,
		AlbedoScale:    1,
		TileTextures:   false,
	}
}

// Textures returns the eight texture slots in wire order.
func (m *Material) Textures() [SlotCount]TextureID {
	return [SlotCount]TextureID{
		m.AlbedoTexture,
		m.AlphaTexture,
		m.NormalsTexture,
		m.RoughnessTexture,
		m.MetalnessTexture,
		m.EmissionTexture,
		m.SSSTexture,
		m.HeightTexture,
	}
}

// SetTexture binds id to the given slot.
func (m *Material) SetTexture(slot TextureSlot, id TextureID) {
	switch slot {
	case SlotAlbedo:
		m.AlbedoTexture = id
	case SlotAlpha:
		m.AlphaTexture = id
	case SlotNormals:
		m.NormalsTexture = id
	case SlotRoughness:
		m.RoughnessTexture = id
	case SlotMetalness:
		m.MetalnessTexture = id
	case SlotEmission:
		m.EmissionTexture = id
	case SlotSSS:
		m.SSSTexture = id
	case SlotHeight:
		m.HeightTexture = id
	}
}

// Toggles returns the lighting toggles in wire order.
func (m *Material) Toggles() [ToggleCount]bool {
	return [ToggleCount]bool{
		m.UseAmbient,
		m.UseDiffuse,
		m.UseNdotL,
		m.UseAttenuation,
		m.UseShadow,
		m.UseLightMask,
		m.UseReflection,
	}
}

// SetToggles assigns the lighting toggles from wire order.
func (m *Material) SetToggles(t [ToggleCount]bool) {
	m.UseAmbient = t[0]
	m.UseDiffuse = t[1]
	m.UseNdotL = t[2]
	m.UseAttenuation = t[3]
	m.UseShadow = t[4]
	m.UseLightMask = t[5]
	m.UseReflection = t[6]
}
