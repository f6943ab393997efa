// Package format defines the shared enums of the flexmesh binary format:
// element types, item value types and block compression types.
package format

import "strings"

type (
	ElementType     uint8
	ValueType       uint8
	CompressionType uint8
)

const (
	ElemTri3   ElementType = 0x1 // ElemTri3 is a 3-node triangle.
	ElemQuad4  ElementType = 0x2 // ElemQuad4 is a 4-node quadrilateral.
	ElemPrism6 ElementType = 0x3 // ElemPrism6 is a 6-node triangular prism (layered 3D).
	ElemHex8   ElementType = 0x4 // ElemHex8 is an 8-node hexahedron (layered 3D).

	ValueInstantaneous ValueType = 0x1 // ValueInstantaneous represents point-in-time samples.
	ValueAccumulated   ValueType = 0x2 // ValueAccumulated represents values accumulated over the step.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// NodeCount returns the number of nodes an element of this type carries,
// or 0 for an unknown type.
func (e ElementType) NodeCount() int {
	switch e {
	case ElemTri3:
		return 3
	case ElemQuad4:
		return 4
	case ElemPrism6:
		return 6
	case ElemHex8:
		return 8
	default:
		return 0
	}
}

// Is3D reports whether the element type is volumetric. Volumetric elements
// list their bottom-face nodes first, then the top face in the same winding.
func (e ElementType) Is3D() bool {
	return e == ElemPrism6 || e == ElemHex8
}

// Projected returns the 2D element type of this type's horizontal face.
// 2D types project to themselves.
func (e ElementType) Projected() ElementType {
	switch e {
	case ElemPrism6:
		return ElemTri3
	case ElemHex8:
		return ElemQuad4
	default:
		return e
	}
}

func (e ElementType) String() string {
	switch e {
	case ElemTri3:
		return "Tri3"
	case ElemQuad4:
		return "Quad4"
	case ElemPrism6:
		return "Prism6"
	case ElemHex8:
		return "Hex8"
	default:
		return "Unknown"
	}
}

func (v ValueType) String() string {
	switch v {
	case ValueInstantaneous:
		return "Instantaneous"
	case ValueAccumulated:
		return "Accumulated"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ProjectionLongLat is the projection string of geographic lon/lat coordinates.
const ProjectionLongLat = "LONG/LAT"

// IsGeoProjection reports whether the projection string denotes geographic
// lon/lat coordinates rather than a projected (metric) coordinate system.
func IsGeoProjection(projection string) bool {
	return strings.EqualFold(strings.TrimSpace(projection), ProjectionLongLat)
}
