package texture

import "github.com/chewxy/math32"

// CubeFaceUV maps a direction to the face it hits and the uv on that face, following the
// WebGPU cube sampling convention. uv has its origin at the top left of the face.
//
// Parameters:
//   - dir: a non-zero direction
//
// Returns:
//   - CubeFace: the face hit
//   - float32, float32: the face coordinates in [0, 1]
func CubeFaceUV(dir [3]float32) (CubeFace, float32, float32) {
	x, y, z := dir[0], dir[1], dir[2]
	ax, ay, az := math32.Abs(x), math32.Abs(y), math32.Abs(z)
	var (
		face   CubeFace
		sc, tc float32
		ma     float32
	)
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if x >= 0 {
			face, sc, tc = CubeFacePosX, -z, -y
		} else {
			face, sc, tc = CubeFaceNegX, z, -y
		}
	case ay >= az:
		ma = ay
		if y >= 0 {
			face, sc, tc = CubeFacePosY, x, z
		} else {
			face, sc, tc = CubeFaceNegY, x, -z
		}
	default:
		ma = az
		if z >= 0 {
			face, sc, tc = CubeFacePosZ, x, -y
		} else {
			face, sc, tc = CubeFaceNegZ, -x, -y
		}
	}
	if ma == 0 {
		return CubeFacePosX, 0.5, 0.5
	}
	return face, (sc/ma + 1) * 0.5, (tc/ma + 1) * 0.5
}

// CubeDirection is the inverse of CubeFaceUV: the unnormalized direction through uv on face.
func CubeDirection(face CubeFace, u, v float32) [3]float32 {
	sc, tc := u*2-1, v*2-1
	switch face {
	case CubeFacePosX:
		return [3]float32{1, -tc, -sc}
	case CubeFaceNegX:
		return [3]float32{-1, -tc, sc}
	case CubeFacePosY:
		return [3]float32{sc, 1, tc}
	case CubeFaceNegY:
		return [3]float32{sc, -1, -tc}
	case CubeFacePosZ:
		return [3]float32{sc, -tc, 1}
	default:
		return [3]float32{-sc, -tc, -1}
	}
}

// Face returns the RGBA float data of one face, or nil when the cube has no pixels.
func (c *CubeMap) Face(face CubeFace) []float32 {
	faceLen := c.Width * c.Height * 4
	if len(c.Pixels) < faceLen*6 || face < CubeFacePosX || face > CubeFaceNegZ {
		return nil
	}
	return c.Pixels[int(face)*faceLen : int(face+1)*faceLen]
}

// SampleNearest returns the texel the direction hits.
func (c *CubeMap) SampleNearest(dir [3]float32) [4]float32 {
	face, u, v := CubeFaceUV(dir)
	data := c.Face(face)
	if data == nil {
		return [4]float32{}
	}
	x := min(max(int(u*float32(c.Width)), 0), c.Width-1)
	y := min(max(int(v*float32(c.Height)), 0), c.Height-1)
	i := (y*c.Width + x) * 4
	return [4]float32{data[i], data[i+1], data[i+2], data[i+3]}
}
