// SPDX-License-Identifier: EPL-2.0

package utils

// CubicFracBits is the number of fractional bits of the position passed to
// CubicInterpolate.
const CubicFracBits = 15

// CubicInterpolate performs Catmull-Rom interpolation between y1 and y2.
// y0, y1, y2, y3 are four consecutive samples and x is the position between
// y1 and y2 in Q15 (0 <= x < 1<<15).
//
// The polynomial is evaluated with doubled coefficients in 64-bit arithmetic
// so that the intermediate products of full scale 16-bit input cannot overflow.
func CubicInterpolate(y0, y1, y2, y3 int32, x uint32) int32 {
	a0 := int64(-y0 + 3*y1 - 3*y2 + y3)
	a1 := int64(2*y0 - 5*y1 + 4*y2 - y3)
	a2 := int64(-y0 + y2)
	fx := int64(x)

	t := (a0 * fx) >> CubicFracBits
	t = ((t + a1) * fx) >> CubicFracBits
	t = ((t + a2) * fx) >> (CubicFracBits + 1)

	return y1 + int32(t)
}
