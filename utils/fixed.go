// SPDX-License-Identifier: EPL-2.0

package utils

// Clamp16 saturates a 32-bit sample to the signed 16-bit range.
// When bit 15 disagrees with the sign bit the value no longer fits,
// and it is replaced by the extreme of the same sign.
func Clamp16(sample int32) int16 {
	if (sample>>15)^(sample>>31) != 0 {
		sample = 0x7FFF ^ (sample >> 31)
	}
	return int16(sample)
}

// MulAdd returns a + in*v.
func MulAdd(in, v int16, a int32) int32 {
	return a + int32(in)*int32(v)
}

// Mul returns in*v widened to 32 bits.
func Mul(in, v int16) int32 {
	return int32(in) * int32(v)
}

// PackRL packs a left and right 16-bit value into one word,
// left in the low half and right in the high half.
func PackRL(left, right int16) uint32 {
	return uint32(uint16(right))<<16 | uint32(uint16(left))
}

// UnpackRL is the inverse of PackRL.
func UnpackRL(rl uint32) (left, right int16) {
	return int16(rl & 0xFFFF), int16(rl >> 16)
}

// MulRL multiplies the left (or right) halves of two packed words.
func MulRL(left bool, inRL, vRL uint32) int32 {
	if left {
		return int32(int16(inRL&0xFFFF)) * int32(int16(vRL&0xFFFF))
	}
	return int32(int16(inRL>>16)) * int32(int16(vRL>>16))
}

// MulAddRL is MulRL accumulated into a.
func MulAddRL(left bool, inRL, vRL uint32, a int32) int32 {
	return a + MulRL(left, inRL, vRL)
}
