package frame

// Mask XORs b in place with the 4-byte key, cycling by payload index mod 4. pos is the
// payload index of b[0]; the returned value is the index following the last byte, so a
// payload can be masked in several pieces.
func Mask(b []byte, key uint32, pos int) int {
	k := [4]byte{byte(key >> 24), byte(key >> 16), byte(key >> 8), byte(key)}
	for i := range b {
		b[i] ^= k[(pos+i)&3]
	}
	return pos + len(b)
}
