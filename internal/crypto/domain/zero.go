package domain

// Zero wipes key material, master secrets and decrypted fields once they are no longer needed.
// The Go runtime may have copied the bytes elsewhere; this only clears the slice given.
func Zero(buffers ...[]byte) {
	for _, b := range buffers {
		clear(b)
	}
}
