package contract

import "golang.org/x/crypto/sha3"

// Selector returns the 4-byte function selector of a canonical signature,
// e.g. "transfer(address,uint256)".
func Selector(sig string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	var out [4]byte
	copy(out[:], h.Sum(nil)[:4])
	return out
}
