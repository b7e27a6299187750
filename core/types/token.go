package types

import "strconv"

// TokenID is a contract-local token identifier.
type TokenID uint32

func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Amount is a token or native currency quantity in the smallest unit.
type Amount uint64

// MicroPerUnit is the number of smallest native units in one whole CCD.
const MicroPerUnit Amount = 1_000_000

func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// Timestamp is chain time in milliseconds since the unix epoch.
type Timestamp uint64

// MetadataURL points at off-chain token metadata with an optional content hash.
type MetadataURL struct {
	URL  string `json:"url"`
	Hash string `json:"hash,omitempty"`
}
