// Package workload generates synthetic put/get/delete operation streams
// matching the KVPack paper's benchmark profiles, and a uniform baseline
// generator, for driving a KVSSD without a real trace file (spec.md §6
// "Trace replay (external)"; supplemented from
// original_source/src/workload.py, which this package generalizes from
// Python's generator/yield idiom to functions that build a slice of
// Operation values up front).
package workload

import "math/rand"

// OpType names one of the three KVSSD operations a workload can emit.
type OpType int

const (
	Put OpType = iota
	Get
	Delete
)

// Operation is one emitted unit of work.
type Operation struct {
	Type      OpType
	Key       []byte
	KeySize   int
	ValueSize int // 0 for Get/Delete
}

// Profile describes one KVPack Table V benchmark workload: its source
// system and its fixed key/value sizes.
type Profile struct {
	Source    string
	KeySize   int
	ValueSize int
}

// Profiles holds the ten KVPack Table V workload profiles.
var Profiles = map[string]Profile{
	"ETC":     {Source: "Facebook", KeySize: 41, ValueSize: 358},
	"UDB":     {Source: "Facebook", KeySize: 27, ValueSize: 127},
	"ZippyDB": {Source: "Facebook", KeySize: 48, ValueSize: 43},
	"Cache":   {Source: "Twitter", KeySize: 42, ValueSize: 188},
	"Cache15": {Source: "Twitter", KeySize: 38, ValueSize: 38},
	"VAR":     {Source: "Facebook", KeySize: 35, ValueSize: 115},
	"Crypto1": {Source: "BlockStream", KeySize: 76, ValueSize: 50},
	"Crypto2": {Source: "Trezor", KeySize: 37, ValueSize: 110},
	"Dedup":   {Source: "IBM", KeySize: 20, ValueSize: 44},
	"RTDATA":  {Source: "Microsoft", KeySize: 24, ValueSize: 10},
}

// ProfileNames returns the names of Profiles in the fixed order used by the
// original Table V listing.
func ProfileNames() []string {
	return []string{"ETC", "UDB", "ZippyDB", "Cache", "Cache15", "VAR", "Crypto1", "Crypto2", "Dedup", "RTDATA"}
}

func randomKey(rng *rand.Rand, size int) []byte {
	b := make([]byte, size)
	_, _ = rng.Read(b)
	return b
}

// Synthetic generates a population phase (one Put per key) followed by
// numOps mixed operations against a fixed key pool, at the given profile's
// key/value sizes (spec §6 supplement; original_source/src/workload.py
// synthetic_workload). readRatio+deleteRatio must be <= 1; the remainder is
// writes.
func Synthetic(profileName string, numKeys, numOps int, readRatio, deleteRatio float64, seed int64) []Operation {
	profile := Profiles[profileName]
	rng := rand.New(rand.NewSource(seed))

	keys := make([][]byte, numKeys)
	for i := range keys {
		keys[i] = randomKey(rng, profile.KeySize)
	}

	ops := make([]Operation, 0, numKeys+numOps)
	for _, k := range keys {
		ops = append(ops, Operation{Type: Put, Key: k, KeySize: profile.KeySize, ValueSize: profile.ValueSize})
	}

	writeRatio := 1.0 - readRatio - deleteRatio
	for i := 0; i < numOps; i++ {
		k := keys[rng.Intn(len(keys))]
		r := rng.Float64()
		switch {
		case r < readRatio:
			ops = append(ops, Operation{Type: Get, Key: k, KeySize: profile.KeySize})
		case r < readRatio+writeRatio:
			ops = append(ops, Operation{Type: Put, Key: k, KeySize: profile.KeySize, ValueSize: profile.ValueSize})
		default:
			ops = append(ops, Operation{Type: Delete, Key: k, KeySize: profile.KeySize})
		}
	}
	return ops
}

// Uniform generates a population phase plus numOps get/put operations at a
// caller-chosen fixed key/value size, with no deletes (original_source's
// uniform_workload).
func Uniform(numKeys, numOps, keySize, valueSize int, readRatio float64, seed int64) []Operation {
	rng := rand.New(rand.NewSource(seed))
	keys := make([][]byte, numKeys)
	for i := range keys {
		keys[i] = randomKey(rng, keySize)
	}

	ops := make([]Operation, 0, numKeys+numOps)
	for _, k := range keys {
		ops = append(ops, Operation{Type: Put, Key: k, KeySize: keySize, ValueSize: valueSize})
	}
	for i := 0; i < numOps; i++ {
		k := keys[rng.Intn(len(keys))]
		if rng.Float64() < readRatio {
			ops = append(ops, Operation{Type: Get, Key: k, KeySize: keySize})
		} else {
			ops = append(ops, Operation{Type: Put, Key: k, KeySize: keySize, ValueSize: valueSize})
		}
	}
	return ops
}
