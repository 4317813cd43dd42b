// Package domain defines the parameters and errors of the key derivation paths.
//
// Two paths exist and they are not interchangeable:
//   - PBKDF2-HMAC-SHA256 derives raw data-key material from the master secret.
//   - Argon2id hashes passwords into self-describing PHC strings for verification.
package domain

// Default PBKDF2 parameters for data-key derivation.
const (
	DefaultIterations    = 100000
	DefaultMinIterations = 100000
	DefaultKeyLength     = 32
)

// Default Argon2id parameters for password hashing.
const (
	DefaultArgon2MemoryKiB   = 64 * 1024
	DefaultArgon2TimeCost    = 4
	DefaultArgon2Parallelism = 3
	DefaultArgon2SaltLength  = 16
	DefaultArgon2KeyLength   = 32
)

// Pbkdf2Params configures data-key derivation.
type Pbkdf2Params struct {
	Iterations    int
	MinIterations int
}

// DefaultPbkdf2Params returns the 100,000 iteration defaults.
func DefaultPbkdf2Params() Pbkdf2Params {
	return Pbkdf2Params{
		Iterations:    DefaultIterations,
		MinIterations: DefaultMinIterations,
	}
}

// Argon2Params configures password hashing. MemoryKiB is in kibibytes.
type Argon2Params struct {
	MemoryKiB   uint32
	TimeCost    uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns memory=64MiB, time=4, parallelism=3.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		MemoryKiB:   DefaultArgon2MemoryKiB,
		TimeCost:    DefaultArgon2TimeCost,
		Parallelism: DefaultArgon2Parallelism,
		SaltLength:  DefaultArgon2SaltLength,
		KeyLength:   DefaultArgon2KeyLength,
	}
}
