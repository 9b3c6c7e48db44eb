/*
Package security provides API key generation, hashing, and verification.

Clients authenticate every request with a bearer API key. Keys are random
40-character alphanumeric strings; the database stores only bcrypt hashes,
so a leaked database dump never yields usable credentials.

# Architecture

	┌──────────────┐     GenerateKey      ┌──────────────────┐
	│   Operator   │ ───────────────────▶ │  Plaintext key   │
	│  (one time)  │                      │  (shown once)    │
	└──────────────┘                      └────────┬─────────┘
	                                               │ HashKey
	                                               ▼
	┌──────────────┐     VerifyKey        ┌──────────────────┐
	│ Auth middle- │ ◀─────────────────── │  bcrypt hash     │
	│ ware         │                      │  (in database)   │
	└──────────────┘                      └──────────────────┘

# Core Components

## Key Generation

GenerateKey draws each of the 40 characters independently from the
62-character alphabet (digits, upper, lower) using crypto/rand, giving
roughly 238 bits of entropy per key. rand.Int performs rejection sampling
internally, so the distribution over the alphabet is uniform.

## Hashing

HashKey wraps bcrypt at cost 12. At that cost a single hash takes on the
order of 250ms of CPU, which makes offline brute force of a stolen hash
table impractical while keeping interactive verification tolerable.

## Verification

VerifyKey wraps bcrypt.CompareHashAndPassword, which is constant-time over
the hash comparison. Callers receive only a boolean; the distinction
between "wrong key" and "malformed hash" is not exposed.

ValidKeyFormat is a cheap pre-filter: requests whose bearer token is not
exactly 40 alphanumeric characters can be rejected before any bcrypt work,
which matters because verification scans all active key hashes.

# Usage

Provisioning a new key:

	key, err := security.GenerateKey()
	if err != nil {
		return err
	}
	hash, err := security.HashKey(key)
	if err != nil {
		return err
	}
	// Store hash; print key to the operator exactly once.

Verifying a presented key against stored hashes:

	if !security.ValidKeyFormat(candidate) {
		return ErrUnauthorized
	}
	for _, k := range activeKeys {
		if security.VerifyKey(k.KeyHash, candidate) {
			return nil
		}
	}
	return ErrUnauthorized

# Integration Points

  - pkg/auth: HTTP middleware calls ValidKeyFormat and VerifyKey on every
    authenticated request.
  - pkg/store: persists hashes in the api_keys table; plaintext keys never
    touch the database.
  - cmd/logbarn: the key management commands call GenerateKey and HashKey
    when provisioning credentials.

# Security Considerations

  - Plaintext keys exist only in the provisioning response and in client
    configuration. They are never logged; pkg/log policy forbids key
    material in any event.
  - Cost 12 is a floor, not a ceiling. Raising HashCost only affects newly
    hashed keys; existing hashes keep their original cost and still verify.
  - bcrypt truncates input beyond 72 bytes. At 40 characters, keys are well
    inside that limit.

# See Also

  - pkg/auth for the request authentication flow
  - pkg/store for hash persistence
*/
package security
