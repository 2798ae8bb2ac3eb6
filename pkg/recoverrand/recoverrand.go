// Package recoverrand implements the deterministic randomness derivation
// of spec.md §4.6 round 1 step 3: Paillier keys and a ZkSetup are derived
// from (secret_recovery_key, session_nonce, tag, party_id) via HMAC-SHA256
// seeded ChaCha20, so that the originating party can regenerate the exact
// same keys later during recovery rather than trusting storage of the
// decryption key itself.
package recoverrand

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"
)

// Reader derives a 32-byte seed from the given components via HMAC-SHA256
// and returns a ChaCha20 stream keyed on that seed, usable anywhere an
// io.Reader-backed CSPRNG is expected (paillier.Keygen, zksetup.Generate).
func Reader(secretRecoveryKey, sessionNonce []byte, tag byte, partyID []byte) (io.Reader, error) {
	mac := hmac.New(sha256.New, secretRecoveryKey)
	mac.Write(sessionNonce)
	mac.Write([]byte{tag})
	mac.Write(partyID)
	seed := mac.Sum(nil) // 32 bytes, exactly chacha20.KeySize

	var nonce [chacha20.NonceSize]byte // all-zero: the seed is single-use per (tag, party_id, session)
	c, err := chacha20.NewUnauthenticatedCipher(seed, nonce[:])
	if err != nil {
		return nil, fmt.Errorf("recoverrand.Reader: %w", err)
	}
	return &cipherReader{c: c}, nil
}

type cipherReader struct{ c *chacha20.Cipher }

func (r *cipherReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	r.c.XORKeyStream(p, p)
	return len(p), nil
}
