// Package signer implements Ed25519 session-key signing for the ZendFi
// Agentic Intent Protocol.
//
// Session keys are ordinary Solana keypairs: the 64-byte secret is the
// ed25519 seed followed by the public key, and public keys are base58
// encoded. All operations are pure and safe for concurrent use; nothing in
// this package performs I/O or talks to the backend.
//
// Verification fails closed: malformed keys, signatures, or encodings yield
// false, never a panic.
package signer

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"

	zendfi "github.com/zendfi/zendfi-go"
)

// SecretKeySize is the length of a Solana secret key: 32-byte seed followed
// by the 32-byte public key.
const SecretKeySize = 64

// SignatureSize is the length of an Ed25519 signature.
const SignatureSize = 64

// Keypair is an Ed25519 session keypair.
type Keypair struct {
	privateKey solana.PrivateKey
}

// Generate creates a new session keypair from the system CSPRNG.
func Generate() (*Keypair, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrSigningFailed, err)
	}
	return &Keypair{privateKey: key}, nil
}

// FromSecretKey reconstructs a keypair from a 64-byte Solana secret key.
// The public key half must match the key derived from the seed.
func FromSecretKey(secret []byte) (*Keypair, error) {
	if len(secret) != SecretKeySize {
		return nil, fmt.Errorf("%w: secret key must be %d bytes, got %d",
			zendfi.ErrInvalidKey, SecretKeySize, len(secret))
	}

	derived := ed25519.NewKeyFromSeed(secret[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], secret[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("%w: public key does not match seed", zendfi.ErrInvalidKey)
	}

	key := make(solana.PrivateKey, SecretKeySize)
	copy(key, secret)
	return &Keypair{privateKey: key}, nil
}

// FromBase58 reconstructs a keypair from a base58-encoded secret key.
func FromBase58(encoded string) (*Keypair, error) {
	key, err := solana.PrivateKeyFromBase58(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrInvalidKey, err)
	}
	return FromSecretKey(key)
}

// PublicKey returns the base58-encoded public key (the session wallet address).
func (k *Keypair) PublicKey() string {
	return k.privateKey.PublicKey().String()
}

// SecretKeyBase58 returns the base58-encoded secret key, the format used by
// Solana wallet exports.
func (k *Keypair) SecretKeyBase58() string {
	return k.privateKey.String()
}

// SecretKey returns a copy of the 64-byte secret key.
func (k *Keypair) SecretKey() []byte {
	secret := make([]byte, len(k.privateKey))
	copy(secret, k.privateKey)
	return secret
}

// Sign signs the message and returns the 64-byte Ed25519 signature.
// Identical inputs always produce identical signatures.
func (k *Keypair) Sign(message []byte) ([]byte, error) {
	sig, err := k.privateKey.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrSigningFailed, err)
	}
	return sig[:], nil
}

// SignBase64 signs the message and returns the base64-encoded signature,
// the encoding the ZendFi API expects.
func (k *Keypair) SignBase64(message []byte) (string, error) {
	sig, err := k.Sign(message)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether signature is a valid Ed25519 signature over message
// by the holder of the base58-encoded public key. Any malformed input yields
// false.
func Verify(publicKey string, message, signature []byte) bool {
	if len(signature) != SignatureSize {
		return false
	}
	pub, err := solana.PublicKeyFromBase58(publicKey)
	if err != nil {
		return false
	}
	sig := solana.SignatureFromBytes(signature)
	return pub.Verify(message, sig)
}

// VerifyBase64 verifies a base64-encoded signature over message. Any
// malformed input yields false.
func VerifyBase64(publicKey string, message []byte, signatureBase64 string) bool {
	sig, err := base64.StdEncoding.DecodeString(signatureBase64)
	if err != nil {
		return false
	}
	return Verify(publicKey, message, sig)
}
