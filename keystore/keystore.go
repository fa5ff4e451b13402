// Package keystore encrypts session keypairs with a PIN and device
// fingerprint so the backend only ever stores an opaque envelope.
//
// The envelope format is "pbkdf2-aes256gcm-v1": the AES-256 key is derived
// with PBKDF2-HMAC-SHA256 (100 000 iterations) from the PIN, salted with the
// SHA-256 of the device fingerprint, and the 64-byte secret key is sealed
// with AES-256-GCM under a random 12-byte nonce.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/zendfi/zendfi-go/signer"
	"github.com/zendfi/zendfi-go/validation"
)

// Version identifies the envelope format.
const Version = "pbkdf2-aes256gcm-v1"

const (
	pbkdf2Iterations = 100000
	keyLength        = 32
	nonceLength      = 12
)

var (
	// ErrInvalidPIN indicates the PIN is not exactly six numeric digits.
	ErrInvalidPIN = errors.New("keystore: PIN must be exactly 6 numeric digits")

	// ErrFingerprintMismatch indicates the envelope is bound to a different device.
	ErrFingerprintMismatch = errors.New("keystore: device fingerprint mismatch")

	// ErrDecryptFailed indicates a wrong PIN or a corrupted envelope.
	ErrDecryptFailed = errors.New("keystore: decryption failed, wrong PIN or corrupted data")

	// ErrInvalidEnvelope indicates the envelope fields are malformed.
	ErrInvalidEnvelope = errors.New("keystore: invalid envelope")
)

// EncryptedKey is the envelope stored on the backend. The backend cannot
// decrypt it; only the device holding the PIN and fingerprint can.
type EncryptedKey struct {
	EncryptedData     string `json:"encrypted_data"`
	Nonce             string `json:"nonce"`
	PublicKey         string `json:"public_key"`
	DeviceFingerprint string `json:"device_fingerprint"`
	Version           string `json:"version"`
}

// Encrypt seals the keypair's secret key with the PIN and device fingerprint.
func Encrypt(kp *signer.Keypair, pin, fingerprint string) (*EncryptedKey, error) {
	if err := validation.ValidatePIN(pin); err != nil {
		return nil, ErrInvalidPIN
	}
	if fingerprint == "" {
		return nil, fmt.Errorf("%w: empty device fingerprint", ErrInvalidEnvelope)
	}

	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keystore: nonce generation failed: %w", err)
	}

	aead, err := newAEAD(pin, fingerprint)
	if err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, nonce, kp.SecretKey(), nil)

	return &EncryptedKey{
		EncryptedData:     base64.StdEncoding.EncodeToString(sealed),
		Nonce:             base64.StdEncoding.EncodeToString(nonce),
		PublicKey:         kp.PublicKey(),
		DeviceFingerprint: fingerprint,
		Version:           Version,
	}, nil
}

// Decrypt opens the envelope with the PIN and device fingerprint and
// reconstructs the keypair. The fingerprint must match the one the envelope
// was sealed with.
func Decrypt(enc *EncryptedKey, pin, fingerprint string) (*signer.Keypair, error) {
	if err := validation.ValidatePIN(pin); err != nil {
		return nil, ErrInvalidPIN
	}
	if enc.Version != "" && enc.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidEnvelope, enc.Version)
	}
	if enc.DeviceFingerprint != fingerprint {
		return nil, ErrFingerprintMismatch
	}

	sealed, err := base64.StdEncoding.DecodeString(enc.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(enc.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if len(nonce) != nonceLength {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrInvalidEnvelope, nonceLength)
	}

	aead, err := newAEAD(pin, fingerprint)
	if err != nil {
		return nil, err
	}

	secret, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	kp, err := signer.FromSecretKey(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return kp, nil
}

// newAEAD derives the AES-256-GCM cipher for a PIN + fingerprint pair.
// The salt is the SHA-256 of the fingerprint, binding the key to the device.
func newAEAD(pin, fingerprint string) (cipher.AEAD, error) {
	salt := sha256.Sum256([]byte(fingerprint))
	key := pbkdf2.Key([]byte(pin), salt[:], pbkdf2Iterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keystore: cipher init failed: %w", err)
	}
	return cipher.NewGCM(block)
}
