package signer

import (
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/tyler-smith/go-bip39"

	zendfi "github.com/zendfi/zendfi-go"
)

// NewMnemonic generates a 24-word BIP39 recovery phrase for a session key.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("%w: %v", zendfi.ErrSigningFailed, err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("%w: %v", zendfi.ErrSigningFailed, err)
	}
	return mnemonic, nil
}

// FromMnemonic derives a session keypair from a BIP39 recovery phrase.
// Derivation is deterministic: the same phrase always yields the same keypair.
func FromMnemonic(mnemonic string) (*Keypair, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, zendfi.ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")
	priv := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])

	return &Keypair{privateKey: solana.PrivateKey(priv)}, nil
}
