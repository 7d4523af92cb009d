package chain

import (
	"crypto/sha256"
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"golang.org/x/crypto/ripemd160"
)

// Bitcoin P2PKH version bytes.
const (
	mainnetP2PKH byte = 0x00
	testnetP2PKH byte = 0x6f
)

// BIP32Deriver derives P2PKH receiving addresses from a gateway's extended
// public key. The xpub is expected at the account level; Derive produces the
// external child at the given index.
type BIP32Deriver struct{}

// NewBIP32Deriver creates the deriver.
func NewBIP32Deriver() *BIP32Deriver {
	return &BIP32Deriver{}
}

// Derive computes the base58check P2PKH address for child index of xpub.
func (d *BIP32Deriver) Derive(xpub string, index uint32, testMode bool) (string, error) {
	if xpub == "" {
		return "", errors.New("xpub is not configured")
	}

	key, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return "", err
	}
	child, err := key.Derive(index)
	if err != nil {
		return "", err
	}

	pubKey, err := child.ECPubKey()
	if err != nil {
		return "", err
	}

	compressed := pubKey.SerializeCompressed()
	hash := sha256.Sum256(compressed)
	rip := ripemd160.New()
	_, _ = rip.Write(hash[:])
	pkHash := rip.Sum(nil)

	version := mainnetP2PKH
	if testMode {
		version = testnetP2PKH
	}
	return base58.CheckEncode(pkHash, version), nil
}
