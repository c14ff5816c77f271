package transaction

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
)

// pubKeyHashScriptMaxSize is the upper bound of a P2PKH unlocking script:
// a 73-byte signature push plus a 34-byte public key push.
const pubKeyHashScriptMaxSize = 73 + 34

// PublicKeyHashInput spends a pay-to-public-key-hash output. It holds at
// most one signature; the signer's public key must hash to the value
// embedded in the locking script.
type PublicKeyHashInput struct {
	baseInput
}

func newPublicKeyHashInput(base baseInput) (*PublicKeyHashInput, error) {
	if base.output == nil {
		return nil, fmt.Errorf("public key hash input: %w", ErrMissingSpendContext)
	}
	if publicKeyHashFromScript(base.output.PkScript()) == nil {
		return nil, fmt.Errorf("public key hash input: %w", ErrUnsupportedScript)
	}
	return &PublicKeyHashInput{baseInput: base}, nil
}

// matchingPubKeySerialization returns the serialization of pub (compressed
// or uncompressed) whose Hash160 equals the script-embedded hash, or nil.
func (in *PublicKeyHashInput) matchingPubKeySerialization(pub *btcec.PublicKey) []byte {
	scriptHash := publicKeyHashFromScript(in.output.PkScript())
	for _, serialized := range [][]byte{
		pub.SerializeCompressed(),
		pub.SerializeUncompressed(),
	} {
		if bytes.Equal(btcutil.Hash160(serialized), scriptHash) {
			return serialized
		}
	}
	return nil
}

// GetSignatures signs the legacy digest over the locking script when the
// private key's public key hashes to the script-embedded value. A
// non-matching key yields an empty result.
func (in *PublicKeyHashInput) GetSignatures(tx *Transaction, priv *btcec.PrivateKey,
	inputIndex int, hashType txscript.SigHashType) ([]*TransactionSignature, error) {

	if in.matchingPubKeySerialization(priv.PubKey()) == nil {
		return nil, nil
	}

	digest, err := SignatureHash(tx, hashType, inputIndex, in.output.PkScript())
	if err != nil {
		return nil, err
	}
	return []*TransactionSignature{{
		PublicKey:   priv.PubKey(),
		PrevTxID:    in.prevTxID,
		OutputIndex: in.outputIndex,
		InputIndex:  inputIndex,
		Signature:   ecdsa.Sign(priv, digest[:]),
		HashType:    hashType,
	}}, nil
}

// AddSignature verifies the signature and rebuilds the unlocking script as
// `<sig+hashtype> <pubkey>`.
func (in *PublicKeyHashInput) AddSignature(tx *Transaction, sig *TransactionSignature) error {
	valid, err := in.checkSignature(tx, sig)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("public key hash input %d: %w", sig.InputIndex, ErrInvalidSignature)
	}

	pubSerialization := in.matchingPubKeySerialization(sig.PublicKey)
	if pubSerialization == nil {
		return fmt.Errorf("public key hash input %d: %w", sig.InputIndex, ErrNoMatchingPublicKey)
	}
	script, err := buildPublicKeyHashIn(pubSerialization, sig.scriptSigComponent())
	if err != nil {
		return fmt.Errorf("build public key hash unlocking script: %w", err)
	}
	in.sigScript = script
	return nil
}

// ClearSignatures resets the input to the unsigned state.
func (in *PublicKeyHashInput) ClearSignatures() {
	in.sigScript = nil
}

// IsFullySigned reports whether an unlocking script is present.
func (in *PublicKeyHashInput) IsFullySigned() bool {
	return len(in.sigScript) > 0
}

// MissingSignatureCount returns 1 until the input is signed.
func (in *PublicKeyHashInput) MissingSignatureCount() int {
	if in.IsFullySigned() {
		return 0
	}
	return 1
}

// EstimateSize returns the worst-case unlocking script size used by the
// rate-based fee estimate.
func (in *PublicKeyHashInput) EstimateSize() int {
	return pubKeyHashScriptMaxSize
}

func (in *PublicKeyHashInput) checkSignature(tx *Transaction, sig *TransactionSignature) (bool, error) {
	digest, err := SignatureHash(tx, sig.HashType, sig.InputIndex, in.output.PkScript())
	if err != nil {
		return false, err
	}
	return sig.Signature.Verify(digest[:], sig.PublicKey), nil
}

func (in *PublicKeyHashInput) toObject() InputObject {
	return in.baseObject(inputTypePublicKeyHash)
}
