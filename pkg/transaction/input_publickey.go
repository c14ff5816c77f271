package transaction

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
)

// pubKeyScriptMaxSize is the upper bound of a P2PK unlocking script: a
// single 73-byte signature push.
const pubKeyScriptMaxSize = 73

// PublicKeyInput spends a pay-to-public-key output. The signer's public key
// must equal the key embedded in the locking script.
type PublicKeyInput struct {
	baseInput
}

func newPublicKeyInput(base baseInput) (*PublicKeyInput, error) {
	if base.output == nil {
		return nil, fmt.Errorf("public key input: %w", ErrMissingSpendContext)
	}
	if publicKeyFromScript(base.output.PkScript()) == nil {
		return nil, fmt.Errorf("public key input: %w", ErrUnsupportedScript)
	}
	return &PublicKeyInput{baseInput: base}, nil
}

func (in *PublicKeyInput) matchesEmbeddedKey(pub *btcec.PublicKey) bool {
	embedded := publicKeyFromScript(in.output.PkScript())
	return bytes.Equal(embedded, pub.SerializeCompressed()) ||
		bytes.Equal(embedded, pub.SerializeUncompressed())
}

// GetSignatures signs the legacy digest over the locking script when the
// private key matches the embedded public key.
func (in *PublicKeyInput) GetSignatures(tx *Transaction, priv *btcec.PrivateKey,
	inputIndex int, hashType txscript.SigHashType) ([]*TransactionSignature, error) {

	if !in.matchesEmbeddedKey(priv.PubKey()) {
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
// `<sig+hashtype>`.
func (in *PublicKeyInput) AddSignature(tx *Transaction, sig *TransactionSignature) error {
	if !in.matchesEmbeddedKey(sig.PublicKey) {
		return fmt.Errorf("public key input %d: %w", sig.InputIndex, ErrNoMatchingPublicKey)
	}
	valid, err := in.checkSignature(tx, sig)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("public key input %d: %w", sig.InputIndex, ErrInvalidSignature)
	}

	script, err := buildPublicKeyIn(sig.scriptSigComponent())
	if err != nil {
		return fmt.Errorf("build public key unlocking script: %w", err)
	}
	in.sigScript = script
	return nil
}

// ClearSignatures resets the input to the unsigned state.
func (in *PublicKeyInput) ClearSignatures() {
	in.sigScript = nil
}

// IsFullySigned reports whether an unlocking script is present.
func (in *PublicKeyInput) IsFullySigned() bool {
	return len(in.sigScript) > 0
}

// MissingSignatureCount returns 1 until the input is signed.
func (in *PublicKeyInput) MissingSignatureCount() int {
	if in.IsFullySigned() {
		return 0
	}
	return 1
}

// EstimateSize returns the worst-case unlocking script size used by the
// rate-based fee estimate.
func (in *PublicKeyInput) EstimateSize() int {
	return pubKeyScriptMaxSize
}

func (in *PublicKeyInput) checkSignature(tx *Transaction, sig *TransactionSignature) (bool, error) {
	digest, err := SignatureHash(tx, sig.HashType, sig.InputIndex, in.output.PkScript())
	if err != nil {
		return false, err
	}
	return sig.Signature.Verify(digest[:], sig.PublicKey), nil
}

func (in *PublicKeyInput) toObject() InputObject {
	return in.baseObject(inputTypePublicKey)
}
