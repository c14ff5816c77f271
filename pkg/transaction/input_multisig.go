package transaction

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
)

const (
	// multiSigOpcodesSize is the leading OP_0 of a bare multisig unlocking
	// script.
	multiSigOpcodesSize = 1

	// multiSigSignatureSize is the worst-case size of one signature push.
	multiSigSignatureSize = 73
)

// multiSigState is the signature-accumulation state shared by the bare and
// script-hash multisig variants: public keys sorted lexicographically by
// their compressed serialization, a threshold, and a signature slice
// index-aligned to the sorted keys where nil marks a hole.
type multiSigState struct {
	publicKeys []*btcec.PublicKey
	threshold  int
	signatures []*TransactionSignature
	keyIndex   map[string]int
}

func newMultiSigState(pubKeys []*btcec.PublicKey, threshold int) (multiSigState, error) {
	if threshold <= 0 || threshold > len(pubKeys) {
		return multiSigState{}, fmt.Errorf(
			"multisig threshold %d out of range for %d keys", threshold, len(pubKeys))
	}
	sorted := sortPublicKeys(pubKeys)
	return multiSigState{
		publicKeys: sorted,
		threshold:  threshold,
		signatures: make([]*TransactionSignature, len(sorted)),
		keyIndex:   publicKeyIndexMap(sorted),
	}, nil
}

// PublicKeys returns the key set in canonical order.
func (s *multiSigState) PublicKeys() []*btcec.PublicKey {
	return s.publicKeys
}

// Threshold returns the number of signatures required.
func (s *multiSigState) Threshold() int {
	return s.threshold
}

// SignatureCount returns the number of accumulated signatures.
func (s *multiSigState) SignatureCount() int {
	count := 0
	for _, sig := range s.signatures {
		if sig != nil {
			count++
		}
	}
	return count
}

func (s *multiSigState) fullySigned() bool {
	return s.SignatureCount() == s.threshold
}

func (s *multiSigState) missing() int {
	if remaining := s.threshold - s.SignatureCount(); remaining > 0 {
		return remaining
	}
	return 0
}

func (s *multiSigState) indexOf(pub *btcec.PublicKey) (int, bool) {
	i, ok := s.keyIndex[hex.EncodeToString(pub.SerializeCompressed())]
	return i, ok
}

// sigComponents returns the script pushes for the accumulated signatures in
// ascending public-key order, holes omitted.
func (s *multiSigState) sigComponents() [][]byte {
	components := make([][]byte, 0, s.threshold)
	for _, sig := range s.signatures {
		if sig != nil {
			components = append(components, sig.scriptSigComponent())
		}
	}
	return components
}

func (s *multiSigState) reset() {
	s.signatures = make([]*TransactionSignature, len(s.publicKeys))
}

// MultiSigInput spends a bare (non-P2SH) multisig output. Signatures
// accumulate monotonically against the sorted key set until the threshold
// is reached.
type MultiSigInput struct {
	baseInput
	multiSigState
}

func newMultiSigInput(base baseInput, pubKeys []*btcec.PublicKey,
	threshold int) (*MultiSigInput, error) {

	if base.output == nil {
		return nil, fmt.Errorf("multisig input: %w", ErrMissingSpendContext)
	}
	state, err := newMultiSigState(pubKeys, threshold)
	if err != nil {
		return nil, err
	}

	expected, err := buildMultiSigScript(state.publicKeys, threshold)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(expected, base.output.PkScript()) {
		return nil, fmt.Errorf("multisig input: %w", ErrRedeemScriptMismatch)
	}
	return &MultiSigInput{baseInput: base, multiSigState: state}, nil
}

// GetSignatures signs the legacy digest over the multisig locking script for
// every key in the set the private key controls (normally exactly one).
func (in *MultiSigInput) GetSignatures(tx *Transaction, priv *btcec.PrivateKey,
	inputIndex int, hashType txscript.SigHashType) ([]*TransactionSignature, error) {

	var sigs []*TransactionSignature
	for _, pub := range in.publicKeys {
		if !priv.PubKey().IsEqual(pub) {
			continue
		}
		digest, err := SignatureHash(tx, hashType, inputIndex, in.output.PkScript())
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, &TransactionSignature{
			PublicKey:   pub,
			PrevTxID:    in.prevTxID,
			OutputIndex: in.outputIndex,
			InputIndex:  inputIndex,
			Signature:   ecdsa.Sign(priv, digest[:]),
			HashType:    hashType,
		})
	}
	return sigs, nil
}

// AddSignature validates the signature against the transaction, stores it at
// the public key's fixed index, and rebuilds the unlocking script as
// `OP_0 <sig1> <sig2> ...` in ascending key order.
func (in *MultiSigInput) AddSignature(tx *Transaction, sig *TransactionSignature) error {
	if in.fullySigned() {
		return fmt.Errorf("multisig input %d: %w", sig.InputIndex, ErrAlreadyFullySigned)
	}
	keyIdx, ok := in.indexOf(sig.PublicKey)
	if !ok {
		return fmt.Errorf("multisig input %d: %w", sig.InputIndex, ErrNoMatchingPublicKey)
	}
	valid, err := in.checkSignature(tx, sig)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("multisig input %d: %w", sig.InputIndex, ErrInvalidSignature)
	}

	in.signatures[keyIdx] = sig
	return in.updateScript()
}

func (in *MultiSigInput) updateScript() error {
	script, err := buildMultiSigIn(in.sigComponents(), nil)
	if err != nil {
		return fmt.Errorf("build multisig unlocking script: %w", err)
	}
	in.sigScript = script
	return nil
}

// ClearSignatures discards all accumulated signatures.
func (in *MultiSigInput) ClearSignatures() {
	in.reset()
	in.sigScript = nil
}

// IsFullySigned reports whether the threshold has been reached.
func (in *MultiSigInput) IsFullySigned() bool {
	return in.fullySigned()
}

// MissingSignatureCount returns how many signatures are still required.
func (in *MultiSigInput) MissingSignatureCount() int {
	return in.missing()
}

// EstimateSize returns the worst-case unlocking script size used by the
// rate-based fee estimate.
func (in *MultiSigInput) EstimateSize() int {
	return multiSigOpcodesSize + in.threshold*multiSigSignatureSize
}

func (in *MultiSigInput) checkSignature(tx *Transaction, sig *TransactionSignature) (bool, error) {
	digest, err := SignatureHash(tx, sig.HashType, sig.InputIndex, in.output.PkScript())
	if err != nil {
		return false, err
	}
	return sig.Signature.Verify(digest[:], sig.PublicKey), nil
}

func (in *MultiSigInput) toObject() InputObject {
	obj := in.baseObject(inputTypeMultiSig)
	obj.applyMultiSigState(&in.multiSigState, false)
	return obj
}
