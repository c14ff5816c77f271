package transaction

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
)

const (
	// scriptHashOverheadSize covers the OP_0 plus the push opcodes around
	// the redeem script in a P2SH multisig unlocking script.
	scriptHashOverheadSize = 7

	// scriptHashSignatureSize is the worst-case size of one signature push
	// inside a script-hash spend.
	scriptHashSignatureSize = 74

	// scriptHashPubKeySize is the size of one compressed key push inside
	// the redeem script.
	scriptHashPubKeySize = 34
)

// MultiSigScriptHashInput spends a P2SH multisig output, optionally nested
// over a version 0 witness program. The redeem script is rebuilt from the
// sorted key set and must hash to the script the output commits to.
type MultiSigScriptHashInput struct {
	baseInput
	multiSigState

	redeemScript  []byte
	nestedWitness bool
}

func newMultiSigScriptHashInput(base baseInput, pubKeys []*btcec.PublicKey,
	threshold int, nestedWitness bool) (*MultiSigScriptHashInput, error) {

	if base.output == nil {
		return nil, fmt.Errorf("script-hash multisig input: %w", ErrMissingSpendContext)
	}
	state, err := newMultiSigState(pubKeys, threshold)
	if err != nil {
		return nil, err
	}
	redeemScript, err := buildMultiSigScript(state.publicKeys, threshold)
	if err != nil {
		return nil, err
	}

	committed := redeemScript
	if nestedWitness {
		committed, err = buildWitnessProgram(redeemScript)
		if err != nil {
			return nil, err
		}
	}
	expected, err := buildScriptHashScript(committed)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(expected, base.output.PkScript()) {
		return nil, fmt.Errorf("script-hash multisig input: %w", ErrRedeemScriptMismatch)
	}

	return &MultiSigScriptHashInput{
		baseInput:     base,
		multiSigState: state,
		redeemScript:  redeemScript,
		nestedWitness: nestedWitness,
	}, nil
}

// RedeemScript returns the bare multisig script the spend reveals.
func (in *MultiSigScriptHashInput) RedeemScript() []byte {
	return in.redeemScript
}

// NestedWitness reports whether the spend is nested over a witness program.
func (in *MultiSigScriptHashInput) NestedWitness() bool {
	return in.nestedWitness
}

// signatureDigest computes the digest a signature for this input commits to:
// the BIP143 digest over the redeem script for nested-witness spends, the
// legacy digest otherwise.
func (in *MultiSigScriptHashInput) signatureDigest(tx *Transaction, inputIndex int,
	hashType txscript.SigHashType) ([]byte, error) {

	if in.nestedWitness {
		digest, err := WitnessSignatureHash(tx, hashType, inputIndex,
			in.redeemScript, in.output.Satoshis())
		if err != nil {
			return nil, err
		}
		return digest[:], nil
	}
	digest, err := SignatureHash(tx, hashType, inputIndex, in.redeemScript)
	if err != nil {
		return nil, err
	}
	return digest[:], nil
}

// GetSignatures signs the input for every key in the set the private key
// controls.
func (in *MultiSigScriptHashInput) GetSignatures(tx *Transaction, priv *btcec.PrivateKey,
	inputIndex int, hashType txscript.SigHashType) ([]*TransactionSignature, error) {

	var sigs []*TransactionSignature
	for _, pub := range in.publicKeys {
		if !priv.PubKey().IsEqual(pub) {
			continue
		}
		digest, err := in.signatureDigest(tx, inputIndex, hashType)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, &TransactionSignature{
			PublicKey:   pub,
			PrevTxID:    in.prevTxID,
			OutputIndex: in.outputIndex,
			InputIndex:  inputIndex,
			Signature:   ecdsa.Sign(priv, digest),
			HashType:    hashType,
		})
	}
	return sigs, nil
}

// AddSignature validates and stores the signature, then rebuilds the
// unlocking material. Non-nested spends rebuild the scriptSig with the
// redeem script appended; nested spends rebuild the witness stack and set
// the scriptSig to a single push of the witness program.
func (in *MultiSigScriptHashInput) AddSignature(tx *Transaction, sig *TransactionSignature) error {
	if in.fullySigned() {
		return fmt.Errorf("script-hash multisig input %d: %w",
			sig.InputIndex, ErrAlreadyFullySigned)
	}
	keyIdx, ok := in.indexOf(sig.PublicKey)
	if !ok {
		return fmt.Errorf("script-hash multisig input %d: %w",
			sig.InputIndex, ErrNoMatchingPublicKey)
	}
	valid, err := in.checkSignature(tx, sig)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("script-hash multisig input %d: %w",
			sig.InputIndex, ErrInvalidSignature)
	}

	in.signatures[keyIdx] = sig
	return in.updateScript()
}

func (in *MultiSigScriptHashInput) updateScript() error {
	if in.nestedWitness {
		program, err := buildWitnessProgram(in.redeemScript)
		if err != nil {
			return err
		}
		sigScript, err := txscript.NewScriptBuilder().AddData(program).Script()
		if err != nil {
			return fmt.Errorf("build nested witness scriptSig: %w", err)
		}
		in.sigScript = sigScript

		components := in.sigComponents()
		witness := make([][]byte, 0, len(components)+2)
		witness = append(witness, nil)
		witness = append(witness, components...)
		witness = append(witness, in.redeemScript)
		in.witness = witness
		return nil
	}

	script, err := buildMultiSigIn(in.sigComponents(), in.redeemScript)
	if err != nil {
		return fmt.Errorf("build script-hash unlocking script: %w", err)
	}
	in.sigScript = script
	return nil
}

// ClearSignatures discards all accumulated signatures and unlocking material.
func (in *MultiSigScriptHashInput) ClearSignatures() {
	in.reset()
	in.sigScript = nil
	in.witness = nil
}

// IsFullySigned reports whether the threshold has been reached.
func (in *MultiSigScriptHashInput) IsFullySigned() bool {
	return in.fullySigned()
}

// MissingSignatureCount returns how many signatures are still required.
func (in *MultiSigScriptHashInput) MissingSignatureCount() int {
	return in.missing()
}

// EstimateSize returns the worst-case unlocking script size used by the
// rate-based fee estimate.
func (in *MultiSigScriptHashInput) EstimateSize() int {
	return scriptHashOverheadSize +
		in.threshold*scriptHashSignatureSize +
		len(in.publicKeys)*scriptHashPubKeySize
}

func (in *MultiSigScriptHashInput) checkSignature(tx *Transaction, sig *TransactionSignature) (bool, error) {
	digest, err := in.signatureDigest(tx, sig.InputIndex, sig.HashType)
	if err != nil {
		return false, err
	}
	return sig.Signature.Verify(digest, sig.PublicKey), nil
}

func (in *MultiSigScriptHashInput) toObject() InputObject {
	obj := in.baseObject(inputTypeMultiSigScriptHash)
	obj.applyMultiSigState(&in.multiSigState, in.nestedWitness)
	return obj
}
