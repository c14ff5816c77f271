package transaction

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
)

// Script helpers built on txscript. The package keeps no script chunk model
// of its own: classification, tokenizing, and assembly all go through the
// txscript primitives, and these helpers only encode the handful of fixed
// layouts the signing code needs.

// publicKeyHashFromScript extracts the 20-byte hash from a P2PKH locking
// script, or nil when the script does not have that exact shape.
func publicKeyHashFromScript(script []byte) []byte {
	if len(script) != 25 ||
		script[0] != txscript.OP_DUP ||
		script[1] != txscript.OP_HASH160 ||
		script[2] != txscript.OP_DATA_20 ||
		script[23] != txscript.OP_EQUALVERIFY ||
		script[24] != txscript.OP_CHECKSIG {

		return nil
	}
	return script[3:23]
}

// publicKeyFromScript extracts the serialized public key from a P2PK locking
// script, or nil when the script does not have that shape.
func publicKeyFromScript(script []byte) []byte {
	if len(script) == 35 &&
		script[0] == txscript.OP_DATA_33 &&
		script[34] == txscript.OP_CHECKSIG {

		return script[1:34]
	}
	if len(script) == 67 &&
		script[0] == txscript.OP_DATA_65 &&
		script[66] == txscript.OP_CHECKSIG {

		return script[1:66]
	}
	return nil
}

// multiSigFromScript parses a bare multisig locking script into its public
// keys and threshold.
func multiSigFromScript(script []byte) (pubKeys [][]byte, threshold int, ok bool) {
	if txscript.GetScriptClass(script) != txscript.MultiSigTy {
		return nil, 0, false
	}

	tokenizer := txscript.MakeScriptTokenizer(0, script)
	if !tokenizer.Next() {
		return nil, 0, false
	}
	threshold = smallIntFromOpcode(tokenizer.Opcode())

	for tokenizer.Next() {
		if data := tokenizer.Data(); data != nil {
			pubKeys = append(pubKeys, data)
			continue
		}
		// OP_n key count followed by OP_CHECKMULTISIG.
		break
	}
	if tokenizer.Err() != nil || threshold <= 0 || len(pubKeys) == 0 {
		return nil, 0, false
	}
	return pubKeys, threshold, true
}

func smallIntFromOpcode(op byte) int {
	switch {
	case op == txscript.OP_0:
		return 0
	case op >= txscript.OP_1 && op <= txscript.OP_16:
		return int(op-txscript.OP_1) + 1
	default:
		return -1
	}
}

func smallIntToOpcode(n int) byte {
	if n == 0 {
		return txscript.OP_0
	}
	return txscript.OP_1 + byte(n-1)
}

// sortPublicKeys returns the keys ordered lexicographically by their
// compressed serialization, the canonical order used throughout the multisig
// code paths.
func sortPublicKeys(pubKeys []*btcec.PublicKey) []*btcec.PublicKey {
	sorted := make([]*btcec.PublicKey, len(pubKeys))
	copy(sorted, pubKeys)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bytes.Compare(
			sorted[i].SerializeCompressed(),
			sorted[j].SerializeCompressed(),
		) < 0
	})
	return sorted
}

func publicKeyIndexMap(sorted []*btcec.PublicKey) map[string]int {
	index := make(map[string]int, len(sorted))
	for i, pub := range sorted {
		index[hex.EncodeToString(pub.SerializeCompressed())] = i
	}
	return index
}

// buildMultiSigScript assembles `OP_m <keys...> OP_n OP_CHECKMULTISIG` over
// the keys in the order given.
func buildMultiSigScript(pubKeys []*btcec.PublicKey, threshold int) ([]byte, error) {
	if threshold <= 0 || threshold > len(pubKeys) || len(pubKeys) > 16 {
		return nil, fmt.Errorf("invalid multisig shape %d of %d", threshold, len(pubKeys))
	}
	builder := txscript.NewScriptBuilder()
	builder.AddOp(smallIntToOpcode(threshold))
	for _, pub := range pubKeys {
		builder.AddData(pub.SerializeCompressed())
	}
	builder.AddOp(smallIntToOpcode(len(pubKeys)))
	builder.AddOp(txscript.OP_CHECKMULTISIG)
	return builder.Script()
}

// buildPublicKeyHashScript assembles a P2PKH locking script for a 20-byte
// public key hash.
func buildPublicKeyHashScript(pkHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pkHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// buildScriptHashScript assembles the P2SH locking script for the given
// redeem script.
func buildScriptHashScript(redeemScript []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(btcutil.Hash160(redeemScript)).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// buildWitnessProgram assembles the version-0 P2WSH witness program for the
// given redeem script.
func buildWitnessProgram(redeemScript []byte) ([]byte, error) {
	digest := sha256.Sum256(redeemScript)
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(digest[:]).
		Script()
}

// buildPublicKeyHashIn assembles the `<sig+hashtype> <pubkey>` unlocking
// script for a P2PKH input.
func buildPublicKeyHashIn(pubKey, sigComponent []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(sigComponent).
		AddData(pubKey).
		Script()
}

// buildPublicKeyIn assembles the `<sig+hashtype>` unlocking script for a
// P2PK input.
func buildPublicKeyIn(sigComponent []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().AddData(sigComponent).Script()
}

// buildMultiSigIn assembles `OP_0 <sig1> <sig2> ...`, optionally followed by
// a trailing redeem script push for the P2SH form.
func buildMultiSigIn(sigComponents [][]byte, redeemScript []byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_0)
	for _, component := range sigComponents {
		builder.AddData(component)
	}
	if redeemScript != nil {
		builder.AddData(redeemScript)
	}
	return builder.Script()
}

// isDataOut reports whether the script is a standard OP_RETURN data carrier.
func isDataOut(script []byte) bool {
	return txscript.GetScriptClass(script) == txscript.NullDataTy
}

// removeOpcode strips every occurrence of the given opcode from the script,
// leaving all other bytes untouched.
func removeOpcode(script []byte, opcode byte) ([]byte, error) {
	var (
		out        []byte
		prevOffset int32
	)
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		if tokenizer.Opcode() == opcode {
			if out == nil {
				out = make([]byte, 0, len(script))
				out = append(out, script[:prevOffset]...)
			}
		} else if out != nil {
			out = append(out, script[prevOffset:tokenizer.ByteIndex()]...)
		}
		prevOffset = tokenizer.ByteIndex()
	}
	if err := tokenizer.Err(); err != nil {
		return nil, fmt.Errorf("tokenize script: %w", err)
	}
	if out == nil {
		return script, nil
	}
	return out, nil
}
