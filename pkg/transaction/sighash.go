package transaction

import (
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"

	"github.com/goodnatureofminers/btclib/pkg/codec"
)

// sigHashMask masks off the base hash type from the modifier bits.
const sigHashMask = 0x1f

// SignatureHash computes the legacy (pre-segwit) digest an input signature
// commits to. The locking script is inlined into the signed input with any
// OP_CODESEPARATOR opcodes removed, the remaining inputs and outputs are
// blanked according to the hash type, and the serialization plus the 4-byte
// hash type is double-SHA256 hashed.
//
// SIGHASH_SINGLE with an input index beyond the last output reproduces the
// historical one-hash quirk instead of failing: the digest is the 32-byte
// value 0x01 followed by zeroes.
func SignatureHash(tx *Transaction, hashType txscript.SigHashType,
	inputIndex int, script []byte) (chainhash.Hash, error) {

	if inputIndex < 0 || inputIndex >= len(tx.inputs) {
		return chainhash.Hash{}, fmt.Errorf(
			"sign input %d of %d: %w", inputIndex, len(tx.inputs), ErrMalformedTransaction)
	}

	if hashType&sigHashMask == txscript.SigHashSingle &&
		inputIndex >= len(tx.outputs) {
		return chainhash.Hash{0x01}, nil
	}

	script, err := removeOpcode(script, txscript.OP_CODESEPARATOR)
	if err != nil {
		return chainhash.Hash{}, err
	}
	anyoneCanPay := hashType&txscript.SigHashAnyOneCanPay != 0

	w := codec.NewWriter()
	w.WriteUint32LE(uint32(tx.version))

	if anyoneCanPay {
		w.WriteVarInt(1)
		writeSigHashInput(w, tx.inputs[inputIndex], script, false)
	} else {
		w.WriteVarInt(uint64(len(tx.inputs)))
		for i, in := range tx.inputs {
			if i == inputIndex {
				writeSigHashInput(w, in, script, false)
				continue
			}
			zeroSequence := hashType&sigHashMask == txscript.SigHashNone ||
				hashType&sigHashMask == txscript.SigHashSingle
			writeSigHashInput(w, in, nil, zeroSequence)
		}
	}

	switch hashType & sigHashMask {
	case txscript.SigHashNone:
		w.WriteVarInt(0)
	case txscript.SigHashSingle:
		w.WriteVarInt(uint64(inputIndex) + 1)
		for i := 0; i < inputIndex; i++ {
			w.WriteUint64LE(math.MaxUint64)
			w.WriteVarInt(0)
		}
		tx.outputs[inputIndex].writeTo(w)
	default:
		w.WriteVarInt(uint64(len(tx.outputs)))
		for _, out := range tx.outputs {
			out.writeTo(w)
		}
	}

	w.WriteUint32LE(tx.lockTime)
	w.WriteUint32LE(uint32(hashType))

	return chainhash.DoubleHashH(w.Bytes()), nil
}

func writeSigHashInput(w *codec.Writer, in Input, script []byte, zeroSequence bool) {
	hash := in.PrevTxID()
	w.WriteBytes(hash[:])
	w.WriteUint32LE(in.OutputIndex())
	w.WriteVarBytes(script)
	if zeroSequence {
		w.WriteUint32LE(0)
	} else {
		w.WriteUint32LE(in.Sequence())
	}
}
