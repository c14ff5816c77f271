package transaction

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"

	"github.com/goodnatureofminers/btclib/pkg/codec"
)

// WitnessSignatureHash computes the BIP143 digest a segwit input signature
// commits to. The aggregate prevout, sequence and output hashes are blanked
// to zero under the hash-type rules instead of pruning the serialization the
// way the legacy digest does, and the spent output's amount is committed
// directly.
func WitnessSignatureHash(tx *Transaction, hashType txscript.SigHashType,
	inputIndex int, script []byte, amount int64) (chainhash.Hash, error) {

	if inputIndex < 0 || inputIndex >= len(tx.inputs) {
		return chainhash.Hash{}, fmt.Errorf(
			"sign input %d of %d: %w", inputIndex, len(tx.inputs), ErrMalformedTransaction)
	}

	anyoneCanPay := hashType&txscript.SigHashAnyOneCanPay != 0
	baseType := hashType & sigHashMask

	var hashPrevouts, hashSequence, hashOutputs chainhash.Hash
	if !anyoneCanPay {
		pw := codec.NewWriter()
		for _, in := range tx.inputs {
			hash := in.PrevTxID()
			pw.WriteBytes(hash[:])
			pw.WriteUint32LE(in.OutputIndex())
		}
		hashPrevouts = chainhash.DoubleHashH(pw.Bytes())
	}
	if !anyoneCanPay && baseType != txscript.SigHashSingle &&
		baseType != txscript.SigHashNone {

		sw := codec.NewWriter()
		for _, in := range tx.inputs {
			sw.WriteUint32LE(in.Sequence())
		}
		hashSequence = chainhash.DoubleHashH(sw.Bytes())
	}
	switch {
	case baseType != txscript.SigHashSingle && baseType != txscript.SigHashNone:
		ow := codec.NewWriter()
		for _, out := range tx.outputs {
			out.writeTo(ow)
		}
		hashOutputs = chainhash.DoubleHashH(ow.Bytes())
	case baseType == txscript.SigHashSingle && inputIndex < len(tx.outputs):
		ow := codec.NewWriter()
		tx.outputs[inputIndex].writeTo(ow)
		hashOutputs = chainhash.DoubleHashH(ow.Bytes())
	}

	in := tx.inputs[inputIndex]
	prevTxID := in.PrevTxID()

	w := codec.NewWriter()
	w.WriteUint32LE(uint32(tx.version))
	w.WriteBytes(hashPrevouts[:])
	w.WriteBytes(hashSequence[:])
	w.WriteBytes(prevTxID[:])
	w.WriteUint32LE(in.OutputIndex())
	w.WriteVarBytes(script)
	w.WriteUint64LE(uint64(amount))
	w.WriteUint32LE(in.Sequence())
	w.WriteBytes(hashOutputs[:])
	w.WriteUint32LE(tx.lockTime)
	w.WriteUint32LE(uint32(hashType))

	return chainhash.DoubleHashH(w.Bytes()), nil
}
