package transaction

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/goodnatureofminers/btclib/pkg/codec"
	"github.com/goodnatureofminers/btclib/pkg/safe"
)

// witnessMarker and witnessFlag sit between the version and the input count
// of a segwit serialization. The marker doubles as a zero input count, so a
// zero count followed by a non-zero byte is how the two encodings are told
// apart.
const (
	witnessMarker = 0x00
	witnessFlag   = 0x01
)

// maxWitnessItems bounds the announced number of witness stack elements
// before allocation.
const maxWitnessItems = 1 << 20

// HasWitness reports whether any input carries a witness stack.
func (tx *Transaction) HasWitness() bool {
	for _, in := range tx.inputs {
		if len(in.Witness()) > 0 {
			return true
		}
	}
	return false
}

// UncheckedSerialize encodes the transaction for the wire without running
// the policy checks, using the segwit encoding when any input carries a
// witness stack.
func (tx *Transaction) UncheckedSerialize() []byte {
	w := codec.NewWriter()
	tx.writeTo(w, tx.HasWitness())
	return w.Bytes()
}

// SerializeNoWitness encodes the transaction without witness data. Hashing
// this form yields the txid.
func (tx *Transaction) SerializeNoWitness() []byte {
	w := codec.NewWriter()
	tx.writeTo(w, false)
	return w.Bytes()
}

// Hex returns the serialized transaction as a lowercase hex string.
func (tx *Transaction) Hex() string {
	return hex.EncodeToString(tx.UncheckedSerialize())
}

// String implements fmt.Stringer as the hex serialization.
func (tx *Transaction) String() string {
	return tx.Hex()
}

// SerializeSize returns the wire size of the full serialization in bytes.
func (tx *Transaction) SerializeSize() int {
	return len(tx.UncheckedSerialize())
}

// TxHash computes the transaction hash (txid), which never covers witness
// data.
func (tx *Transaction) TxHash() chainhash.Hash {
	return chainhash.DoubleHashH(tx.SerializeNoWitness())
}

// TxID returns the transaction hash in the conventional reversed hex
// rendering.
func (tx *Transaction) TxID() string {
	hash := tx.TxHash()
	return hash.String()
}

// WitnessHash computes the wtxid. For transactions without witness data it
// equals the txid.
func (tx *Transaction) WitnessHash() chainhash.Hash {
	return chainhash.DoubleHashH(tx.UncheckedSerialize())
}

func (tx *Transaction) writeTo(w *codec.Writer, withWitness bool) {
	w.WriteUint32LE(uint32(tx.version))
	if withWitness {
		w.WriteUint8(witnessMarker)
		w.WriteUint8(witnessFlag)
	}

	w.WriteVarInt(uint64(len(tx.inputs)))
	for _, in := range tx.inputs {
		writeInput(w, in)
	}

	w.WriteVarInt(uint64(len(tx.outputs)))
	for _, out := range tx.outputs {
		out.writeTo(w)
	}

	if withWitness {
		for _, in := range tx.inputs {
			stack := in.Witness()
			w.WriteVarInt(uint64(len(stack)))
			for _, item := range stack {
				w.WriteVarBytes(item)
			}
		}
	}

	w.WriteUint32LE(tx.lockTime)
}

func writeInput(w *codec.Writer, in Input) {
	hash := in.PrevTxID()
	w.WriteBytes(hash[:])
	w.WriteUint32LE(in.OutputIndex())
	w.WriteVarBytes(in.SignatureScript())
	w.WriteUint32LE(in.Sequence())
}

// NewTransactionFromBytes decodes a wire serialization. Inputs come back in
// the opaque state: they round-trip byte for byte but reject signing until
// spend context is attached. Trailing bytes after the encoded transaction
// are an error.
func NewTransactionFromBytes(raw []byte) (*Transaction, error) {
	r := codec.NewReader(raw)
	tx, err := readTransaction(r)
	if err != nil {
		return nil, err
	}
	if !r.Empty() {
		return nil, fmt.Errorf("%d trailing bytes after transaction: %w",
			r.Remaining(), ErrMalformedTransaction)
	}
	return tx, nil
}

// NewTransactionFromHex decodes a hex-encoded wire serialization.
func NewTransactionFromHex(rawHex string) (*Transaction, error) {
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("decode transaction hex: %w", ErrMalformedTransaction)
	}
	return NewTransactionFromBytes(raw)
}

func readTransaction(r *codec.Reader) (*Transaction, error) {
	tx := newTransaction()

	version, err := r.ReadUint32LE()
	if err != nil {
		return nil, fmt.Errorf("read transaction version: %w", err)
	}
	tx.version = int32(version)

	inputCount, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("read input count: %w", err)
	}

	// A zero input count followed by a non-zero byte is the segwit marker
	// and flag; followed by a zero byte it is a genuine empty input list.
	hasWitness := false
	if inputCount == witnessMarker {
		flag, err := r.PeekUint8()
		if err != nil {
			return nil, fmt.Errorf("read witness flag: %w", err)
		}
		if flag != 0 {
			hasWitness = true
			if _, err := r.ReadUint8(); err != nil {
				return nil, err
			}
			if inputCount, err = r.ReadVarInt(); err != nil {
				return nil, fmt.Errorf("read input count: %w", err)
			}
		}
	}

	count, err := safe.IntFromUint64(inputCount)
	if err != nil {
		return nil, fmt.Errorf("input count: %w", ErrMalformedTransaction)
	}
	for i := 0; i < count; i++ {
		in, err := readBaseInput(r)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		tx.inputs = append(tx.inputs, in)
	}

	outputCount, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("read output count: %w", err)
	}
	count, err = safe.IntFromUint64(outputCount)
	if err != nil {
		return nil, fmt.Errorf("output count: %w", ErrMalformedTransaction)
	}
	for i := 0; i < count; i++ {
		out, err := readOutput(r)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		tx.outputs = append(tx.outputs, out)
	}

	if hasWitness {
		for i, in := range tx.inputs {
			itemCount, err := r.ReadVarInt()
			if err != nil {
				return nil, fmt.Errorf("input %d witness count: %w", i, err)
			}
			if itemCount > maxWitnessItems {
				return nil, fmt.Errorf("input %d witness count %d: %w",
					i, itemCount, ErrMalformedTransaction)
			}
			if itemCount == 0 {
				continue
			}
			stack := make([][]byte, 0, itemCount)
			for j := uint64(0); j < itemCount; j++ {
				item, err := r.ReadVarBytes()
				if err != nil {
					return nil, fmt.Errorf("input %d witness item %d: %w", i, j, err)
				}
				stack = append(stack, item)
			}
			in.SetWitness(stack)
		}
	}

	if tx.lockTime, err = r.ReadUint32LE(); err != nil {
		return nil, fmt.Errorf("read lock time: %w", err)
	}
	return tx, nil
}
