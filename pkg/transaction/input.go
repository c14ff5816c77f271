package transaction

import (
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"

	"github.com/goodnatureofminers/btclib/pkg/codec"
)

const (
	// MaxSequence is the input sequence number that disables relative
	// locktime and RBF semantics.
	MaxSequence uint32 = 0xffffffff

	// DefaultSequence is the sequence number assigned to new inputs.
	DefaultSequence = MaxSequence

	// DefaultLockTimeSequence is assigned to inputs when a transaction-level
	// lock time must take effect.
	DefaultLockTimeSequence = MaxSequence - 1

	// DefaultRBFSequence marks an input as replaceable under BIP125.
	DefaultRBFSequence = MaxSequence - 2
)

// Input is one spend inside a transaction. Four signing variants implement
// it (P2PKH, P2PK, bare multisig, P2SH multisig); inputs deserialized from
// raw wire bytes stay in an opaque state that carries the data but rejects
// signing operations, since the spent output's script is unknown.
type Input interface {
	// PrevTxID returns the spent transaction's hash in internal byte order.
	PrevTxID() chainhash.Hash

	// OutputIndex returns the index of the spent output.
	OutputIndex() uint32

	// Sequence returns the input's sequence number.
	Sequence() uint32

	// SetSequence replaces the sequence number.
	SetSequence(seq uint32)

	// SignatureScript returns the unlocking script.
	SignatureScript() []byte

	// SetSignatureScript replaces the unlocking script verbatim.
	SetSignatureScript(script []byte)

	// Witness returns the witness stack, nil for non-segwit inputs.
	Witness() [][]byte

	// SetWitness replaces the witness stack.
	SetWitness(stack [][]byte)

	// Output returns the spent output, or nil when the spend context is
	// unknown.
	Output() *Output

	// SetOutput attaches the spent output.
	SetOutput(out *Output)

	// IsNull reports whether the input is the coinbase marker: an all-zero
	// previous txid with output index 0xffffffff.
	IsNull() bool

	// SerializeSize returns the input's current wire size in bytes.
	SerializeSize() int

	// EstimateSize returns the expected wire size once fully signed.
	EstimateSize() int

	// GetSignatures produces the signatures the private key can contribute
	// for this input. A key that simply does not match yields an empty
	// result, not an error.
	GetSignatures(tx *Transaction, priv *btcec.PrivateKey, inputIndex int,
		hashType txscript.SigHashType) ([]*TransactionSignature, error)

	// AddSignature validates the signature and applies it, rebuilding the
	// unlocking script or witness stack.
	AddSignature(tx *Transaction, sig *TransactionSignature) error

	// ClearSignatures resets the input to the unsigned state.
	ClearSignatures()

	// IsFullySigned reports whether the input carries all signatures it
	// needs.
	IsFullySigned() bool

	// MissingSignatureCount returns how many signatures are still needed.
	MissingSignatureCount() int

	checkSignature(tx *Transaction, sig *TransactionSignature) (bool, error)
	toObject() InputObject
}

// baseInput carries the wire-level state shared by every variant. It is
// itself the opaque variant used for inputs deserialized without spend-type
// information.
type baseInput struct {
	prevTxID    chainhash.Hash
	outputIndex uint32
	sequence    uint32
	sigScript   []byte
	witness     [][]byte
	output      *Output
}

// NewInput constructs an opaque input for the given outpoint. It serializes
// like any other input but rejects signing operations.
func NewInput(prevTxID chainhash.Hash, outputIndex uint32) Input {
	return &baseInput{
		prevTxID:    prevTxID,
		outputIndex: outputIndex,
		sequence:    DefaultSequence,
	}
}

func (in *baseInput) PrevTxID() chainhash.Hash { return in.prevTxID }
func (in *baseInput) OutputIndex() uint32      { return in.outputIndex }
func (in *baseInput) Sequence() uint32         { return in.sequence }
func (in *baseInput) SetSequence(seq uint32)   { in.sequence = seq }

func (in *baseInput) SignatureScript() []byte { return in.sigScript }
func (in *baseInput) SetSignatureScript(script []byte) {
	in.sigScript = script
}

func (in *baseInput) Witness() [][]byte         { return in.witness }
func (in *baseInput) SetWitness(stack [][]byte) { in.witness = stack }

func (in *baseInput) Output() *Output       { return in.output }
func (in *baseInput) SetOutput(out *Output) { in.output = out }

func (in *baseInput) IsNull() bool {
	return in.prevTxID == chainhash.Hash{} && in.outputIndex == math.MaxUint32
}

func (in *baseInput) SerializeSize() int {
	return 32 + 4 + codec.VarIntSize(uint64(len(in.sigScript))) +
		len(in.sigScript) + 4
}

func (in *baseInput) EstimateSize() int {
	return in.SerializeSize()
}

func (in *baseInput) GetSignatures(*Transaction, *btcec.PrivateKey, int,
	txscript.SigHashType) ([]*TransactionSignature, error) {

	return nil, fmt.Errorf("get signatures: %w", ErrUnsupportedInputType)
}

func (in *baseInput) AddSignature(*Transaction, *TransactionSignature) error {
	return fmt.Errorf("add signature: %w", ErrUnsupportedInputType)
}

func (in *baseInput) ClearSignatures() {
	in.sigScript = nil
	in.witness = nil
}

func (in *baseInput) IsFullySigned() bool { return false }

func (in *baseInput) MissingSignatureCount() int { return 0 }

func (in *baseInput) checkSignature(*Transaction, *TransactionSignature) (bool, error) {
	return false, fmt.Errorf("check signature: %w", ErrUnsupportedInputType)
}

func (in *baseInput) toObject() InputObject {
	return in.baseObject("")
}

func (in *baseInput) writeTo(w *codec.Writer) {
	w.WriteBytes(in.prevTxID[:])
	w.WriteUint32LE(in.outputIndex)
	w.WriteVarBytes(in.sigScript)
	w.WriteUint32LE(in.sequence)
}

func readBaseInput(r *codec.Reader) (*baseInput, error) {
	in := &baseInput{}
	hashBytes, err := r.ReadBytes(chainhash.HashSize)
	if err != nil {
		return nil, fmt.Errorf("read input outpoint hash: %w", err)
	}
	copy(in.prevTxID[:], hashBytes)

	if in.outputIndex, err = r.ReadUint32LE(); err != nil {
		return nil, fmt.Errorf("read input outpoint index: %w", err)
	}
	if in.sigScript, err = r.ReadVarBytes(); err != nil {
		return nil, fmt.Errorf("read input script: %w", err)
	}
	if in.sequence, err = r.ReadUint32LE(); err != nil {
		return nil, fmt.Errorf("read input sequence: %w", err)
	}
	return in, nil
}
