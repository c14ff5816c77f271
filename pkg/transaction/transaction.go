// Package transaction builds, signs and serializes Bitcoin transactions.
//
// A Transaction accumulates inputs from spendable outputs and destination
// outputs, maintains a change output under the fee policy, and collects
// signatures per input until every input is fully signed. Serialization is
// exact wire format, including the segwit extension when witness data is
// present.
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/btclib/pkg/safe"
	"github.com/goodnatureofminers/btclib/pkg/workerpool"
)

const (
	// MaxMoney is the total satoshi supply; no output or output sum may
	// exceed it.
	MaxMoney int64 = 21_000_000 * 1e8

	// DustAmount is the threshold below which a non-OP_RETURN output is
	// considered dust.
	DustAmount int64 = 546

	// FeeSecurityMargin bounds how far the actual fee may drift from the
	// estimate in either direction before serialization refuses.
	FeeSecurityMargin int64 = 150

	// DefaultFeePerKB is the fee rate used when none is set.
	DefaultFeePerKB int64 = 10_000

	// MaxBlockSize caps the serialized transaction size.
	MaxBlockSize = 1_000_000

	// LockTimeBlockHeightLimit splits the nLockTime domain: values below it
	// are block heights, values at or above it are unix timestamps.
	LockTimeBlockHeightLimit uint32 = 500_000_000

	// changeOutputMaxSize is the size allowance for a change output when
	// estimating fees: hash (20), amount (4 legacy accounting), script (34)
	// and framing (4).
	changeOutputMaxSize = 20 + 4 + 34 + 4

	// maximumExtraSize is the fixed framing allowance in the size estimate:
	// version (4), input count (9), output count (9), lock time (4).
	maximumExtraSize = 4 + 9 + 9 + 4

	// minCoinbaseScriptLen and maxCoinbaseScriptLen bound the coinbase
	// unlocking script.
	minCoinbaseScriptLen = 2
	maxCoinbaseScriptLen = 100
)

// Transaction is a mutable transaction under construction. The zero value is
// not usable; use NewTransaction or one of the deserialization constructors.
type Transaction struct {
	version  int32
	inputs   []Input
	outputs  []*Output
	lockTime uint32

	changeScript []byte
	changeIndex  int
	fee          *int64
	feePerKB     int64
}

// NewTransaction returns an empty version 1 transaction.
func NewTransaction() *Transaction {
	return newTransaction()
}

func newTransaction() *Transaction {
	return &Transaction{
		version:     1,
		changeIndex: -1,
	}
}

// Version returns the transaction version.
func (tx *Transaction) Version() int32 { return tx.version }

// SetVersion replaces the transaction version.
func (tx *Transaction) SetVersion(v int32) { tx.version = v }

// LockTime returns the raw nLockTime value.
func (tx *Transaction) LockTime() uint32 { return tx.lockTime }

// Inputs returns the input list. The slice is shared with the transaction.
func (tx *Transaction) Inputs() []Input { return tx.inputs }

// Outputs returns the output list. The slice is shared with the transaction.
func (tx *Transaction) Outputs() []*Output { return tx.outputs }

// ChangeIndex returns the index of the change output, or -1 when none
// exists.
func (tx *Transaction) ChangeIndex() int { return tx.changeIndex }

// ChangeOutput returns the change output, or nil when none exists.
func (tx *Transaction) ChangeOutput() *Output {
	if tx.changeIndex < 0 {
		return nil
	}
	return tx.outputs[tx.changeIndex]
}

// From adds an input spending the given output. The spent script's class
// selects the signing variant: P2PKH, P2PK and bare multisig are recognized;
// anything else is ErrUnsupportedScript (P2SH multisig goes through
// FromMultiSig, which knows the key set). Adding the same outpoint twice is
// a no-op.
func (tx *Transaction) From(utxo *UTXO) error {
	if tx.hasInput(utxo.TxID, utxo.OutputIndex) {
		return nil
	}
	out, err := utxo.output()
	if err != nil {
		return err
	}
	base := baseInput{
		prevTxID:    utxo.TxID,
		outputIndex: utxo.OutputIndex,
		sequence:    DefaultSequence,
		output:      out,
	}

	var in Input
	switch txscript.GetScriptClass(utxo.PkScript) {
	case txscript.PubKeyHashTy:
		in, err = newPublicKeyHashInput(base)
	case txscript.PubKeyTy:
		in, err = newPublicKeyInput(base)
	case txscript.MultiSigTy:
		in, err = tx.bareMultiSigInput(base, utxo.PkScript)
	default:
		return fmt.Errorf("spend script class %v: %w",
			txscript.GetScriptClass(utxo.PkScript), ErrUnsupportedScript)
	}
	if err != nil {
		return err
	}

	tx.inputs = append(tx.inputs, in)
	tx.updateChangeOutput()
	return nil
}

func (tx *Transaction) bareMultiSigInput(base baseInput, script []byte) (Input, error) {
	rawKeys, threshold, ok := multiSigFromScript(script)
	if !ok {
		return nil, fmt.Errorf("malformed multisig script: %w", ErrUnsupportedScript)
	}
	pubKeys := make([]*btcec.PublicKey, 0, len(rawKeys))
	for _, raw := range rawKeys {
		pub, err := btcec.ParsePubKey(raw)
		if err != nil {
			return nil, fmt.Errorf("parse multisig public key: %w", err)
		}
		pubKeys = append(pubKeys, pub)
	}
	return newMultiSigInput(base, pubKeys, threshold)
}

// FromMultiSig adds an input spending a multisig output with a known key
// set: a bare multisig output directly, or a P2SH output whose redeem script
// is the multisig over the keys, optionally nested over a version 0 witness
// program. Adding the same outpoint twice is a no-op.
func (tx *Transaction) FromMultiSig(utxo *UTXO, pubKeys []*btcec.PublicKey,
	threshold int, nestedWitness bool) error {

	if tx.hasInput(utxo.TxID, utxo.OutputIndex) {
		return nil
	}
	out, err := utxo.output()
	if err != nil {
		return err
	}
	base := baseInput{
		prevTxID:    utxo.TxID,
		outputIndex: utxo.OutputIndex,
		sequence:    DefaultSequence,
		output:      out,
	}

	var in Input
	switch txscript.GetScriptClass(utxo.PkScript) {
	case txscript.MultiSigTy:
		in, err = newMultiSigInput(base, pubKeys, threshold)
	case txscript.ScriptHashTy:
		in, err = newMultiSigScriptHashInput(base, pubKeys, threshold, nestedWitness)
	default:
		return fmt.Errorf("spend script class %v: %w",
			txscript.GetScriptClass(utxo.PkScript), ErrUnsupportedScript)
	}
	if err != nil {
		return err
	}

	tx.inputs = append(tx.inputs, in)
	tx.updateChangeOutput()
	return nil
}

func (tx *Transaction) hasInput(prevTxID chainhash.Hash, outputIndex uint32) bool {
	for _, in := range tx.inputs {
		if in.PrevTxID() == prevTxID && in.OutputIndex() == outputIndex {
			return true
		}
	}
	return false
}

// RemoveInputByIndex removes the input at the given position.
func (tx *Transaction) RemoveInputByIndex(i int) error {
	if i < 0 || i >= len(tx.inputs) {
		return fmt.Errorf("remove input %d of %d: %w",
			i, len(tx.inputs), ErrMalformedTransaction)
	}
	tx.inputs = append(tx.inputs[:i], tx.inputs[i+1:]...)
	tx.updateChangeOutput()
	return nil
}

// RemoveInputByOutpoint removes the input spending the given outpoint.
func (tx *Transaction) RemoveInputByOutpoint(prevTxID chainhash.Hash, outputIndex uint32) error {
	for i, in := range tx.inputs {
		if in.PrevTxID() == prevTxID && in.OutputIndex() == outputIndex {
			return tx.RemoveInputByIndex(i)
		}
	}
	return fmt.Errorf("remove input %s:%d: %w",
		prevTxID.String(), outputIndex, ErrMalformedTransaction)
}

// To appends a payment output to the given address.
func (tx *Transaction) To(addr btcutil.Address, satoshis int64) error {
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return fmt.Errorf("build output script: %w", err)
	}
	out, err := NewOutput(satoshis, script)
	if err != nil {
		return err
	}
	tx.AddOutput(out)
	return nil
}

// AddOutput appends an output.
func (tx *Transaction) AddOutput(out *Output) {
	tx.outputs = append(tx.outputs, out)
	tx.updateChangeOutput()
}

// AddData appends a zero-value OP_RETURN output carrying the payload.
func (tx *Transaction) AddData(data []byte) error {
	script, err := txscript.NullDataScript(data)
	if err != nil {
		return fmt.Errorf("build data script: %w", err)
	}
	out, err := NewOutput(0, script)
	if err != nil {
		return err
	}
	tx.AddOutput(out)
	return nil
}

// RemoveOutput removes the output at the given position.
func (tx *Transaction) RemoveOutput(i int) error {
	if i < 0 || i >= len(tx.outputs) {
		return fmt.Errorf("remove output %d of %d: %w",
			i, len(tx.outputs), ErrMalformedTransaction)
	}
	tx.removeOutputAt(i)
	tx.updateChangeOutput()
	return nil
}

func (tx *Transaction) removeOutputAt(i int) {
	tx.outputs = append(tx.outputs[:i], tx.outputs[i+1:]...)
	switch {
	case tx.changeIndex == i:
		tx.changeIndex = -1
	case tx.changeIndex > i:
		tx.changeIndex--
	}
}

// UpdateOutputSatoshis replaces the amount of the output at the given
// position.
func (tx *Transaction) UpdateOutputSatoshis(i int, satoshis int64) error {
	if i < 0 || i >= len(tx.outputs) {
		return fmt.Errorf("update output %d of %d: %w",
			i, len(tx.outputs), ErrMalformedTransaction)
	}
	if err := tx.outputs[i].SetSatoshis(satoshis); err != nil {
		return err
	}
	tx.updateChangeOutput()
	return nil
}

// ClearOutputs removes every output, including the change output.
func (tx *Transaction) ClearOutputs() {
	tx.outputs = nil
	tx.changeIndex = -1
	tx.updateChangeOutput()
}

// ChangeTo directs the surplus of inputs over outputs and fee to the given
// address.
func (tx *Transaction) ChangeTo(addr btcutil.Address) error {
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return fmt.Errorf("build change script: %w", err)
	}
	tx.changeScript = script
	tx.updateChangeOutput()
	return nil
}

// ChangeToScript directs change to a raw locking script.
func (tx *Transaction) ChangeToScript(script []byte) {
	tx.changeScript = script
	tx.updateChangeOutput()
}

// SetFee fixes the fee to an explicit amount instead of the rate estimate.
func (tx *Transaction) SetFee(satoshis int64) error {
	if satoshis < 0 || satoshis > MaxMoney {
		return fmt.Errorf("fee %d: %w", satoshis, ErrInvalidSatoshis)
	}
	tx.fee = &satoshis
	tx.updateChangeOutput()
	return nil
}

// SetFeePerKB replaces the fee rate used by the estimate.
func (tx *Transaction) SetFeePerKB(satoshis int64) error {
	if satoshis < 0 {
		return fmt.Errorf("fee rate %d: %w", satoshis, ErrInvalidSatoshis)
	}
	tx.feePerKB = satoshis
	tx.updateChangeOutput()
	return nil
}

// GetFee returns the fee the transaction currently pays: zero for a
// coinbase, the explicit fee when one is set, the whole unspent value when
// no change script exists, and the size estimate otherwise.
func (tx *Transaction) GetFee() int64 {
	if tx.IsCoinbase() {
		return 0
	}
	if tx.fee != nil {
		return *tx.fee
	}
	if tx.changeScript == nil {
		return tx.unspentValue()
	}
	return tx.estimateFee()
}

// updateChangeOutput drops the previous change output, invalidates every
// signature, and re-adds a change output when the surplus after the fee is
// positive. All structural mutations funnel through here.
func (tx *Transaction) updateChangeOutput() {
	if tx.changeScript == nil {
		return
	}
	tx.clearAllSignatures()
	if tx.changeIndex >= 0 {
		tx.removeOutputAt(tx.changeIndex)
	}
	tx.changeIndex = -1

	available := tx.unspentValue()
	changeAmount := available - tx.GetFee()
	if changeAmount > 0 {
		tx.changeIndex = len(tx.outputs)
		tx.outputs = append(tx.outputs, &Output{
			satoshis: changeAmount,
			pkScript: tx.changeScript,
		})
	}
}

func (tx *Transaction) clearAllSignatures() {
	for _, in := range tx.inputs {
		in.ClearSignatures()
	}
}

// estimateFee computes the rate-based fee estimate. The size is rounded up
// to whole kilobytes before the rate is applied; when the available surplus
// exceeds that first figure the change output allowance is added and the
// rounding applied again.
func (tx *Transaction) estimateFee() int64 {
	size := tx.estimateSize()
	available := tx.unspentValue()
	feePerKB := tx.feePerKB
	if feePerKB == 0 {
		feePerKB = DefaultFeePerKB
	}
	fee := divCeil(int64(size), 1000) * feePerKB
	if available > fee {
		size += changeOutputMaxSize
	}
	return divCeil(int64(size), 1000) * feePerKB
}

func (tx *Transaction) estimateSize() int {
	size := maximumExtraSize
	for _, in := range tx.inputs {
		size += in.EstimateSize()
	}
	for _, out := range tx.outputs {
		size += len(out.PkScript()) + 9
	}
	return size
}

func divCeil(a, b int64) int64 {
	return (a + b - 1) / b
}

// unspentValue is the input amount minus the output amount. Inputs without
// spend context contribute nothing.
func (tx *Transaction) unspentValue() int64 {
	var in int64
	for _, input := range tx.inputs {
		if out := input.Output(); out != nil {
			in += out.Satoshis()
		}
	}
	return in - tx.OutputAmount()
}

// InputAmount sums the spent outputs. Every input must carry spend context.
func (tx *Transaction) InputAmount() (int64, error) {
	var total int64
	for i, in := range tx.inputs {
		out := in.Output()
		if out == nil {
			return 0, fmt.Errorf("input %d: %w", i, ErrMissingSpendContext)
		}
		total += out.Satoshis()
	}
	return total, nil
}

// OutputAmount sums the output values.
func (tx *Transaction) OutputAmount() int64 {
	var total int64
	for _, out := range tx.outputs {
		total += out.Satoshis()
	}
	return total
}

// HasAllUTXOInfo reports whether every input carries spend context.
func (tx *Transaction) HasAllUTXOInfo() bool {
	for _, in := range tx.inputs {
		if in.Output() == nil {
			return false
		}
	}
	return true
}

// Sign collects and applies every signature the private key can contribute.
func (tx *Transaction) Sign(priv *btcec.PrivateKey, hashType txscript.SigHashType) error {
	return tx.SignAll([]*btcec.PrivateKey{priv}, hashType)
}

// SignAll signs with each private key in turn.
func (tx *Transaction) SignAll(privs []*btcec.PrivateKey, hashType txscript.SigHashType) error {
	if !tx.HasAllUTXOInfo() {
		return fmt.Errorf("sign: %w", ErrMissingSpendContext)
	}
	for _, priv := range privs {
		sigs, err := tx.getSignatures(priv, hashType)
		if err != nil {
			return err
		}
		for _, sig := range sigs {
			if err := tx.ApplySignature(sig); err != nil {
				return err
			}
		}
	}
	return nil
}

func (tx *Transaction) getSignatures(priv *btcec.PrivateKey,
	hashType txscript.SigHashType) ([]*TransactionSignature, error) {

	if hashType == 0 {
		hashType = txscript.SigHashAll
	}
	var sigs []*TransactionSignature
	for i, in := range tx.inputs {
		inputSigs, err := in.GetSignatures(tx, priv, i, hashType)
		if err != nil {
			return nil, fmt.Errorf("sign input %d: %w", i, err)
		}
		sigs = append(sigs, inputSigs...)
	}
	return sigs, nil
}

// SignAllConcurrently signs with each private key, fanning the per-input
// digest and signing work out over a worker pool. Signatures are applied
// sequentially in input order afterwards, so the result is identical to
// SignAll.
func (tx *Transaction) SignAllConcurrently(ctx context.Context, privs []*btcec.PrivateKey,
	hashType txscript.SigHashType, workers int) error {

	if !tx.HasAllUTXOInfo() {
		return fmt.Errorf("sign: %w", ErrMissingSpendContext)
	}
	if hashType == 0 {
		hashType = txscript.SigHashAll
	}

	indices := make([]int, len(tx.inputs))
	for i := range indices {
		indices[i] = i
	}
	collected := make([][]*TransactionSignature, len(tx.inputs))

	err := workerpool.Process(ctx, workers, indices,
		func(_ context.Context, i int) error {
			for _, priv := range privs {
				sigs, err := tx.inputs[i].GetSignatures(tx, priv, i, hashType)
				if err != nil {
					return fmt.Errorf("sign input %d: %w", i, err)
				}
				collected[i] = append(collected[i], sigs...)
			}
			return nil
		},
		func() {
			log.Warn("concurrent signing cancelled",
				zap.Int("inputs", len(tx.inputs)))
		})
	if err != nil {
		return err
	}

	for i := range collected {
		for _, sig := range collected[i] {
			if err := tx.ApplySignature(sig); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplySignature validates the signature against its input and applies it.
func (tx *Transaction) ApplySignature(sig *TransactionSignature) error {
	if sig.InputIndex < 0 || sig.InputIndex >= len(tx.inputs) {
		return fmt.Errorf("signature for input %d of %d: %w",
			sig.InputIndex, len(tx.inputs), ErrMalformedTransaction)
	}
	return tx.inputs[sig.InputIndex].AddSignature(tx, sig)
}

// IsValidSignature reports whether the signature verifies against the
// digest its input commits to.
func (tx *Transaction) IsValidSignature(sig *TransactionSignature) (bool, error) {
	if sig.InputIndex < 0 || sig.InputIndex >= len(tx.inputs) {
		return false, fmt.Errorf("signature for input %d of %d: %w",
			sig.InputIndex, len(tx.inputs), ErrMalformedTransaction)
	}
	return tx.inputs[sig.InputIndex].checkSignature(tx, sig)
}

// IsFullySigned reports whether every input carries all signatures it needs.
func (tx *Transaction) IsFullySigned() bool {
	for _, in := range tx.inputs {
		if !in.IsFullySigned() {
			return false
		}
	}
	return true
}

// IsCoinbase reports whether the transaction has exactly one input spending
// the null outpoint.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.inputs) == 1 && tx.inputs[0].IsNull()
}

// EnableRBF opts every input into BIP125 replacement by lowering sequences
// that are above the replaceable range.
func (tx *Transaction) EnableRBF() {
	for _, in := range tx.inputs {
		if in.Sequence() > DefaultRBFSequence {
			in.SetSequence(DefaultRBFSequence)
		}
	}
}

// IsRBF reports whether any input signals BIP125 replaceability.
func (tx *Transaction) IsRBF() bool {
	for _, in := range tx.inputs {
		if in.Sequence() < MaxSequence-1 {
			return true
		}
	}
	return false
}

// LockUntilDate sets nLockTime to a unix timestamp and drops default input
// sequences so the locktime takes consensus effect.
func (tx *Transaction) LockUntilDate(t time.Time) error {
	ts := t.Unix()
	if ts < int64(LockTimeBlockHeightLimit) {
		return fmt.Errorf("lock time %d predates the timestamp domain: %w",
			ts, ErrInvalidLockTime)
	}
	seconds, err := safe.Uint32FromInt64(ts)
	if err != nil {
		return fmt.Errorf("lock time %d exceeds the nLockTime domain: %w",
			ts, ErrInvalidLockTime)
	}
	tx.applyLockTime(seconds)
	return nil
}

// LockUntilBlockHeight sets nLockTime to a block height and drops default
// input sequences so the locktime takes consensus effect.
func (tx *Transaction) LockUntilBlockHeight(height uint32) error {
	if height >= LockTimeBlockHeightLimit {
		return fmt.Errorf("block height %d crosses into the timestamp domain: %w",
			height, ErrInvalidLockTime)
	}
	tx.applyLockTime(height)
	return nil
}

func (tx *Transaction) applyLockTime(v uint32) {
	for _, in := range tx.inputs {
		if in.Sequence() == DefaultSequence {
			in.SetSequence(DefaultLockTimeSequence)
		}
	}
	tx.lockTime = v
}

// LockTimeValue returns the raw nLockTime plus whether it encodes a unix
// timestamp rather than a block height.
func (tx *Transaction) LockTimeValue() (uint32, bool) {
	return tx.lockTime, tx.lockTime >= LockTimeBlockHeightLimit
}

// Verify runs the context-free consensus checks over the transaction.
func (tx *Transaction) Verify() error {
	if len(tx.inputs) == 0 {
		return fmt.Errorf("transaction has no inputs: %w", ErrInvalidTransaction)
	}
	if len(tx.outputs) == 0 {
		return fmt.Errorf("transaction has no outputs: %w", ErrInvalidTransaction)
	}

	var total int64
	for i, out := range tx.outputs {
		if err := out.InvalidSatoshis(); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		total += out.Satoshis()
		if total < 0 || total > MaxMoney {
			return fmt.Errorf("output total exceeds the money supply: %w",
				ErrInvalidTransaction)
		}
	}

	if size := tx.SerializeSize(); size > MaxBlockSize {
		return fmt.Errorf("transaction size %d exceeds block size limit: %w",
			size, ErrInvalidTransaction)
	}

	type outpoint struct {
		hash  chainhash.Hash
		index uint32
	}
	seen := make(map[outpoint]struct{}, len(tx.inputs))
	for _, in := range tx.inputs {
		op := outpoint{hash: in.PrevTxID(), index: in.OutputIndex()}
		if _, dup := seen[op]; dup {
			return fmt.Errorf("duplicate input %s:%d: %w",
				op.hash.String(), op.index, ErrInvalidTransaction)
		}
		seen[op] = struct{}{}
	}

	if tx.IsCoinbase() {
		scriptLen := len(tx.inputs[0].SignatureScript())
		if scriptLen < minCoinbaseScriptLen || scriptLen > maxCoinbaseScriptLen {
			return fmt.Errorf("coinbase script length %d: %w",
				scriptLen, ErrInvalidTransaction)
		}
		return nil
	}
	for i, in := range tx.inputs {
		if in.IsNull() {
			return fmt.Errorf("input %d spends the null outpoint: %w",
				i, ErrInvalidTransaction)
		}
	}
	return nil
}

// SerializeOpts selects which policy checks Serialize skips.
type SerializeOpts struct {
	DisableAll                 bool
	DisableLargeFees           bool
	DisableSmallFees           bool
	DisableDustOutputs         bool
	DisableIsFullySigned       bool
	DisableMoreOutputThanInput bool
}

// Serialize encodes the transaction after running the policy checks
// SerializationError describes.
func (tx *Transaction) Serialize(opts SerializeOpts) ([]byte, error) {
	if err := tx.SerializationError(opts); err != nil {
		return nil, err
	}
	return tx.UncheckedSerialize(), nil
}

// MustSerialize is Serialize for callers that have already validated; it
// panics on a policy error.
func (tx *Transaction) MustSerialize(opts SerializeOpts) []byte {
	raw, err := tx.Serialize(opts)
	if err != nil {
		panic(err)
	}
	return raw
}

// SerializationError returns the first policy violation that would make the
// serialized transaction unsafe to broadcast, or nil.
func (tx *Transaction) SerializationError(opts SerializeOpts) error {
	if opts.DisableAll {
		return nil
	}
	for i, out := range tx.outputs {
		if err := out.InvalidSatoshis(); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}

	unspent := tx.unspentValue()
	var err error
	if unspent < 0 {
		if !opts.DisableMoreOutputThanInput {
			err = fmt.Errorf("output amount exceeds input amount by %d: %w",
				-unspent, ErrOutputExceedsInput)
		}
	} else {
		err = tx.feeError(opts, unspent)
	}
	if err == nil {
		err = tx.dustError(opts)
	}
	if err == nil {
		err = tx.missingSignaturesError(opts)
	}
	return err
}

func (tx *Transaction) feeError(opts SerializeOpts, unspent int64) error {
	if tx.fee != nil && *tx.fee != unspent {
		return fmt.Errorf("unspent value is %d but specified fee is %d: %w",
			unspent, *tx.fee, ErrFeeDifferent)
	}
	if !opts.DisableLargeFees {
		maximumFee := FeeSecurityMargin * tx.estimateFee()
		if unspent > maximumFee {
			if tx.changeScript == nil {
				return fmt.Errorf("fee %d exceeds %d and no change address was provided: %w",
					unspent, maximumFee, ErrChangeAddressMissing)
			}
			return fmt.Errorf("fee %d exceeds the maximum %d: %w",
				unspent, maximumFee, ErrFeeTooLarge)
		}
	}
	if !opts.DisableSmallFees {
		minimumFee := divCeil(tx.estimateFee(), FeeSecurityMargin)
		if unspent < minimumFee {
			return fmt.Errorf("fee %d is below the minimum %d: %w",
				unspent, minimumFee, ErrFeeTooSmall)
		}
	}
	return nil
}

func (tx *Transaction) dustError(opts SerializeOpts) error {
	if opts.DisableDustOutputs {
		return nil
	}
	for i, out := range tx.outputs {
		if out.Satoshis() < DustAmount && !isDataOut(out.PkScript()) {
			return fmt.Errorf("output %d pays %d satoshis: %w",
				i, out.Satoshis(), ErrDustOutputs)
		}
	}
	return nil
}

func (tx *Transaction) missingSignaturesError(opts SerializeOpts) error {
	if opts.DisableIsFullySigned {
		return nil
	}
	if !tx.IsFullySigned() {
		return fmt.Errorf("some inputs have not been fully signed: %w",
			ErrMissingSignatures)
	}
	return nil
}

// ShallowCopy round-trips the transaction through its wire serialization,
// dropping signing state, spend context and change bookkeeping.
func (tx *Transaction) ShallowCopy() (*Transaction, error) {
	return NewTransactionFromBytes(tx.UncheckedSerialize())
}
