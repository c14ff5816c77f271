package transaction

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/txscript"

	"github.com/goodnatureofminers/btclib/pkg/codec"
	"github.com/goodnatureofminers/btclib/pkg/safe"
)

// Output pairs a satoshi amount with the locking script that encumbers it.
type Output struct {
	satoshis int64
	pkScript []byte
}

// NewOutput constructs an Output, validating the amount.
func NewOutput(satoshis int64, pkScript []byte) (*Output, error) {
	o := &Output{pkScript: pkScript}
	if err := o.SetSatoshis(satoshis); err != nil {
		return nil, err
	}
	return o, nil
}

// Satoshis returns the output amount.
func (o *Output) Satoshis() int64 {
	return o.satoshis
}

// SetSatoshis replaces the amount. The value must be a whole number of
// satoshis in [0, MaxMoney].
func (o *Output) SetSatoshis(v int64) error {
	o.satoshis = v
	if err := o.InvalidSatoshis(); err != nil {
		return err
	}
	return nil
}

// InvalidSatoshis reports why the amount is invalid, or nil.
func (o *Output) InvalidSatoshis() error {
	switch {
	case o.satoshis < 0:
		return fmt.Errorf("%w: negative amount %d", ErrInvalidSatoshis, o.satoshis)
	case o.satoshis > MaxMoney:
		return fmt.Errorf("%w: %d exceeds maximum money", ErrInvalidSatoshis, o.satoshis)
	default:
		return nil
	}
}

// PkScript returns the raw locking script bytes.
func (o *Output) PkScript() []byte {
	return o.pkScript
}

// SetPkScript replaces the locking script with raw bytes. Scripts that do not
// parse are retained as-is: wire data legitimately contains non-standard
// scripts and classification simply reports NonStandardTy for them.
func (o *Output) SetPkScript(script []byte) {
	o.pkScript = script
}

// SetPkScriptHex replaces the locking script from a hex string.
func (o *Output) SetPkScriptHex(s string) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode output script hex: %w", err)
	}
	o.pkScript = raw
	return nil
}

// ScriptClass classifies the locking script. Unparsable scripts classify as
// txscript.NonStandardTy rather than failing.
func (o *Output) ScriptClass() txscript.ScriptClass {
	return txscript.GetScriptClass(o.pkScript)
}

// SerializeSize returns the wire size of the output in bytes.
func (o *Output) SerializeSize() int {
	return 8 + codec.VarIntSize(uint64(len(o.pkScript))) + len(o.pkScript)
}

func (o *Output) writeTo(w *codec.Writer) {
	w.WriteUint64LE(uint64(o.satoshis))
	w.WriteVarBytes(o.pkScript)
}

func readOutput(r *codec.Reader) (*Output, error) {
	amount, err := r.ReadUint64LE()
	if err != nil {
		return nil, fmt.Errorf("read output amount: %w", err)
	}
	script, err := r.ReadVarBytes()
	if err != nil {
		return nil, fmt.Errorf("read output script: %w", err)
	}
	// Not checked against MaxMoney: wire data is accepted as-is and policy
	// checks run at serialization time. Amounts past the int64 range would
	// silently go negative, so only that conversion is guarded.
	satoshis, err := safe.Int64FromUint64(amount)
	if err != nil {
		return nil, fmt.Errorf("output amount %d: %w", amount, ErrMalformedTransaction)
	}
	return &Output{satoshis: satoshis, pkScript: script}, nil
}
