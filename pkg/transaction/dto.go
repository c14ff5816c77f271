package transaction

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
)

// Variant tags carried by InputObject so a serialized input can be
// reconstructed into the right signing type.
const (
	inputTypePublicKeyHash      = "publickeyhash"
	inputTypePublicKey          = "publickey"
	inputTypeMultiSig           = "multisig"
	inputTypeMultiSigScriptHash = "multisigscripthash"
)

// TransactionObject is the structured form of a transaction, including the
// construction state the wire format drops: spend contexts, multisig key
// sets, accumulated signatures and change bookkeeping. It round-trips
// through encoding/json.
type TransactionObject struct {
	Hash         string         `json:"hash"`
	Version      int32          `json:"version"`
	Inputs       []InputObject  `json:"inputs"`
	Outputs      []OutputObject `json:"outputs"`
	NLockTime    uint32         `json:"nLockTime"`
	ChangeScript string         `json:"changeScript,omitempty"`
	ChangeIndex  int            `json:"changeIndex"`
	Fee          *int64         `json:"fee,omitempty"`
	FeePerKB     int64          `json:"feePerKb,omitempty"`
}

// InputObject is the structured form of one input. Signatures is
// index-aligned with PublicKeys; a null entry is a hole still waiting for
// that key's signature.
type InputObject struct {
	Type          string             `json:"type,omitempty"`
	PrevTxID      string             `json:"prevTxId"`
	OutputIndex   uint32             `json:"outputIndex"`
	Sequence      uint32             `json:"sequenceNumber"`
	Script        string             `json:"script"`
	Witness       []string           `json:"witness,omitempty"`
	Output        *OutputObject      `json:"output,omitempty"`
	PublicKeys    []string           `json:"publicKeys,omitempty"`
	Threshold     int                `json:"threshold,omitempty"`
	NestedWitness bool               `json:"nestedWitness,omitempty"`
	Signatures    []*SignatureObject `json:"signatures,omitempty"`
}

// OutputObject is the structured form of one output.
type OutputObject struct {
	Satoshis int64  `json:"satoshis"`
	Script   string `json:"script"`
}

// SignatureObject is the structured form of one accumulated signature.
type SignatureObject struct {
	PublicKey   string `json:"publicKey"`
	PrevTxID    string `json:"prevTxId"`
	OutputIndex uint32 `json:"outputIndex"`
	InputIndex  int    `json:"inputIndex"`
	Signature   string `json:"signature"`
	SigType     uint32 `json:"sigtype"`
}

func (in *baseInput) baseObject(typ string) InputObject {
	obj := InputObject{
		Type:        typ,
		PrevTxID:    in.prevTxID.String(),
		OutputIndex: in.outputIndex,
		Sequence:    in.sequence,
		Script:      hex.EncodeToString(in.sigScript),
	}
	for _, item := range in.witness {
		obj.Witness = append(obj.Witness, hex.EncodeToString(item))
	}
	if in.output != nil {
		obj.Output = &OutputObject{
			Satoshis: in.output.Satoshis(),
			Script:   hex.EncodeToString(in.output.PkScript()),
		}
	}
	return obj
}

func (obj *InputObject) applyMultiSigState(state *multiSigState, nestedWitness bool) {
	for _, pub := range state.publicKeys {
		obj.PublicKeys = append(obj.PublicKeys, hex.EncodeToString(pub.SerializeCompressed()))
	}
	obj.Threshold = state.threshold
	obj.NestedWitness = nestedWitness

	obj.Signatures = make([]*SignatureObject, len(state.signatures))
	for i, sig := range state.signatures {
		if sig == nil {
			continue
		}
		obj.Signatures[i] = newSignatureObject(sig)
	}
}

func newSignatureObject(sig *TransactionSignature) *SignatureObject {
	return &SignatureObject{
		PublicKey:   hex.EncodeToString(sig.PublicKey.SerializeCompressed()),
		PrevTxID:    sig.PrevTxID.String(),
		OutputIndex: sig.OutputIndex,
		InputIndex:  sig.InputIndex,
		Signature:   hex.EncodeToString(sig.Signature.Serialize()),
		SigType:     uint32(sig.HashType),
	}
}

func (obj *SignatureObject) signature() (*TransactionSignature, error) {
	pubBytes, err := hex.DecodeString(obj.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("decode signature public key: %w", err)
	}
	pub, err := btcec.ParsePubKey(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse signature public key: %w", err)
	}
	prevTxID, err := chainhash.NewHashFromStr(obj.PrevTxID)
	if err != nil {
		return nil, fmt.Errorf("parse signature prev txid: %w", err)
	}
	derBytes, err := hex.DecodeString(obj.Signature)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	der, err := ecdsa.ParseDERSignature(derBytes)
	if err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}
	return &TransactionSignature{
		PublicKey:   pub,
		PrevTxID:    *prevTxID,
		OutputIndex: obj.OutputIndex,
		InputIndex:  obj.InputIndex,
		Signature:   der,
		HashType:    txscript.SigHashType(obj.SigType),
	}, nil
}

// ToObject converts the transaction to its structured form.
func (tx *Transaction) ToObject() *TransactionObject {
	obj := &TransactionObject{
		Hash:        tx.TxID(),
		Version:     tx.version,
		NLockTime:   tx.lockTime,
		ChangeIndex: tx.changeIndex,
		FeePerKB:    tx.feePerKB,
	}
	if tx.fee != nil {
		fee := *tx.fee
		obj.Fee = &fee
	}
	if tx.changeScript != nil {
		obj.ChangeScript = hex.EncodeToString(tx.changeScript)
	}
	for _, in := range tx.inputs {
		obj.Inputs = append(obj.Inputs, in.toObject())
	}
	for _, out := range tx.outputs {
		obj.Outputs = append(obj.Outputs, OutputObject{
			Satoshis: out.Satoshis(),
			Script:   hex.EncodeToString(out.PkScript()),
		})
	}
	return obj
}

// FromObject reconstructs a transaction from its structured form, restoring
// the signing variants and any accumulated signatures.
func FromObject(obj *TransactionObject) (*Transaction, error) {
	tx := newTransaction()
	tx.version = obj.Version
	tx.lockTime = obj.NLockTime
	tx.feePerKB = obj.FeePerKB
	if obj.Fee != nil {
		fee := *obj.Fee
		tx.fee = &fee
	}
	if obj.ChangeScript != "" {
		script, err := hex.DecodeString(obj.ChangeScript)
		if err != nil {
			return nil, fmt.Errorf("decode change script: %w", err)
		}
		tx.changeScript = script
	}

	for i, inObj := range obj.Inputs {
		in, err := inputFromObject(&inObj)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		tx.inputs = append(tx.inputs, in)
	}
	for i, outObj := range obj.Outputs {
		script, err := hex.DecodeString(outObj.Script)
		if err != nil {
			return nil, fmt.Errorf("output %d: decode script: %w", i, err)
		}
		out, err := NewOutput(outObj.Satoshis, script)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		tx.outputs = append(tx.outputs, out)
	}

	if obj.ChangeIndex >= 0 {
		if obj.ChangeIndex >= len(tx.outputs) {
			return nil, fmt.Errorf("change index %d of %d outputs: %w",
				obj.ChangeIndex, len(tx.outputs), ErrMalformedTransaction)
		}
		if !bytes.Equal(tx.outputs[obj.ChangeIndex].PkScript(), tx.changeScript) {
			return nil, fmt.Errorf("change index %d does not carry the change script: %w",
				obj.ChangeIndex, ErrMalformedTransaction)
		}
		tx.changeIndex = obj.ChangeIndex
	}
	return tx, nil
}

func inputFromObject(obj *InputObject) (Input, error) {
	prevTxID, err := chainhash.NewHashFromStr(obj.PrevTxID)
	if err != nil {
		return nil, fmt.Errorf("parse prev txid: %w", err)
	}
	sigScript, err := hex.DecodeString(obj.Script)
	if err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	base := baseInput{
		prevTxID:    *prevTxID,
		outputIndex: obj.OutputIndex,
		sequence:    obj.Sequence,
		sigScript:   sigScript,
	}
	for _, item := range obj.Witness {
		raw, err := hex.DecodeString(item)
		if err != nil {
			return nil, fmt.Errorf("decode witness item: %w", err)
		}
		base.witness = append(base.witness, raw)
	}
	if obj.Output != nil {
		script, err := hex.DecodeString(obj.Output.Script)
		if err != nil {
			return nil, fmt.Errorf("decode spent output script: %w", err)
		}
		out, err := NewOutput(obj.Output.Satoshis, script)
		if err != nil {
			return nil, err
		}
		base.output = out
	}

	switch obj.Type {
	case "":
		return &base, nil
	case inputTypePublicKeyHash:
		return newPublicKeyHashInput(base)
	case inputTypePublicKey:
		return newPublicKeyInput(base)
	case inputTypeMultiSig:
		pubKeys, err := publicKeysFromHex(obj.PublicKeys)
		if err != nil {
			return nil, err
		}
		in, err := newMultiSigInput(base, pubKeys, obj.Threshold)
		if err != nil {
			return nil, err
		}
		if err := restoreSignatures(&in.multiSigState, obj.Signatures); err != nil {
			return nil, err
		}
		if in.SignatureCount() > 0 {
			if err := in.updateScript(); err != nil {
				return nil, err
			}
		}
		return in, nil
	case inputTypeMultiSigScriptHash:
		pubKeys, err := publicKeysFromHex(obj.PublicKeys)
		if err != nil {
			return nil, err
		}
		in, err := newMultiSigScriptHashInput(base, pubKeys, obj.Threshold, obj.NestedWitness)
		if err != nil {
			return nil, err
		}
		if err := restoreSignatures(&in.multiSigState, obj.Signatures); err != nil {
			return nil, err
		}
		if in.SignatureCount() > 0 {
			if err := in.updateScript(); err != nil {
				return nil, err
			}
		}
		return in, nil
	}
	return nil, fmt.Errorf("input type %q: %w", obj.Type, ErrUnsupportedInputType)
}

func publicKeysFromHex(hexKeys []string) ([]*btcec.PublicKey, error) {
	pubKeys := make([]*btcec.PublicKey, 0, len(hexKeys))
	for _, s := range hexKeys {
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("decode public key: %w", err)
		}
		pub, err := btcec.ParsePubKey(raw)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		pubKeys = append(pubKeys, pub)
	}
	return pubKeys, nil
}

func restoreSignatures(state *multiSigState, objs []*SignatureObject) error {
	for _, sigObj := range objs {
		if sigObj == nil {
			continue
		}
		sig, err := sigObj.signature()
		if err != nil {
			return err
		}
		idx, ok := state.indexOf(sig.PublicKey)
		if !ok {
			return fmt.Errorf("restore signature: %w", ErrNoMatchingPublicKey)
		}
		state.signatures[idx] = sig
	}
	return nil
}

// ToJSON serializes the structured form.
func (tx *Transaction) ToJSON() ([]byte, error) {
	return json.Marshal(tx.ToObject())
}

// NewTransactionFromJSON reconstructs a transaction from its structured
// JSON form.
func NewTransactionFromJSON(raw []byte) (*Transaction, error) {
	var obj TransactionObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode transaction json: %w", err)
	}
	return FromObject(&obj)
}
