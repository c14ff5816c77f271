package transaction

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
)

// TransactionSignature binds an ECDSA signature to the input it signs and
// the public key that produced it. Instances are created by the per-input
// signing routines and never mutated afterwards.
type TransactionSignature struct {
	PublicKey   *btcec.PublicKey
	PrevTxID    chainhash.Hash
	OutputIndex uint32
	InputIndex  int
	Signature   *ecdsa.Signature
	HashType    txscript.SigHashType
}

// scriptSigComponent returns the push placed into unlocking scripts and
// witness stacks: the DER-encoded signature followed by the one-byte hash
// type.
func (s *TransactionSignature) scriptSigComponent() []byte {
	der := s.Signature.Serialize()
	out := make([]byte, 0, len(der)+1)
	out = append(out, der...)
	return append(out, byte(s.HashType))
}
