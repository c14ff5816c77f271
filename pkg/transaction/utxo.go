package transaction

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// UTXO describes an unspent output a transaction intends to spend: the
// outpoint plus the spend context the signing variants need.
type UTXO struct {
	TxID        chainhash.Hash
	OutputIndex uint32
	PkScript    []byte
	Satoshis    int64
}

// NewUTXO builds a UTXO from the display-order txid hex and the locking
// script hex.
func NewUTXO(txID string, outputIndex uint32, pkScript string, satoshis int64) (*UTXO, error) {
	hash, err := chainhash.NewHashFromStr(txID)
	if err != nil {
		return nil, fmt.Errorf("parse utxo txid: %w", err)
	}
	script, err := hex.DecodeString(pkScript)
	if err != nil {
		return nil, fmt.Errorf("parse utxo script: %w", err)
	}
	if satoshis < 0 || satoshis > MaxMoney {
		return nil, fmt.Errorf("utxo amount %d: %w", satoshis, ErrInvalidSatoshis)
	}
	return &UTXO{
		TxID:        *hash,
		OutputIndex: outputIndex,
		PkScript:    script,
		Satoshis:    satoshis,
	}, nil
}

func (u *UTXO) output() (*Output, error) {
	return NewOutput(u.Satoshis, u.PkScript)
}
