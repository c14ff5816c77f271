package transaction

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Sort applies the BIP69 canonical ordering: inputs by display-order txid
// then output index, outputs by amount then locking script bytes. The change
// output keeps being tracked across the reorder.
func (tx *Transaction) Sort() error {
	err := tx.SortOutputs(func(outputs []*Output) []*Output {
		sorted := make([]*Output, len(outputs))
		copy(sorted, outputs)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Satoshis() != sorted[j].Satoshis() {
				return sorted[i].Satoshis() < sorted[j].Satoshis()
			}
			return bytes.Compare(sorted[i].PkScript(), sorted[j].PkScript()) < 0
		})
		return sorted
	})
	if err != nil {
		return err
	}

	return tx.SortInputs(func(inputs []Input) []Input {
		sorted := make([]Input, len(inputs))
		copy(sorted, inputs)
		sort.SliceStable(sorted, func(i, j int) bool {
			if c := compareTxIDs(sorted[i].PrevTxID(), sorted[j].PrevTxID()); c != 0 {
				return c < 0
			}
			return sorted[i].OutputIndex() < sorted[j].OutputIndex()
		})
		return sorted
	})
}

// SortOutputs reorders the outputs with the given strategy and remaps the
// change index. A strategy that drops or adds outputs is ErrInvalidSorting.
func (tx *Transaction) SortOutputs(strategy func([]*Output) []*Output) error {
	sorted := strategy(tx.outputs)
	if len(sorted) != len(tx.outputs) {
		return fmt.Errorf("output count changed from %d to %d: %w",
			len(tx.outputs), len(sorted), ErrInvalidSorting)
	}

	if tx.changeIndex >= 0 {
		change := tx.outputs[tx.changeIndex]
		newIndex := -1
		for i, out := range sorted {
			if out == change {
				newIndex = i
				break
			}
		}
		if newIndex < 0 {
			return fmt.Errorf("change output lost in reorder: %w", ErrInvalidSorting)
		}
		tx.changeIndex = newIndex
	}
	tx.outputs = sorted
	return nil
}

// SortInputs reorders the inputs with the given strategy. A strategy that
// drops or adds inputs is ErrInvalidSorting.
func (tx *Transaction) SortInputs(strategy func([]Input) []Input) error {
	sorted := strategy(tx.inputs)
	if len(sorted) != len(tx.inputs) {
		return fmt.Errorf("input count changed from %d to %d: %w",
			len(tx.inputs), len(sorted), ErrInvalidSorting)
	}
	tx.inputs = sorted
	return nil
}

// compareTxIDs orders hashes the way their hex rendering sorts, which reads
// the internal-order bytes back to front.
func compareTxIDs(a, b chainhash.Hash) int {
	for i := chainhash.HashSize - 1; i >= 0; i-- {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}
