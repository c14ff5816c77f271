// Package main decodes a raw Bitcoin transaction into its structured JSON
// form.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/btclib/pkg/transaction"
)

var config struct {
	Hex     string `long:"hex" env:"TXDECODE_HEX" description:"raw transaction hex; read from --in or stdin when empty"`
	In      string `long:"in" env:"TXDECODE_IN" description:"file containing the raw transaction hex"`
	Network string `long:"network" env:"TXDECODE_NETWORK" default:"mainnet" description:"network for address rendering (mainnet, testnet3, regtest, simnet)"`
}

func networkParams(name string) (*chaincfg.Params, error) {
	switch name {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}

// readRawHex resolves the transaction hex by precedence: the --hex flag, the
// --in file, then stdin.
func readRawHex(hexFlag, inFlag string, stdin io.Reader) (string, error) {
	if hexFlag != "" {
		return hexFlag, nil
	}
	if inFlag != "" {
		raw, err := os.ReadFile(inFlag)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", inFlag, err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(nil, 8*1024*1024)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", scanner.Err()
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()
	if _, err := flags.ParseArgs(&config, os.Args); err != nil {
		logger.Fatal("Failed to parse arguments", zap.Error(err))
	}
	transaction.UseLogger(logger)

	params, err := networkParams(config.Network)
	if err != nil {
		logger.Fatal("Failed to resolve network", zap.Error(err))
	}

	rawHex, err := readRawHex(config.Hex, config.In, os.Stdin)
	if err != nil {
		logger.Fatal("Failed to read transaction hex", zap.Error(err))
	}
	if rawHex == "" {
		logger.Fatal("No transaction hex provided")
	}

	tx, err := transaction.NewTransactionFromHex(rawHex)
	if err != nil {
		logger.Fatal("Failed to decode transaction", zap.Error(err))
	}

	for i, out := range tx.Outputs() {
		_, addrs, _, err := txscript.ExtractPkScriptAddrs(out.PkScript(), params)
		if err != nil || len(addrs) == 0 {
			continue
		}
		rendered := make([]string, 0, len(addrs))
		for _, addr := range addrs {
			rendered = append(rendered, addr.EncodeAddress())
		}
		logger.Info("Decoded output address",
			zap.Int("output", i),
			zap.Int64("satoshis", out.Satoshis()),
			zap.Strings("addresses", rendered))
	}

	raw, err := json.MarshalIndent(tx.ToObject(), "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode transaction", zap.Error(err))
	}
	fmt.Println(string(raw))
}
