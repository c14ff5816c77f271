package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
)

func TestNetworkParams(t *testing.T) {
	tests := []struct {
		name    string
		want    *chaincfg.Params
		wantErr bool
	}{
		{name: "mainnet", want: &chaincfg.MainNetParams},
		{name: "testnet3", want: &chaincfg.TestNet3Params},
		{name: "regtest", want: &chaincfg.RegressionNetParams},
		{name: "simnet", want: &chaincfg.SimNetParams},
		{name: "testnet", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := networkParams(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("networkParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("networkParams() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadRawHex(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tx.hex")
	if err := os.WriteFile(file, []byte("f00d\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("hex flag wins over file and stdin", func(t *testing.T) {
		got, err := readRawHex("beef", file, strings.NewReader("dead\n"))
		if err != nil {
			t.Fatalf("readRawHex() error = %v", err)
		}
		if got != "beef" {
			t.Errorf("readRawHex() = %q, want %q", got, "beef")
		}
	})

	t.Run("file read and trimmed", func(t *testing.T) {
		got, err := readRawHex("", file, strings.NewReader("dead\n"))
		if err != nil {
			t.Fatalf("readRawHex() error = %v", err)
		}
		if got != "f00d" {
			t.Errorf("readRawHex() = %q, want %q", got, "f00d")
		}
	})

	t.Run("stdin fallback", func(t *testing.T) {
		got, err := readRawHex("", "", strings.NewReader("dead\n"))
		if err != nil {
			t.Fatalf("readRawHex() error = %v", err)
		}
		if got != "dead" {
			t.Errorf("readRawHex() = %q, want %q", got, "dead")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := readRawHex("", filepath.Join(t.TempDir(), "absent"), nil); err == nil {
			t.Error("readRawHex() accepted a missing file")
		}
	})
}
