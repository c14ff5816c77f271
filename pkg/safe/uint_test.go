package safe

import (
	"math"
	"testing"
)

func TestUint32FromInt64(t *testing.T) {
	tests := []struct {
		name    string
		v       int64
		want    uint32
		wantErr bool
	}{
		{name: "zero", v: 0, want: 0},
		{name: "timestamp", v: 1_600_000_000, want: 1_600_000_000},
		{name: "max uint32", v: math.MaxUint32, want: math.MaxUint32},
		{name: "above max uint32", v: math.MaxUint32 + 1, wantErr: true},
		{name: "negative", v: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Uint32FromInt64(tt.v)
			if (err != nil) != tt.wantErr {
				t.Errorf("Uint32FromInt64() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("Uint32FromInt64() got = %v, want %v", got, tt.want)
			}
		})
	}
}
