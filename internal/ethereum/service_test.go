package ethereum

import (
	"strings"
	"testing"
)

func word(value string) string {
	return strings.Repeat("0", 64-len(value)) + value
}

func TestDecodeListingState(t *testing.T) {
	result := "0x" + word("a") + word("4") + word("2") + word("1")

	state, err := decodeListingState(result)
	if err != nil {
		t.Fatalf("decodeListingState() error = %v", err)
	}

	if state.TotalAvailable != 10 {
		t.Errorf("totalAvailable = %d, want 10", state.TotalAvailable)
	}
	if state.TotalSold != 4 {
		t.Errorf("totalSold = %d, want 4", state.TotalSold)
	}
	if state.TotalPerSale != 2 {
		t.Errorf("totalPerSale = %d, want 2", state.TotalPerSale)
	}
	if !state.Finalized {
		t.Error("finalized = false, want true")
	}
}

func TestDecodeListingStateShortResult(t *testing.T) {
	if _, err := decodeListingState("0x" + word("a")); err == nil {
		t.Error("decodeListingState() error = nil, want short result error")
	}
}

func TestParseHexUint64(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{"0x10", 16, false},
		{"ff", 255, false},
		{word("0"), 0, false},
		{"", 0, true},
		{"0xzz", 0, true},
	}

	for _, tt := range tests {
		got, err := parseHexUint64(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseHexUint64(%q) error = %v, wantErr %t", tt.input, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseHexUint64(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
