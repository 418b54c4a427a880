package domain

import (
	"errors"
	"testing"
)

func TestValidateMint(t *testing.T) {
	valid := []string{
		"6x5SYnLroiN7WYq8NQYU9KHcH4YjpBbwpUfVu3EB7ieH",
		"DQkurkeUr1yjS59aHLwwk68JBymnGN6yNjUuTvyw5m28",
		"7c74eYFzox1cPAgu5d6NwycZZ2hE8Ti1nGJxuqRpczQx",
	}
	for _, mint := range valid {
		if err := ValidateMint(mint); err != nil {
			t.Errorf("ValidateMint(%s): %v", mint, err)
		}
	}
}

func TestValidateMint_Invalid(t *testing.T) {
	tests := []struct {
		name string
		mint string
		want error
	}{
		{"empty", "", ErrInvalidMintLength},
		{"bad base58 characters", "0OIl+not-base58!", ErrInvalidMintEncoding},
		{"too short", "abc", ErrInvalidMintLength},
		{"too long", "6x5SYnLroiN7WYq8NQYU9KHcH4YjpBbwpUfVu3EB7ieH6x5SYnLroiN7WYq8NQYU9KHcH4YjpBbwpUfVu3EB7ieH", ErrInvalidMintLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateMint(tt.mint); !errors.Is(err, tt.want) {
				t.Errorf("ValidateMint(%q) = %v, want %v", tt.mint, err, tt.want)
			}
		})
	}
}
