package invite

import (
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
		wantUnique bool
	}{
		{
			name:       "generates codes of correct length and alphabet",
			iterations: 200,
		},
		{
			name:       "generates unique codes",
			iterations: 50,
			wantUnique: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make(map[string]bool)
			for i := 0; i < tt.iterations; i++ {
				code, err := GenerateCode()
				if err != nil {
					t.Fatalf("GenerateCode() error = %v", err)
				}

				if len(code) != CodeLength {
					t.Errorf("code length = %d, want %d", len(code), CodeLength)
				}

				for _, c := range code {
					if !strings.ContainsRune(codeAlphabet, c) {
						t.Errorf("code %q contains %q, not in alphabet", code, c)
					}
				}

				if tt.wantUnique {
					if seen[code] {
						t.Errorf("duplicate code generated: %s", code)
					}
					seen[code] = true
				}
			}
		})
	}
}

func TestGenerateCodeExcludesAmbiguousCharacters(t *testing.T) {
	for _, c := range "0O1I" {
		if strings.ContainsRune(codeAlphabet, c) {
			t.Errorf("alphabet contains ambiguous character %q", c)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already normalized",
			input: "AB12CD",
			want:  "AB12CD",
		},
		{
			name:  "lowercase with hyphens",
			input: "ab-12-cd",
			want:  "AB12CD",
		},
		{
			name:  "surrounding whitespace",
			input: "  ab12cd  ",
			want:  "AB12CD",
		},
		{
			name:  "internal whitespace",
			input: "ab 12 cd",
			want:  "AB12CD",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only separators",
			input: "- - -",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCode(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tt.input, got, tt.want)
			}

			// Normalization must be idempotent
			if again := NormalizeCode(got); again != got {
				t.Errorf("NormalizeCode(NormalizeCode(%q)) = %q, want %q", tt.input, again, got)
			}
		})
	}
}
