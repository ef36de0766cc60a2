package merge

import "testing"

func TestNormalizeFlag(t *testing.T) {
	tests := []struct {
		name  string
		input *string
		want  string // "" means nil
	}{
		{"lowercase h", strp("h"), "H"},
		{"word High", strp("High"), "H"},
		{"lowercase l", strp("l"), "L"},
		{"lowercase n", strp("n"), "N"},
		{"empty string", strp(""), ""},
		{"nil", nil, ""},
		{"unknown letter", strp("X"), ""},
		{"whitespace only", strp("  "), ""},
		{"padded flag", strp(" h "), "H"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFlag(tt.input)
			if tt.want == "" {
				if got != nil {
					t.Errorf("NormalizeFlag() = %q, want nil", *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("NormalizeFlag() = %v, want %q", got, tt.want)
			}
		})
	}
}

func TestValidISODate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2024-03-15", true},
		{"2024-12-31", true},
		{"2024-02-30", false}, // not a real calendar date
		{"2024-13-01", false},
		{"15.03.2024", false},
		{"2024-3-15", false}, // not zero-padded
		{"2024-03-15T10:30:00", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidISODate(tt.input); got != tt.want {
				t.Errorf("ValidISODate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
