package middleware

import "testing"

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "0b9c1f6e-3f55-4c8e-9d2a-7e1f5b6a4c21", "0b9c1f6e-3f55-4c8e-9d2a-7e1f5b6a4c21", false},
		{"uppercase normalized", "0B9C1F6E-3F55-4C8E-9D2A-7E1F5B6A4C21", "0b9c1f6e-3f55-4c8e-9d2a-7e1f5b6a4c21", false},
		{"trims whitespace", "  0b9c1f6e-3f55-4c8e-9d2a-7e1f5b6a4c21 ", "0b9c1f6e-3f55-4c8e-9d2a-7e1f5b6a4c21", false},
		{"empty", "", "", true},
		{"not a uuid", "xyz123", "", true},
		{"sql injection", "abc'; DROP--", "", true},
		{"truncated", "0b9c1f6e-3f55-4c8e-9d2a", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateUserID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateRating(t *testing.T) {
	tests := []struct {
		rating  int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{3, false},
		{5, false},
		{6, true},
		{-2, true},
	}
	for _, tt := range tests {
		errMsg := ValidateRating(tt.rating)
		if tt.wantErr && errMsg == "" {
			t.Errorf("rating %d: expected error, got none", tt.rating)
		}
		if !tt.wantErr && errMsg != "" {
			t.Errorf("rating %d: unexpected error: %s", tt.rating, errMsg)
		}
	}
}
