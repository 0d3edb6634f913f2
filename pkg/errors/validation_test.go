package errors

import "testing"

func TestValidatePosition(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "forward", false},
		{"dashed", "centre-back", false},
		{"underscore", "wing_back", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 80)), true},
		{"uppercase", "Forward", true},
		{"path traversal", "../admin", true},
		{"slash", "a/b", true},
		{"query", "forward?k=3", true},
		{"control char", "for\x01ward", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePosition(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePosition(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPosition) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidPosition)
			}
		})
	}
}

func TestValidateGroupCount(t *testing.T) {
	for _, k := range []int{2, 5, 10} {
		if err := ValidateGroupCount(k, 2, 10); err != nil {
			t.Errorf("ValidateGroupCount(%d) = %v", k, err)
		}
	}
	for _, k := range []int{1, 11, -3} {
		if err := ValidateGroupCount(k, 2, 10); err == nil {
			t.Errorf("ValidateGroupCount(%d) = nil, want error", k)
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"http://localhost:8000", false},
		{"https://api.example.com", false},
		{"", true},
		{"ftp://example.com", true},
		{"localhost:8000", true},
		{"http://", true},
		{"http://localhost:8000?k=3", true},
		{"https://api.example.com/v2#top", true},
		{"http://exa mple.com", true},
	}
	for _, tt := range tests {
		if err := ValidateURL(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
