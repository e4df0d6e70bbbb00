package errors

import (
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "Plots", false},
		{"valid jll", "FFMPEG_jll", false},
		{"valid with dot", "Foo.Bar", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"path traversal ..", "..", true},
		{"slash", "A/Plots", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePeriodLabel(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2019-05", false},
		{"2019-05-17", false},
		{"2019", true},
		{"2019-5", true},
		{"", true},
		{"../2019-05", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidatePeriodLabel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePeriodLabel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidLabel) {
				t.Errorf("expected INVALID_LABEL, got %v", GetCode(err))
			}
		})
	}
}

func TestValidateDocumentName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"dependencies_2019-05.json", false},
		{"metadata_dependencies_1a2b3c4d.json", false},
		{"", true},
		{".hidden.json", true},
		{"a/b.json", true},
		{"..json", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateDocumentName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocumentName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
