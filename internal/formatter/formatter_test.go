package formatter

import "testing"

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "yaml", want: FormatYAML},
		{in: "cbor", want: FormatCBOR},
		{in: "template", want: FormatTemplate},
		{in: "json", wantErr: true},
		{in: "YAML", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
			}
			if !tt.wantErr && got.String() != tt.in && tt.in != "" {
				t.Errorf("ParseFormat(%q).String() = %q", tt.in, got.String())
			}
		})
	}
}

func TestFormatUnmarshalText(t *testing.T) {
	t.Parallel()

	f := FormatYAML
	if err := f.UnmarshalText([]byte("cbor")); err != nil {
		t.Fatalf("UnmarshalText(cbor) unexpected error: %v", err)
	}
	if f != FormatCBOR {
		t.Errorf("UnmarshalText(cbor) = %s, want cbor", f)
	}

	if err := f.UnmarshalText([]byte("xml")); err == nil {
		t.Fatal("UnmarshalText(xml) = nil, want error")
	}
	if f != FormatCBOR {
		t.Errorf("failed UnmarshalText changed the format to %s", f)
	}
}
