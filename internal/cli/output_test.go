package cli

import (
	"bytes"
	"testing"

	"github.com/myastroboard/astroboard/pkg/fetch"
)

func TestValidateOutput(t *testing.T) {
	for _, f := range []string{"", "text", "json", "yaml"} {
		if err := validateOutput(f); err != nil {
			t.Errorf("validateOutput(%q) = %v", f, err)
		}
	}
	if validateOutput("xml") == nil {
		t.Error("validateOutput(xml) should fail")
	}
}

func TestWritePayload(t *testing.T) {
	p := fetch.MustParsePayload(`{"phase":"Full","illumination":99.5}`)
	tests := []struct {
		format string
		want   string
	}{
		{outputJSON, "{\n  \"phase\": \"Full\",\n  \"illumination\": 99.5\n}\n"},
		{outputYAML, "illumination: 99.5\nphase: Full\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := writePayload(&buf, tt.format, p); err != nil {
			t.Fatalf("%s: %v", tt.format, err)
		}
		if buf.String() != tt.want {
			t.Errorf("%s output = %q, want %q", tt.format, buf.String(), tt.want)
		}
	}
}

func TestWriteValueYAMLUsesTags(t *testing.T) {
	type row struct {
		Name  string `json:"name" yaml:"name"`
		Ready bool   `json:"ready" yaml:"ready"`
	}
	var buf bytes.Buffer
	if err := writeValue(&buf, outputYAML, []row{{"moon", true}}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "- name: moon\n  ready: true\n" {
		t.Errorf("yaml = %q", buf.String())
	}
}
