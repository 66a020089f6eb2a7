package templated

import (
	"bytes"
	"testing"
	"time"

	"github.com/jacoelho/remo/internal/snapshot"
)

func TestFormatterRecords(t *testing.T) {
	t.Parallel()

	tmpl, err := Parse(`{{.kind}}{{if eq .kind "echonetlite_property"}} {{hex .epc}}={{.val}}{{else}} {{default "-" .nickname}}{{end}}`)
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	batch := []snapshot.Record{
		{Kind: snapshot.KindProperty, ParentID: "a1", Property: &snapshot.Property{
			Name: "measured_instantaneous", EPC: 231, Value: "397",
			UpdatedAt: time.Date(2022, 10, 22, 11, 38, 14, 0, time.UTC),
		}},
		{Kind: snapshot.KindAppliance, Appliance: &snapshot.Appliance{ID: "a1", Type: "EL_SMART_METER"}},
	}

	var buf bytes.Buffer
	if err := NewWithWriter(&buf, tmpl).Records(batch); err != nil {
		t.Fatalf("Records() unexpected error: %v", err)
	}

	if got, want := buf.String(), "echonetlite_property 0xE7=397\nappliance -\n"; got != want {
		t.Errorf("Records() wrote %q, want %q", got, want)
	}
}

func TestFormatterMissingField(t *testing.T) {
	t.Parallel()

	tmpl, err := Parse("{{.firmware_version}}\n")
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	var buf bytes.Buffer
	batch := []snapshot.Record{{Kind: snapshot.KindUser, User: &snapshot.User{Nickname: "hoge"}}}
	if err := NewWithWriter(&buf, tmpl).Records(batch); err == nil {
		t.Fatal("Records() expected error for a field the record does not have")
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	if _, err := Parse("{{.kind"); err == nil {
		t.Fatal("Parse() expected error")
	}
}
