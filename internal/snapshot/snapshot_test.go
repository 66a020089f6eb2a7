package snapshot

import (
	"os"
	"testing"

	"github.com/jacoelho/remo"
)

func decodeFixture(t *testing.T, name string) []Record {
	t.Helper()

	f, err := os.Open("../../testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var records []Record
	switch name {
	case "devices.json":
		err = remo.DecodeDevices(f, -1, remo.Options{}, func(d *remo.Device, sub remo.DeviceSubNode) error {
			records = append(records, FromDevice(d, sub))
			return nil
		})
	default:
		err = remo.DecodeAppliances(f, -1, remo.Options{}, func(a *remo.Appliance, sub remo.ApplianceSubNode) error {
			records = append(records, FromAppliance(a, sub))
			return nil
		})
	}
	if err != nil {
		t.Fatalf("decode %s: %v", name, err)
	}
	return records
}

func TestFromDeviceOwnsData(t *testing.T) {
	t.Parallel()

	records := decodeFixture(t, "devices.json")
	if len(records) != 10 {
		t.Fatalf("got %d records, want 10", len(records))
	}

	// Later callbacks reuse decoder storage; the copies must not change.
	first := records[2]
	if first.Kind != KindDevice || first.Device.Name != "test remo device hoge" {
		t.Fatalf("records[2] = %+v, want first device", first)
	}
	if first.Device.MacAddress != "e8:db:84:00:11:22" {
		t.Errorf("MacAddress = %q", first.Device.MacAddress)
	}

	user := records[0]
	if user.Kind != KindUser || user.ParentID != "f262cb0c-a853-47bb-9559-44d0f2c4d6e2" || user.User.Nickname != "hoge" {
		t.Errorf("records[0] = %+v, want user hoge of the first device", user)
	}

	events := records[5]
	if events.Kind != KindNewestEvents || len(events.Readings) != 4 {
		t.Fatalf("records[5] = %+v, want four readings", events)
	}
	wantSensors := []string{"te", "hu", "il", "mo"}
	for i, want := range wantSensors {
		if events.Readings[i].Sensor != want {
			t.Errorf("Readings[%d].Sensor = %q, want %q", i, events.Readings[i].Sensor, want)
		}
	}
	if len(records[8].Readings) != 0 {
		t.Errorf("empty newest_events produced readings: %+v", records[8].Readings)
	}
	if records[9].Sub() || !records[8].Sub() {
		t.Errorf("Sub() misclassified records 8 and 9")
	}
}

func TestFromAppliance(t *testing.T) {
	t.Parallel()

	records := decodeFixture(t, "appliances.json")
	wantKinds := []Kind{
		KindApplianceDevice, KindModel, KindAppliance,
		KindApplianceDevice, KindModel, KindProperty, KindProperty, KindProperty, KindProperty, KindAppliance,
	}
	if len(records) != len(wantKinds) {
		t.Fatalf("got %d records, want %d", len(records), len(wantKinds))
	}
	for i, want := range wantKinds {
		if records[i].Kind != want {
			t.Errorf("records[%d].Kind = %s, want %s", i, records[i].Kind, want)
		}
	}

	if got := records[2].Appliance; got.Type != "AC" || got.Nickname != "てすとエアコン" {
		t.Errorf("AC = %+v", got)
	}
	if got := records[8].Property; got.EPC != 231 || got.Value != "397" {
		t.Errorf("property = %+v", got)
	}
	if records[8].ParentID != "081c5163-ee9e-486e-ba4d-e86a16ea4c9b" {
		t.Errorf("property ParentID = %q", records[8].ParentID)
	}
}

func TestEnv(t *testing.T) {
	t.Parallel()

	records := decodeFixture(t, "appliances.json")

	env := records[5].Env()
	if env["kind"] != "echonetlite_property" || env["epc"] != 215 || env["val"] != "7" {
		t.Fatalf("Env() = %v", env)
	}
	if env["updated_at"] != "2022-10-22T11:38:14Z" {
		t.Fatalf("Env()[updated_at] = %v, want RFC 3339 string", env["updated_at"])
	}

	devices := decodeFixture(t, "devices.json")
	if env := devices[5].Env(); env["te"] != 22.3 || env["mo"] != 1.0 {
		t.Fatalf("newest_events Env() = %v", env)
	}
}

func TestEmptyIDsStayEmpty(t *testing.T) {
	t.Parallel()

	r := FromDevice(&remo.Device{}, nil)
	if r.Device.ID != "" || r.Device.MacAddress != "" {
		t.Fatalf("zero device = %+v, want empty id and mac", r.Device)
	}
}
