package remo

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jacoelho/remo/bounded"
	"github.com/jacoelho/remo/event"
)

type deviceCall struct {
	device Device
	user   *User
	events *NewestEvents
}

func (c deviceCall) kind() string {
	switch {
	case c.user != nil:
		return "user"
	case c.events != nil:
		return "newest_events"
	default:
		return "device"
	}
}

func recordDevices(calls *[]deviceCall) DeviceFunc {
	return func(device *Device, sub DeviceSubNode) error {
		call := deviceCall{device: *device}
		switch s := sub.(type) {
		case *User:
			u := *s
			call.user = &u
		case *NewestEvents:
			e := *s
			call.events = &e
		}
		*calls = append(*calls, call)
		return nil
	}
}

func decodeDevicesString(t *testing.T, input string, opts Options) ([]deviceCall, error) {
	t.Helper()

	var calls []deviceCall
	err := DecodeDevices(strings.NewReader(input), int64(len(input)), opts, recordDevices(&calls))
	return calls, err
}

func mustTimestamp(t *testing.T, s string) time.Time {
	t.Helper()

	ts, err := ParseTimestamp(s)
	if err != nil {
		t.Fatalf("ParseTimestamp(%q) unexpected error: %v", s, err)
	}
	return ts
}

func compareDevice(t *testing.T, got, want Device) {
	t.Helper()

	if got.ID != want.ID {
		t.Errorf("ID = %s, want %s", got.ID, want.ID)
	}
	if got.Name != want.Name {
		t.Errorf("Name = %q, want %q", got.Name, want.Name)
	}
	if got.TemperatureOffset != want.TemperatureOffset {
		t.Errorf("TemperatureOffset = %v, want %v", got.TemperatureOffset, want.TemperatureOffset)
	}
	if got.HumidityOffset != want.HumidityOffset {
		t.Errorf("HumidityOffset = %v, want %v", got.HumidityOffset, want.HumidityOffset)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, want.UpdatedAt)
	}
	if got.FirmwareVersion != want.FirmwareVersion {
		t.Errorf("FirmwareVersion = %q, want %q", got.FirmwareVersion, want.FirmwareVersion)
	}
	if got.MacAddress != want.MacAddress {
		t.Errorf("MacAddress = %s, want %s", got.MacAddress, want.MacAddress)
	}
	if got.BtMacAddress != want.BtMacAddress {
		t.Errorf("BtMacAddress = %s, want %s", got.BtMacAddress, want.BtMacAddress)
	}
	if got.SerialNumber != want.SerialNumber {
		t.Errorf("SerialNumber = %q, want %q", got.SerialNumber, want.SerialNumber)
	}
}

func TestDecodeDevicesEmpty(t *testing.T) {
	t.Parallel()

	err := DecodeDevices(strings.NewReader("\n  [\n  ]\n  "), -1, Options{}, func(*Device, DeviceSubNode) error {
		t.Fatal("callback must not be called for empty devices")
		return nil
	})
	if err != nil {
		t.Fatalf("DecodeDevices() unexpected error: %v", err)
	}
}

func TestDecodeDevicesFixture(t *testing.T) {
	t.Parallel()

	f, err := os.Open("testdata/devices.json")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}

	var calls []deviceCall
	if err := DecodeDevices(f, info.Size(), Options{}, recordDevices(&calls)); err != nil {
		t.Fatalf("DecodeDevices() unexpected error: %v", err)
	}

	wantKinds := []string{
		"user", "newest_events", "device",
		"user", "user", "newest_events", "device",
		"user", "newest_events", "device",
	}
	if len(calls) != len(wantKinds) {
		t.Fatalf("got %d callbacks, want %d", len(calls), len(wantKinds))
	}
	for i, want := range wantKinds {
		if got := calls[i].kind(); got != want {
			t.Errorf("callback %d kind = %s, want %s", i, got, want)
		}
	}

	wantDevices := []Device{
		{
			ID:                uuid.MustParse("f262cb0c-a853-47bb-9559-44d0f2c4d6e2"),
			Name:              bounded.Of("test remo device hoge"),
			TemperatureOffset: -0.5,
			HumidityOffset:    1.5,
			CreatedAt:         mustTimestamp(t, "2022-10-18T06:42:59Z"),
			UpdatedAt:         mustTimestamp(t, "2022-10-19T05:22:28Z"),
			FirmwareVersion:   bounded.Of("Remo-mini/1.10.0"),
			MacAddress:        MustParseMacAddress("e8:db:84:00:11:22"),
			BtMacAddress:      MustParseMacAddress("e8:db:84:22:33:44"),
			SerialNumber:      bounded.Of("2B012345678901"),
		},
		{
			ID:                uuid.MustParse("12948215-568a-49ca-be45-c556e8140c56"),
			Name:              bounded.Of("Remo"),
			TemperatureOffset: 1,
			CreatedAt:         mustTimestamp(t, "2022-10-07T05:57:52Z"),
			UpdatedAt:         mustTimestamp(t, "2022-10-07T05:57:52Z"),
			FirmwareVersion:   bounded.Of("Remo/1.10.0"),
			MacAddress:        MustParseMacAddress("24:6f:28:00:11:22"),
			BtMacAddress:      MustParseMacAddress("24:6f:28:22:33:44"),
			SerialNumber:      bounded.Of("1W012345678901"),
		},
		{
			ID:              uuid.MustParse("b08bdb7b-a2ad-4c3c-88f6-68645ae98077"),
			Name:            bounded.Of("Remo E lite"),
			CreatedAt:       mustTimestamp(t, "2022-08-22T05:51:50Z"),
			UpdatedAt:       mustTimestamp(t, "2022-10-03T04:16:16Z"),
			FirmwareVersion: bounded.Of("Remo-E-lite/1.7.4"),
			MacAddress:      MustParseMacAddress("f0:08:d1:00:11:22"),
			BtMacAddress:    MustParseMacAddress("f0:08:d1:22:33:44"),
			SerialNumber:    bounded.Of("4W012345678901"),
		},
	}

	var devices []Device
	for _, c := range calls {
		if c.kind() == "device" {
			devices = append(devices, c.device)
		}
	}
	for i, want := range wantDevices {
		compareDevice(t, devices[i], want)
	}

	fuga := calls[4].user
	if fuga.ID != uuid.MustParse("7d1e9f20-5b3a-4c8e-a6d4-0f9e8d7c6b5a") || !fuga.Nickname.Equal("fuga") || fuga.Superuser {
		t.Errorf("second user of Remo = %+v", fuga)
	}
	if !calls[3].user.Superuser || !calls[3].user.Nickname.Equal("hoge") {
		t.Errorf("first user of Remo = %+v", calls[3].user)
	}
	if !calls[4].device.Name.Equal("Remo") {
		t.Errorf("user callback device = %q, want Remo", calls[4].device.Name)
	}

	mini := calls[1].events
	if !mini.Temperature.Valid || mini.Temperature.Value != 24.5 {
		t.Errorf("Remo mini temperature = %+v", mini.Temperature)
	}
	if !mini.Temperature.CreatedAt.Equal(mustTimestamp(t, "2022-10-19T05:20:00Z")) {
		t.Errorf("Remo mini temperature time = %v", mini.Temperature.CreatedAt)
	}
	if mini.Humidity.Valid || mini.Illumination.Valid || mini.Motion.Valid {
		t.Errorf("Remo mini reported sensors it does not have: %+v", mini)
	}

	remo := calls[5].events
	checks := []struct {
		kind  SensorKind
		value float64
	}{
		{Temperature, 22.3},
		{Humidity, 48},
		{Illumination, 120.2},
		{Motion, 1},
	}
	for _, c := range checks {
		got := remo.Sensor(c.kind)
		if !got.Valid || got.Value != c.value {
			t.Errorf("Remo %s = %+v, want %v", c.kind, got, c.value)
		}
	}

	if lite := calls[8].events; *lite != (NewestEvents{}) {
		t.Errorf("Remo E lite newest_events = %+v, want empty", lite)
	}
}

func TestDecodeDevicesStringOverflow(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", MaxDeviceNameLen+10)
	input := `[{"name": "first"}, {"name": "` + long + `", "serial_number": "S"}, {"name": "third"}]`

	t.Run("truncate", func(t *testing.T) {
		t.Parallel()

		calls, err := decodeDevicesString(t, input, Options{Overflow: bounded.Truncate})
		if err != nil {
			t.Fatalf("DecodeDevices() unexpected error: %v", err)
		}
		if len(calls) != 3 {
			t.Fatalf("got %d callbacks, want 3", len(calls))
		}
		if got := calls[1].device.Name.String(); got != long[:MaxDeviceNameLen] {
			t.Fatalf("Name = %q, want first %d characters", got, MaxDeviceNameLen)
		}
		if !calls[1].device.SerialNumber.Equal("S") {
			t.Fatalf("SerialNumber = %q, want S", calls[1].device.SerialNumber)
		}
	})

	t.Run("reject", func(t *testing.T) {
		t.Parallel()

		calls, err := decodeDevicesString(t, input, Options{Overflow: bounded.Reject})
		if !errors.Is(err, ErrStringTooLong) {
			t.Fatalf("DecodeDevices() error = %v, want %v", err, ErrStringTooLong)
		}
		if len(calls) != 1 {
			t.Fatalf("got %d callbacks, want 1 before the error", len(calls))
		}
	})
}

func TestDecodeDevicesMalformedScalars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "mac_dot_separator", input: `[{"mac_address": "c8.2b.96.00.11.22"}]`, wantErr: ErrMacAddressParse},
		{name: "mac_non_hex", input: `[{"bt_mac_address": "c8:2b:96:00:11:zz"}]`, wantErr: ErrMacAddressParse},
		{name: "uuid", input: `[{"id": "not-a-uuid"}]`, wantErr: ErrUUIDParse},
		{name: "user_uuid", input: `[{"users": [{"id": "1234"}]}]`, wantErr: ErrUUIDParse},
		{name: "timestamp", input: `[{"created_at": "2022-10-14 05:51:30"}]`, wantErr: ErrTimestampParse},
		{name: "sensor_timestamp", input: `[{"newest_events": {"te": {"created_at": "yesterday"}}}]`, wantErr: ErrTimestampParse},
		{name: "newest_events_type", input: `[{"newest_events": {"co2": {"val": 400}}}]`, wantErr: ErrUnknownNewestEventsType},
		{name: "newest_events_array", input: `[{"newest_events": {"te": []}}]`, wantErr: ErrUnknownNewestEventsType},
		{name: "top_level_object", input: `{"devices": []}`, wantErr: ErrUnexpectedNode},
		{name: "scalar_in_users", input: `[{"users": ["hoge"]}]`, wantErr: ErrUnexpectedNode},
		{name: "scalar_in_devices", input: `[1]`, wantErr: ErrUnexpectedNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls, err := decodeDevicesString(t, tt.input, Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DecodeDevices(%s) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if len(calls) != 0 {
				t.Fatalf("got %d callbacks, want none", len(calls))
			}
		})
	}
}

func TestDecodeDevicesIgnoresKindMismatch(t *testing.T) {
	t.Parallel()

	input := `[{"name": 5, "temperature_offset": "warm", "mac_address": null, "firmware_version": "Remo/1.0",
		"users": [{"superuser": "yes", "nickname": false}]}]`

	calls, err := decodeDevicesString(t, input, Options{})
	if err != nil {
		t.Fatalf("DecodeDevices() unexpected error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("got %d callbacks, want 2", len(calls))
	}
	d := calls[1].device
	if d.Name.Len() != 0 || d.TemperatureOffset != 0 || d.MacAddress != (MacAddress{}) {
		t.Errorf("mismatched kinds were applied: %+v", d)
	}
	if !d.FirmwareVersion.Equal("Remo/1.0") {
		t.Errorf("FirmwareVersion = %q, want Remo/1.0", d.FirmwareVersion)
	}
	if u := calls[0].user; u.Superuser || u.Nickname.Len() != 0 {
		t.Errorf("mismatched kinds were applied to user: %+v", u)
	}
}

func TestDecodeDevicesIgnoresScalarInNewestEvents(t *testing.T) {
	t.Parallel()

	input := `[{"newest_events": {"updated": "2022-10-19T05:20:00Z", "te": {"val": 21.5}, "count": 3}}]`

	calls, err := decodeDevicesString(t, input, Options{})
	if err != nil {
		t.Fatalf("DecodeDevices() unexpected error: %v", err)
	}
	if len(calls) != 2 || calls[0].events == nil {
		t.Fatalf("got %d callbacks, want newest_events then device", len(calls))
	}
	events := calls[0].events
	if !events.Temperature.Valid || events.Temperature.Value != 21.5 {
		t.Errorf("Temperature = %+v, want 21.5", events.Temperature)
	}
	if events.Humidity.Valid || events.Illumination.Valid || events.Motion.Valid {
		t.Errorf("scalars under newest_events produced readings: %+v", events)
	}
}

// nest returns levels of alternating unknown containers around a scalar.
func nest(levels int, mapFirst bool) string {
	if levels == 0 {
		return `1`
	}
	inner := nest(levels-1, !mapFirst)
	if mapFirst {
		return `{"k": ` + inner + `, "name": "inner"}`
	}
	return `[` + inner + `, "name"]`
}

func TestDecodeDevicesSkipsUnknownSubtrees(t *testing.T) {
	t.Parallel()

	input := `[{"name": "Remo", "settings": ` + nest(5, true) +
		`, "tags": ` + nest(4, false) +
		`, "users": [{"nickname": "hoge", "profile": {"x": [[{}], []]}, "id": "3a8c2d5e-1f6b-4c7d-9e0a-b1c2d3e4f5a6"}]` +
		`, "newest_events": {"te": {"val": 20, "meta": {"a": [1, 2]}, "created_at": "2022-10-19T05:20:00Z"}}` +
		`, "serial_number": "1W012345678901"}, [{"ignored": true}]]`

	calls, err := decodeDevicesString(t, input, Options{})
	if err != nil {
		t.Fatalf("DecodeDevices() unexpected error: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("got %d callbacks, want 3", len(calls))
	}

	d := calls[2].device
	if !d.Name.Equal("Remo") || !d.SerialNumber.Equal("1W012345678901") {
		t.Errorf("device = %+v, want name and serial after unknown subtrees", d)
	}
	if u := calls[0].user; !u.Nickname.Equal("hoge") || u.ID == uuid.Nil {
		t.Errorf("user = %+v, want fields on both sides of unknown subtree", u)
	}
	if te := calls[1].events.Temperature; te.Value != 20 || te.CreatedAt.IsZero() {
		t.Errorf("temperature = %+v, want fields on both sides of unknown subtree", te)
	}
}

func TestDecodeDevicesDepthBoundary(t *testing.T) {
	t.Parallel()

	// The devices array and the device map hold two stack entries.
	maxUnknown := MaxDepth - 2

	for _, mapFirst := range []bool{true, false} {
		ok := `[{"extra": ` + nest(maxUnknown, mapFirst) + `, "name": "after"}]`
		calls, err := decodeDevicesString(t, ok, Options{})
		if err != nil {
			t.Fatalf("nesting %d (mapFirst=%v) unexpected error: %v", maxUnknown, mapFirst, err)
		}
		if len(calls) != 1 || !calls[0].device.Name.Equal("after") {
			t.Fatalf("nesting %d (mapFirst=%v) callbacks = %+v", maxUnknown, mapFirst, calls)
		}

		deep := `[{"name": "first"}, {"extra": ` + nest(maxUnknown+1, mapFirst) + `}, {"name": "never"}]`
		calls, err = decodeDevicesString(t, deep, Options{})
		if !errors.Is(err, ErrNodeTooDeep) {
			t.Fatalf("nesting %d (mapFirst=%v) error = %v, want %v", maxUnknown+1, mapFirst, err, ErrNodeTooDeep)
		}
		if len(calls) != 1 {
			t.Fatalf("nesting %d (mapFirst=%v) got %d callbacks, want 1", maxUnknown+1, mapFirst, len(calls))
		}
	}
}

func TestDecodeDevicesCallbackError(t *testing.T) {
	t.Parallel()

	stop := errors.New("stop")
	count := 0
	err := DecodeDevices(strings.NewReader(`[{"name": "a"}, {"name": "b"}]`), -1, Options{}, func(*Device, DeviceSubNode) error {
		count++
		return stop
	})
	if err != stop {
		t.Fatalf("DecodeDevices() error = %v, want %v unchanged", err, stop)
	}
	if count != 1 {
		t.Fatalf("callback called %d times, want 1", count)
	}
}

type errReader struct {
	data []byte
	err  error
}

func (r *errReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestDecodeDevicesReaderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	r := &errReader{data: []byte(`[{"name": "a"}, {"na`), err: boom}

	err := DecodeDevices(r, -1, Options{}, func(*Device, DeviceSubNode) error { return nil })
	if !errors.Is(err, boom) {
		t.Fatalf("DecodeDevices() error = %v, want %v", err, boom)
	}
}

func TestDecodeDevicesDeclaredLength(t *testing.T) {
	t.Parallel()

	body := `[{"name": "Remo"}]`
	r := &errReader{data: []byte(body + `garbage`), err: io.EOF}

	var calls []deviceCall
	if err := DecodeDevices(r, int64(len(body)), Options{}, recordDevices(&calls)); err != nil {
		t.Fatalf("DecodeDevices() unexpected error: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("got %d callbacks, want 1", len(calls))
	}
}

// sliceSource replays events, then io.EOF.
type sliceSource []event.Event

func (s *sliceSource) Next() (event.Event, error) {
	if len(*s) == 0 {
		return event.Event{}, io.EOF
	}
	ev := (*s)[0]
	*s = (*s)[1:]
	return ev, nil
}

func TestDeviceDecoderStructuralErrors(t *testing.T) {
	t.Parallel()

	start := func(k event.Kind) event.Event { return event.Event{Kind: k} }

	tests := []struct {
		name    string
		events  []event.Event
		wantErr error
	}{
		{name: "close_at_start", events: []event.Event{start(event.EndArray)}, wantErr: ErrUnexpectedMapArrayEnd},
		{name: "mismatched_close", events: []event.Event{start(event.StartArray), start(event.EndObject)}, wantErr: ErrUnexpectedMapArrayEnd},
		{name: "mismatched_unknown_close", events: []event.Event{
			start(event.StartArray), start(event.StartObject),
			{Kind: event.Key, Scalar: event.StringScalar("extra")},
			start(event.StartArray), start(event.EndObject),
		}, wantErr: ErrUnexpectedMapArrayEnd},
		{name: "truncated", events: []event.Event{start(event.StartArray), start(event.StartObject)}, wantErr: io.ErrUnexpectedEOF},
		{name: "scalar_at_start", events: []event.Event{{Kind: event.Value, Scalar: event.BoolScalar(true)}}, wantErr: ErrUnexpectedNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := sliceSource(tt.events)
			err := NewDeviceDecoder(Options{}).Decode(&src, func(*Device, DeviceSubNode) error { return nil })
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeviceDecoderNonStringKeyIgnored(t *testing.T) {
	t.Parallel()

	src := sliceSource{
		{Kind: event.StartArray},
		{Kind: event.StartObject},
		{Kind: event.Key, Scalar: event.StringScalar("name")},
		{Kind: event.Key, Scalar: event.IntScalar(7)},
		{Kind: event.Value, Scalar: event.StringScalar("Remo")},
		{Kind: event.EndObject},
		{Kind: event.EndArray},
	}

	var calls []deviceCall
	if err := NewDeviceDecoder(Options{}).Decode(&src, recordDevices(&calls)); err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if len(calls) != 1 || !calls[0].device.Name.Equal("Remo") {
		t.Fatalf("callbacks = %+v, want device named Remo", calls)
	}
}

func TestDeviceDecoderReuse(t *testing.T) {
	t.Parallel()

	dec := NewDeviceDecoder(Options{})

	var first []deviceCall
	if err := dec.Decode(event.NewDecoder(strings.NewReader(`[{"name": "Remo", "humidity_offset": 2}]`), -1), recordDevices(&first)); err != nil {
		t.Fatalf("first Decode() unexpected error: %v", err)
	}

	var second []deviceCall
	if err := dec.Decode(event.NewDecoder(strings.NewReader(`[{"serial_number": "S"}]`), -1), recordDevices(&second)); err != nil {
		t.Fatalf("second Decode() unexpected error: %v", err)
	}
	got := second[0].device
	if got.Name.Len() != 0 || got.HumidityOffset != 0 || !got.SerialNumber.Equal("S") {
		t.Fatalf("second document leaked fields from the first: %+v", got)
	}
}

func TestDeviceDecoderReentrant(t *testing.T) {
	t.Parallel()

	dec := NewDeviceDecoder(Options{})
	var inner error
	err := dec.Decode(event.NewDecoder(strings.NewReader(`[{}]`), -1), func(*Device, DeviceSubNode) error {
		inner = dec.Decode(event.NewDecoder(strings.NewReader(`[]`), -1), func(*Device, DeviceSubNode) error { return nil })
		return nil
	})
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if !errors.Is(inner, ErrDecoderBusy) {
		t.Fatalf("nested Decode() error = %v, want %v", inner, ErrDecoderBusy)
	}
}

func TestDecodeDevicesLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := decodeDevicesString(t, `[{"extra": {"x": 1}, "name": "Remo"}]`, Options{Logger: logger})
	if err != nil {
		t.Fatalf("DecodeDevices() unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"skipping unknown subtree", "context=DeviceMap", "decoded", "records=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
