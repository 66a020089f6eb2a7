// Package snapshot copies records out of decoder callbacks. The decoders
// hand out views into storage they overwrite, so anything kept past the
// callback goes through a Record.
package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/jacoelho/remo"
)

// Kind names the container a record was closed from.
type Kind string

const (
	KindDevice          Kind = "device"
	KindUser            Kind = "user"
	KindNewestEvents    Kind = "newest_events"
	KindAppliance       Kind = "appliance"
	KindApplianceDevice Kind = "appliance_device"
	KindModel           Kind = "model"
	KindProperty        Kind = "echonetlite_property"
)

type Device struct {
	ID                string    `yaml:"id" cbor:"id"`
	Name              string    `yaml:"name" cbor:"name"`
	FirmwareVersion   string    `yaml:"firmware_version" cbor:"firmware_version"`
	SerialNumber      string    `yaml:"serial_number" cbor:"serial_number"`
	MacAddress        string    `yaml:"mac_address" cbor:"mac_address"`
	BtMacAddress      string    `yaml:"bt_mac_address" cbor:"bt_mac_address"`
	TemperatureOffset float64   `yaml:"temperature_offset" cbor:"temperature_offset"`
	HumidityOffset    float64   `yaml:"humidity_offset" cbor:"humidity_offset"`
	CreatedAt         time.Time `yaml:"created_at" cbor:"created_at"`
	UpdatedAt         time.Time `yaml:"updated_at" cbor:"updated_at"`
}

type User struct {
	ID        string `yaml:"id" cbor:"id"`
	Nickname  string `yaml:"nickname" cbor:"nickname"`
	Superuser bool   `yaml:"superuser" cbor:"superuser"`
}

// Reading is one valid sensor value of a newest_events group.
type Reading struct {
	Sensor    string    `yaml:"sensor" cbor:"sensor"`
	Value     float64   `yaml:"val" cbor:"val"`
	CreatedAt time.Time `yaml:"created_at" cbor:"created_at"`
}

type Appliance struct {
	ID       string `yaml:"id" cbor:"id"`
	Type     string `yaml:"type" cbor:"type"`
	Nickname string `yaml:"nickname" cbor:"nickname"`
	Image    string `yaml:"image" cbor:"image"`
}

type Model struct {
	ID           string `yaml:"id" cbor:"id"`
	Country      string `yaml:"country" cbor:"country"`
	Manufacturer string `yaml:"manufacturer" cbor:"manufacturer"`
	RemoteName   string `yaml:"remote_name" cbor:"remote_name"`
	Series       string `yaml:"series" cbor:"series"`
	Name         string `yaml:"name" cbor:"name"`
	Image        string `yaml:"image" cbor:"image"`
}

type Property struct {
	Name      string    `yaml:"name" cbor:"name"`
	EPC       uint32    `yaml:"epc" cbor:"epc"`
	Value     string    `yaml:"val" cbor:"val"`
	UpdatedAt time.Time `yaml:"updated_at" cbor:"updated_at"`
}

// Record is an owned copy of one callback. Exactly one of the pointer
// fields is set, except for KindNewestEvents which carries Readings.
// ParentID is the id of the enclosing device or appliance as far as it had
// been read when the record closed.
type Record struct {
	Kind      Kind       `yaml:"kind" cbor:"kind"`
	ParentID  string     `yaml:"parent_id,omitempty" cbor:"parent_id,omitempty"`
	Device    *Device    `yaml:"device,omitempty" cbor:"device,omitempty"`
	User      *User      `yaml:"user,omitempty" cbor:"user,omitempty"`
	Readings  []Reading  `yaml:"readings,omitempty" cbor:"readings,omitempty"`
	Appliance *Appliance `yaml:"appliance,omitempty" cbor:"appliance,omitempty"`
	Model     *Model     `yaml:"model,omitempty" cbor:"model,omitempty"`
	Property  *Property  `yaml:"property,omitempty" cbor:"property,omitempty"`
}

// Sub reports whether r was delivered as a sub-record of its parent.
func (r Record) Sub() bool {
	return r.Kind != KindDevice && r.Kind != KindAppliance
}

// FromDevice copies a device callback.
func FromDevice(d *remo.Device, sub remo.DeviceSubNode) Record {
	switch s := sub.(type) {
	case *remo.User:
		return Record{
			Kind:     KindUser,
			ParentID: id(d.ID),
			User: &User{
				ID:        id(s.ID),
				Nickname:  s.Nickname.String(),
				Superuser: s.Superuser,
			},
		}
	case *remo.NewestEvents:
		return Record{
			Kind:     KindNewestEvents,
			ParentID: id(d.ID),
			Readings: readings(s),
		}
	default:
		return Record{Kind: KindDevice, Device: device(d)}
	}
}

// FromAppliance copies an appliance callback.
func FromAppliance(a *remo.Appliance, sub remo.ApplianceSubNode) Record {
	switch s := sub.(type) {
	case *remo.Device:
		return Record{Kind: KindApplianceDevice, ParentID: id(a.ID), Device: device(s)}
	case *remo.ApplianceModel:
		return Record{
			Kind:     KindModel,
			ParentID: id(a.ID),
			Model: &Model{
				ID:           id(s.ID),
				Country:      s.Country.String(),
				Manufacturer: s.Manufacturer.String(),
				RemoteName:   s.RemoteName.String(),
				Series:       s.Series.String(),
				Name:         s.Name.String(),
				Image:        s.Image.String(),
			},
		}
	case *remo.EchonetLiteProperty:
		return Record{
			Kind:     KindProperty,
			ParentID: id(a.ID),
			Property: &Property{
				Name:      s.Name.String(),
				EPC:       s.EPC,
				Value:     s.Value.String(),
				UpdatedAt: s.UpdatedAt,
			},
		}
	default:
		return Record{
			Kind: KindAppliance,
			Appliance: &Appliance{
				ID:       id(a.ID),
				Type:     a.Type.String(),
				Nickname: a.Nickname.String(),
				Image:    a.Image.String(),
			},
		}
	}
}

func device(d *remo.Device) *Device {
	return &Device{
		ID:                id(d.ID),
		Name:              d.Name.String(),
		FirmwareVersion:   d.FirmwareVersion.String(),
		SerialNumber:      d.SerialNumber.String(),
		MacAddress:        mac(d.MacAddress),
		BtMacAddress:      mac(d.BtMacAddress),
		TemperatureOffset: d.TemperatureOffset,
		HumidityOffset:    d.HumidityOffset,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

var sensors = [...]remo.SensorKind{remo.Temperature, remo.Humidity, remo.Illumination, remo.Motion}

func readings(e *remo.NewestEvents) []Reading {
	var out []Reading
	for _, kind := range sensors {
		v := e.Sensor(kind)
		if !v.Valid {
			continue
		}
		out = append(out, Reading{Sensor: kind.String(), Value: v.Value, CreatedAt: v.CreatedAt})
	}
	return out
}

// id renders the nil UUID as empty so absent ids stay absent in output.
func id(u uuid.UUID) string {
	if u == uuid.Nil {
		return ""
	}
	return u.String()
}

func mac(m remo.MacAddress) string {
	if m == (remo.MacAddress{}) {
		return ""
	}
	return m.String()
}
