package remo

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jacoelho/remo/bounded"
	"github.com/jacoelho/remo/event"
)

// Scalar conversions. Each setter leaves dst untouched and returns nil when
// the scalar is not of the kind the field expects.

func setText(dst *bounded.String, v event.Scalar, capacity int, policy bounded.Policy) error {
	if v.Kind != event.String {
		return nil
	}
	return dst.Set(v.Str, capacity, policy)
}

func setUUID(dst *uuid.UUID, v event.Scalar) error {
	if v.Kind != event.String {
		return nil
	}
	id, err := uuid.Parse(v.Str)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUUIDParse, v.Str)
	}
	*dst = id
	return nil
}

func setTimestamp(dst *time.Time, v event.Scalar) error {
	if v.Kind != event.String {
		return nil
	}
	ts, err := ParseTimestamp(v.Str)
	if err != nil {
		return err
	}
	*dst = ts
	return nil
}

// ParseTimestamp parses an RFC 3339 timestamp such as "2022-10-14T05:51:30Z"
// and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampParse, s)
	}
	return ts.UTC(), nil
}

func setMacAddress(dst *MacAddress, v event.Scalar) error {
	if v.Kind != event.String {
		return nil
	}
	mac, err := ParseMacAddress(v.Str)
	if err != nil {
		return err
	}
	*dst = mac
	return nil
}

func setFloat(dst *float64, v event.Scalar) error {
	if v.Kind == event.Number {
		*dst = v.Float
	}
	return nil
}

func setBool(dst *bool, v event.Scalar) error {
	if v.Kind == event.Bool {
		*dst = v.Bool
	}
	return nil
}

// setCode accepts integer numbers within uint32 range only.
func setCode(dst *uint32, v event.Scalar) error {
	if v.Kind == event.Number && v.IsInt && v.Int >= 0 && v.Int <= math.MaxUint32 {
		*dst = uint32(v.Int)
	}
	return nil
}

func setApplianceType(dst *ApplianceType, v event.Scalar) error {
	if v.Kind != event.String {
		return nil
	}
	t, err := ParseApplianceType(v.Str)
	if err != nil {
		return err
	}
	*dst = t
	return nil
}

// field assigns one scalar to a record of type T.
type field[T any] func(rec *T, v event.Scalar, policy bounded.Policy) error

// fields is the assignment table of a record, indexed by Key. Keys without
// an entry are ignored.
type fields[T any] [keyCount]field[T]

func (t *fields[T]) apply(rec *T, key Key, hasKey bool, v event.Scalar, policy bounded.Policy) error {
	if !hasKey || key >= keyCount || t[key] == nil {
		return nil
	}
	if err := t[key](rec, v, policy); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

var deviceFields = fields[Device]{
	KeyName: func(d *Device, v event.Scalar, p bounded.Policy) error {
		return setText(&d.Name, v, MaxDeviceNameLen, p)
	},
	KeyID: func(d *Device, v event.Scalar, _ bounded.Policy) error {
		return setUUID(&d.ID, v)
	},
	KeyCreatedAt: func(d *Device, v event.Scalar, _ bounded.Policy) error {
		return setTimestamp(&d.CreatedAt, v)
	},
	KeyUpdatedAt: func(d *Device, v event.Scalar, _ bounded.Policy) error {
		return setTimestamp(&d.UpdatedAt, v)
	},
	KeyMacAddress: func(d *Device, v event.Scalar, _ bounded.Policy) error {
		return setMacAddress(&d.MacAddress, v)
	},
	KeyBtMacAddress: func(d *Device, v event.Scalar, _ bounded.Policy) error {
		return setMacAddress(&d.BtMacAddress, v)
	},
	KeySerialNumber: func(d *Device, v event.Scalar, p bounded.Policy) error {
		return setText(&d.SerialNumber, v, SerialNumberLen, p)
	},
	KeyFirmwareVersion: func(d *Device, v event.Scalar, p bounded.Policy) error {
		return setText(&d.FirmwareVersion, v, MaxFirmwareVersionLen, p)
	},
	KeyTemperatureOffset: func(d *Device, v event.Scalar, _ bounded.Policy) error {
		return setFloat(&d.TemperatureOffset, v)
	},
	KeyHumidityOffset: func(d *Device, v event.Scalar, _ bounded.Policy) error {
		return setFloat(&d.HumidityOffset, v)
	},
}

var userFields = fields[User]{
	KeyID: func(u *User, v event.Scalar, _ bounded.Policy) error {
		return setUUID(&u.ID, v)
	},
	KeyNickname: func(u *User, v event.Scalar, p bounded.Policy) error {
		return setText(&u.Nickname, v, MaxNicknameLen, p)
	},
	KeySuperuser: func(u *User, v event.Scalar, _ bounded.Policy) error {
		return setBool(&u.Superuser, v)
	},
}

var sensorFields = fields[SensorValue]{
	KeyVal: func(s *SensorValue, v event.Scalar, _ bounded.Policy) error {
		return setFloat(&s.Value, v)
	},
	KeyCreatedAt: func(s *SensorValue, v event.Scalar, _ bounded.Policy) error {
		return setTimestamp(&s.CreatedAt, v)
	},
}

var applianceFields = fields[Appliance]{
	KeyID: func(a *Appliance, v event.Scalar, _ bounded.Policy) error {
		return setUUID(&a.ID, v)
	},
	KeyType: func(a *Appliance, v event.Scalar, _ bounded.Policy) error {
		return setApplianceType(&a.Type, v)
	},
	KeyNickname: func(a *Appliance, v event.Scalar, p bounded.Policy) error {
		return setText(&a.Nickname, v, MaxNicknameLen, p)
	},
	KeyImage: func(a *Appliance, v event.Scalar, p bounded.Policy) error {
		return setText(&a.Image, v, MaxImageLen, p)
	},
}

var modelFields = fields[ApplianceModel]{
	KeyID: func(m *ApplianceModel, v event.Scalar, _ bounded.Policy) error {
		return setUUID(&m.ID, v)
	},
	KeyCountry: func(m *ApplianceModel, v event.Scalar, p bounded.Policy) error {
		return setText(&m.Country, v, MaxCountryLen, p)
	},
	KeyManufacturer: func(m *ApplianceModel, v event.Scalar, p bounded.Policy) error {
		return setText(&m.Manufacturer, v, MaxManufacturerLen, p)
	},
	KeyRemoteName: func(m *ApplianceModel, v event.Scalar, p bounded.Policy) error {
		return setText(&m.RemoteName, v, MaxRemoteNameLen, p)
	},
	KeySeries: func(m *ApplianceModel, v event.Scalar, p bounded.Policy) error {
		return setText(&m.Series, v, MaxSeriesLen, p)
	},
	KeyName: func(m *ApplianceModel, v event.Scalar, p bounded.Policy) error {
		return setText(&m.Name, v, MaxModelNameLen, p)
	},
	KeyImage: func(m *ApplianceModel, v event.Scalar, p bounded.Policy) error {
		return setText(&m.Image, v, MaxImageLen, p)
	},
}

var echonetFields = fields[EchonetLiteProperty]{
	KeyName: func(e *EchonetLiteProperty, v event.Scalar, p bounded.Policy) error {
		return setText(&e.Name, v, MaxEchonetLiteNameLen, p)
	},
	KeyEPC: func(e *EchonetLiteProperty, v event.Scalar, _ bounded.Policy) error {
		return setCode(&e.EPC, v)
	},
	KeyVal: func(e *EchonetLiteProperty, v event.Scalar, p bounded.Policy) error {
		return setText(&e.Value, v, MaxEchonetLiteValueLen, p)
	},
	KeyUpdatedAt: func(e *EchonetLiteProperty, v event.Scalar, _ bounded.Policy) error {
		return setTimestamp(&e.UpdatedAt, v)
	},
}
