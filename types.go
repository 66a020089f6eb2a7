package remo

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jacoelho/remo/bounded"
)

// Device is a Remo device as listed by GET /1/devices.
type Device struct {
	ID                uuid.UUID
	Name              bounded.String
	TemperatureOffset float64
	HumidityOffset    float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	FirmwareVersion   bounded.String
	MacAddress        MacAddress
	BtMacAddress      MacAddress
	SerialNumber      bounded.String
}

// User is an entry of a device's users array.
type User struct {
	ID        uuid.UUID
	Nickname  bounded.String
	Superuser bool
}

// SensorValue is one reading of newest_events. Valid is false when the
// device did not report the sensor.
type SensorValue struct {
	Value     float64
	CreatedAt time.Time
	Valid     bool
}

// SensorKind names a sensor group of newest_events.
type SensorKind uint8

const (
	Temperature SensorKind = iota
	Humidity
	Illumination
	Motion
)

func (k SensorKind) String() string {
	switch k {
	case Temperature:
		return "te"
	case Humidity:
		return "hu"
	case Illumination:
		return "il"
	case Motion:
		return "mo"
	default:
		return fmt.Sprintf("SensorKind(%d)", uint8(k))
	}
}

// NewestEvents holds the latest reading of every sensor of a device.
type NewestEvents struct {
	Temperature  SensorValue
	Humidity     SensorValue
	Illumination SensorValue
	Motion       SensorValue
}

// Sensor returns the reading slot of kind.
func (e *NewestEvents) Sensor(kind SensorKind) *SensorValue {
	switch kind {
	case Temperature:
		return &e.Temperature
	case Humidity:
		return &e.Humidity
	case Illumination:
		return &e.Illumination
	case Motion:
		return &e.Motion
	default:
		return nil
	}
}

// ApplianceType is the category tag of an appliance.
type ApplianceType uint8

const (
	ApplianceTypeUnset ApplianceType = iota
	ApplianceTypeAC
	ApplianceTypeTV
	ApplianceTypeLight
	ApplianceTypeIR
	ApplianceTypeSmartMeter
	ApplianceTypeElectricWaterHeater
	ApplianceTypePowerDistMeter
	ApplianceTypeEVCD
	ApplianceTypeSolarPower
	ApplianceTypeStorageBattery
	ApplianceTypeQrioLock
	ApplianceTypeMorninPlus
)

var applianceTypeNames = [...]string{
	ApplianceTypeUnset:               "",
	ApplianceTypeAC:                  "AC",
	ApplianceTypeTV:                  "TV",
	ApplianceTypeLight:               "LIGHT",
	ApplianceTypeIR:                  "IR",
	ApplianceTypeSmartMeter:          "EL_SMART_METER",
	ApplianceTypeElectricWaterHeater: "EL_ELECTRIC_WATER_HEATER",
	ApplianceTypePowerDistMeter:      "EL_POWER_DIST_METER",
	ApplianceTypeEVCD:                "EL_EVCD",
	ApplianceTypeSolarPower:          "EL_SOLAR_POWER",
	ApplianceTypeStorageBattery:      "EL_STORAGE_BATTERY",
	ApplianceTypeQrioLock:            "QRIO_LOCK",
	ApplianceTypeMorninPlus:          "MORNIN_PLUS",
}

// ParseApplianceType matches the wire tag exactly.
func ParseApplianceType(s string) (ApplianceType, error) {
	for t, name := range applianceTypeNames {
		if t != int(ApplianceTypeUnset) && name == s {
			return ApplianceType(t), nil
		}
	}
	return ApplianceTypeUnset, fmt.Errorf("%w: appliance type %q", ErrUnexpectedEnumValue, s)
}

// String returns the wire tag.
func (t ApplianceType) String() string {
	if int(t) < len(applianceTypeNames) {
		return applianceTypeNames[t]
	}
	return fmt.Sprintf("ApplianceType(%d)", uint8(t))
}

// Appliance is an appliance as listed by GET /1/appliances.
type Appliance struct {
	ID       uuid.UUID
	Type     ApplianceType
	Nickname bounded.String
	Image    bounded.String
}

// ApplianceModel is the model embedded in an appliance.
type ApplianceModel struct {
	ID           uuid.UUID
	Country      bounded.String
	Manufacturer bounded.String
	RemoteName   bounded.String
	Series       bounded.String
	Name         bounded.String
	Image        bounded.String
}

// EchonetLiteProperty is one property reported by a smart meter.
type EchonetLiteProperty struct {
	Name      bounded.String
	EPC       uint32
	Value     bounded.String
	UpdatedAt time.Time
}

// DeviceSubNode is a sub-record completed while decoding a device:
// *User or *NewestEvents.
type DeviceSubNode interface {
	deviceSubNode()
}

func (*User) deviceSubNode()         {}
func (*NewestEvents) deviceSubNode() {}

// ApplianceSubNode is a sub-record completed while decoding an appliance:
// *Device, *ApplianceModel or *EchonetLiteProperty.
type ApplianceSubNode interface {
	applianceSubNode()
}

func (*Device) applianceSubNode()              {}
func (*ApplianceModel) applianceSubNode()      {}
func (*EchonetLiteProperty) applianceSubNode() {}

// DeviceFunc receives every completed device record and sub-record.
//
// sub is nil when the device itself is complete. Both pointers refer to
// storage the decoder reuses for the next record: they are only valid until
// the function returns, and anything needed later must be copied out.
// A non-nil error aborts the decode and is returned unchanged.
type DeviceFunc func(device *Device, sub DeviceSubNode) error

// ApplianceFunc is the appliance counterpart of DeviceFunc.
type ApplianceFunc func(appliance *Appliance, sub ApplianceSubNode) error
