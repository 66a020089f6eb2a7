package remo

import "fmt"

// Key is an object key recognised by the decoders. Keys are shared by both
// document shapes; which keys matter depends on the context they appear in.
type Key uint8

const (
	KeyName Key = iota
	KeyID
	KeyCreatedAt
	KeyUpdatedAt
	KeyMacAddress
	KeyBtMacAddress
	KeySerialNumber
	KeyFirmwareVersion
	KeyTemperatureOffset
	KeyHumidityOffset
	KeyUsers
	KeyNickname
	KeySuperuser
	KeyNewestEvents
	KeyTe
	KeyHu
	KeyIl
	KeyMo
	KeyVal
	KeyDevice
	KeyModel
	KeyType
	KeyManufacturer
	KeyCountry
	KeyRemoteName
	KeySeries
	KeyImage
	KeySmartMeter
	KeyEchonetLiteProperties
	KeyEPC

	keyCount
)

var keyNames = [keyCount]string{
	KeyName:                  "name",
	KeyID:                    "id",
	KeyCreatedAt:             "created_at",
	KeyUpdatedAt:             "updated_at",
	KeyMacAddress:            "mac_address",
	KeyBtMacAddress:          "bt_mac_address",
	KeySerialNumber:          "serial_number",
	KeyFirmwareVersion:       "firmware_version",
	KeyTemperatureOffset:     "temperature_offset",
	KeyHumidityOffset:        "humidity_offset",
	KeyUsers:                 "users",
	KeyNickname:              "nickname",
	KeySuperuser:             "superuser",
	KeyNewestEvents:          "newest_events",
	KeyTe:                    "te",
	KeyHu:                    "hu",
	KeyIl:                    "il",
	KeyMo:                    "mo",
	KeyVal:                   "val",
	KeyDevice:                "device",
	KeyModel:                 "model",
	KeyType:                  "type",
	KeyManufacturer:          "manufacturer",
	KeyCountry:               "country",
	KeyRemoteName:            "remote_name",
	KeySeries:                "series",
	KeyImage:                 "image",
	KeySmartMeter:            "smart_meter",
	KeyEchonetLiteProperties: "echonetlite_properties",
	KeyEPC:                   "epc",
}

var keysByName = func() map[string]Key {
	m := make(map[string]Key, keyCount)
	for k, name := range keyNames {
		m[name] = Key(k)
	}
	return m
}()

// ResolveKey maps a wire key to a Key. The match is exact and case-sensitive;
// keys added to the API later resolve to false and are skipped by the decoders.
func ResolveKey(name string) (Key, bool) {
	k, ok := keysByName[name]
	return k, ok
}

// String returns the wire name of k.
func (k Key) String() string {
	if k < keyCount {
		return keyNames[k]
	}
	return fmt.Sprintf("Key(%d)", uint8(k))
}

// sensorKind maps a newest_events group key to its sensor.
func (k Key) sensorKind() (SensorKind, bool) {
	switch k {
	case KeyTe:
		return Temperature, true
	case KeyHu:
		return Humidity, true
	case KeyIl:
		return Illumination, true
	case KeyMo:
		return Motion, true
	default:
		return 0, false
	}
}
