package store

import "time"

// Device is the latest snapshot of a device, from either listing.
type Device struct {
	ID                string `gorm:"primaryKey"`
	Name              string
	FirmwareVersion   string
	SerialNumber      string
	MacAddress        string
	BtMacAddress      string
	TemperatureOffset float64
	HumidityOffset    float64
	CreatedAt         time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime:false"`
	SeenAt            time.Time
}

// SensorReading is one newest_events value. Polling the same value twice
// stores it once.
type SensorReading struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	DeviceID  string    `gorm:"uniqueIndex:idx_reading"`
	Sensor    string    `gorm:"uniqueIndex:idx_reading"`
	CreatedAt time.Time `gorm:"uniqueIndex:idx_reading;autoCreateTime:false"`
	Value     float64
}

// Appliance is the latest snapshot of an appliance.
type Appliance struct {
	ID           string `gorm:"primaryKey"`
	Type         string
	Nickname     string
	Image        string
	DeviceID     string `gorm:"index"`
	ModelID      string
	ModelName    string
	Manufacturer string
	SeenAt       time.Time
}

// EchonetProperty is one smart meter property value.
type EchonetProperty struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	ApplianceID string    `gorm:"uniqueIndex:idx_property"`
	EPC         uint32    `gorm:"uniqueIndex:idx_property"`
	UpdatedAt   time.Time `gorm:"uniqueIndex:idx_property;autoUpdateTime:false"`
	Name        string
	Value       string
}

// Tables lists the models migrated by Open.
var Tables = []any{
	&Device{},
	&SensorReading{},
	&Appliance{},
	&EchonetProperty{},
}
