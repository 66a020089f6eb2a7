// Package store records decoded listings in a SQLite database.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jacoelho/remo/internal/snapshot"
)

// Memory opens a private in-memory database.
const Memory = ":memory:"

type Store struct {
	db *gorm.DB
}

// Stats counts the rows written by one Save.
type Stats struct {
	Devices    int
	Readings   int
	Appliances int
	Properties int
}

// Open opens or creates the database at path and migrates its tables.
func Open(path string, log *slog.Logger) (*Store, error) {
	if path != Memory {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("failed to open db %s: %w", path, err)
	}
	if path == Memory {
		// Every connection to :memory: is a separate database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to open db %s: %w", path, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(Tables...); err != nil {
		return nil, fmt.Errorf("failed to automigrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save writes batch in one transaction. Records without an id, and users,
// are not stored. Sub-records of an appliance are matched to it through
// their ParentID.
func (s *Store) Save(ctx context.Context, batch []snapshot.Record, seenAt time.Time) (Stats, error) {
	var stats Stats
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deviceOf := make(map[string]string)
		modelOf := make(map[string]*snapshot.Model)

		for _, r := range batch {
			switch r.Kind {
			case snapshot.KindDevice, snapshot.KindApplianceDevice:
				if r.Device.ID == "" {
					continue
				}
				if err := upsertDevice(tx, r.Device, seenAt); err != nil {
					return err
				}
				stats.Devices++
				if r.Kind == snapshot.KindApplianceDevice && r.ParentID != "" {
					deviceOf[r.ParentID] = r.Device.ID
				}

			case snapshot.KindNewestEvents:
				n, err := insertReadings(tx, r.ParentID, r.Readings)
				if err != nil {
					return err
				}
				stats.Readings += n

			case snapshot.KindModel:
				if r.ParentID != "" {
					modelOf[r.ParentID] = r.Model
				}

			case snapshot.KindProperty:
				if r.ParentID == "" {
					continue
				}
				n, err := insertProperty(tx, r.ParentID, r.Property)
				if err != nil {
					return err
				}
				stats.Properties += n

			case snapshot.KindAppliance:
				if r.Appliance.ID == "" {
					continue
				}
				row := Appliance{
					ID:       r.Appliance.ID,
					Type:     r.Appliance.Type,
					Nickname: r.Appliance.Nickname,
					Image:    r.Appliance.Image,
					DeviceID: deviceOf[r.Appliance.ID],
					SeenAt:   seenAt,
				}
				if m := modelOf[r.Appliance.ID]; m != nil {
					row.ModelID, row.ModelName, row.Manufacturer = m.ID, m.Name, m.Manufacturer
				}
				if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
					return fmt.Errorf("failed to save appliance %s: %w", row.ID, err)
				}
				stats.Appliances++
			}
		}
		return nil
	})
	return stats, err
}

func upsertDevice(tx *gorm.DB, d *snapshot.Device, seenAt time.Time) error {
	row := Device{
		ID:                d.ID,
		Name:              d.Name,
		FirmwareVersion:   d.FirmwareVersion,
		SerialNumber:      d.SerialNumber,
		MacAddress:        d.MacAddress,
		BtMacAddress:      d.BtMacAddress,
		TemperatureOffset: d.TemperatureOffset,
		HumidityOffset:    d.HumidityOffset,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		SeenAt:            seenAt,
	}
	if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save device %s: %w", d.ID, err)
	}
	return nil
}

func insertReadings(tx *gorm.DB, deviceID string, readings []snapshot.Reading) (int, error) {
	if deviceID == "" || len(readings) == 0 {
		return 0, nil
	}
	rows := make([]SensorReading, 0, len(readings))
	for _, r := range readings {
		rows = append(rows, SensorReading{DeviceID: deviceID, Sensor: r.Sensor, CreatedAt: r.CreatedAt, Value: r.Value})
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to save readings of %s: %w", deviceID, res.Error)
	}
	return int(res.RowsAffected), nil
}

func insertProperty(tx *gorm.DB, applianceID string, p *snapshot.Property) (int, error) {
	row := EchonetProperty{
		ApplianceID: applianceID,
		EPC:         p.EPC,
		UpdatedAt:   p.UpdatedAt,
		Name:        p.Name,
		Value:       p.Value,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to save property %d of %s: %w", p.EPC, applianceID, res.Error)
	}
	return int(res.RowsAffected), nil
}

// Devices returns every stored device ordered by name.
func (s *Store) Devices(ctx context.Context) ([]Device, error) {
	var rows []Device
	err := s.db.WithContext(ctx).Order("name").Find(&rows).Error
	return rows, err
}

// Readings returns the readings of deviceID, oldest first.
func (s *Store) Readings(ctx context.Context, deviceID string) ([]SensorReading, error) {
	var rows []SensorReading
	err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).Order("created_at, sensor").Find(&rows).Error
	return rows, err
}

// Appliance returns the stored appliance with id.
func (s *Store) Appliance(ctx context.Context, id string) (Appliance, error) {
	var row Appliance
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	return row, err
}

// Properties returns the properties of applianceID ordered by EPC.
func (s *Store) Properties(ctx context.Context, applianceID string) ([]EchonetProperty, error) {
	var rows []EchonetProperty
	err := s.db.WithContext(ctx).Where("appliance_id = ?", applianceID).Order("epc, updated_at").Find(&rows).Error
	return rows, err
}
