package snapshot

import "time"

// Field is one named value of a record.
type Field struct {
	Name  string
	Value any
}

// Fields flattens r into its named values in a stable order. Readings are
// exposed under their sensor names ("te", "hu", "il", "mo").
func (r Record) Fields() []Field {
	fields := []Field{{"kind", string(r.Kind)}}
	if r.ParentID != "" {
		fields = append(fields, Field{"parent_id", r.ParentID})
	}

	switch {
	case r.Device != nil:
		d := r.Device
		fields = append(fields,
			Field{"id", d.ID},
			Field{"name", d.Name},
			Field{"firmware_version", d.FirmwareVersion},
			Field{"serial_number", d.SerialNumber},
			Field{"mac_address", d.MacAddress},
			Field{"bt_mac_address", d.BtMacAddress},
			Field{"temperature_offset", d.TemperatureOffset},
			Field{"humidity_offset", d.HumidityOffset},
			Field{"created_at", d.CreatedAt},
			Field{"updated_at", d.UpdatedAt},
		)
	case r.User != nil:
		fields = append(fields,
			Field{"id", r.User.ID},
			Field{"nickname", r.User.Nickname},
			Field{"superuser", r.User.Superuser},
		)
	case r.Appliance != nil:
		a := r.Appliance
		fields = append(fields,
			Field{"id", a.ID},
			Field{"type", a.Type},
			Field{"nickname", a.Nickname},
			Field{"image", a.Image},
		)
	case r.Model != nil:
		m := r.Model
		fields = append(fields,
			Field{"id", m.ID},
			Field{"country", m.Country},
			Field{"manufacturer", m.Manufacturer},
			Field{"remote_name", m.RemoteName},
			Field{"series", m.Series},
			Field{"name", m.Name},
			Field{"image", m.Image},
		)
	case r.Property != nil:
		p := r.Property
		fields = append(fields,
			Field{"name", p.Name},
			Field{"epc", int(p.EPC)},
			Field{"val", p.Value},
			Field{"updated_at", p.UpdatedAt},
		)
	}

	for _, reading := range r.Readings {
		fields = append(fields, Field{reading.Sensor, reading.Value})
	}
	return fields
}

// Env returns the fields of r keyed by name. Timestamps are converted to
// RFC 3339 strings so expressions can compare them lexically.
func (r Record) Env() map[string]any {
	fields := r.Fields()
	env := make(map[string]any, len(fields))
	for _, f := range fields {
		if ts, ok := f.Value.(time.Time); ok {
			env[f.Name] = ts.Format(time.RFC3339)
			continue
		}
		env[f.Name] = f.Value
	}
	return env
}
