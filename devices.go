package remo

import (
	"fmt"
	"io"

	"github.com/jacoelho/remo/bounded"
	"github.com/jacoelho/remo/event"
	"github.com/jacoelho/remo/internal/engine"
)

type deviceState uint8

const (
	deviceStart deviceState = iota
	devicesArray
	deviceMap
	usersArray
	userMap
	newestEventsMap
	newestEventMap
	deviceSkipMap
	deviceSkipArray
)

// deviceContext is a state of the device document. sensor is only
// meaningful in newestEventMap.
type deviceContext struct {
	state  deviceState
	sensor SensorKind
}

func (c deviceContext) Container() engine.Container {
	switch c.state {
	case deviceMap, userMap, newestEventsMap, newestEventMap, deviceSkipMap:
		return engine.Map
	case devicesArray, usersArray, deviceSkipArray:
		return engine.Array
	default:
		return engine.None
	}
}

func (c deviceContext) Skipping() bool {
	return c.state == deviceSkipMap || c.state == deviceSkipArray
}

func (c deviceContext) String() string {
	switch c.state {
	case deviceStart:
		return "Start"
	case devicesArray:
		return "DevicesArray"
	case deviceMap:
		return "DeviceMap"
	case usersArray:
		return "UsersArray"
	case userMap:
		return "UserMap"
	case newestEventsMap:
		return "NewestEventsMap"
	case newestEventMap:
		return "NewestEventMap(" + c.sensor.String() + ")"
	case deviceSkipMap:
		return "UnknownMap"
	case deviceSkipArray:
		return "UnknownArray"
	default:
		return fmt.Sprintf("deviceState(%d)", uint8(c.state))
	}
}

type deviceSlot uint8

const (
	deviceSlotNone deviceSlot = iota
	deviceSlotUser
	deviceSlotNewestEvents
)

// deviceSchema builds Device records in place. Exactly one sub-record slot
// is active at a time.
type deviceSchema struct {
	policy bounded.Policy
	fn     DeviceFunc

	device Device
	slot   deviceSlot
	user   User
	events NewestEvents

	records    int
	subRecords int
}

var _ engine.Schema[deviceContext, Key] = (*deviceSchema)(nil)

func (s *deviceSchema) begin(fn DeviceFunc) {
	s.fn = fn
	s.device = Device{}
	s.slot = deviceSlotNone
	s.records, s.subRecords = 0, 0
}

func (s *deviceSchema) Start() deviceContext {
	return deviceContext{state: deviceStart}
}

func (s *deviceSchema) Skip(c engine.Container) deviceContext {
	if c == engine.Array {
		return deviceContext{state: deviceSkipArray}
	}
	return deviceContext{state: deviceSkipMap}
}

func (s *deviceSchema) ResolveKey(name string) (Key, bool) {
	return ResolveKey(name)
}

func (s *deviceSchema) Open(parent deviceContext, key Key, hasKey bool, c engine.Container) (deviceContext, bool, error) {
	switch parent.state {
	case deviceStart:
		if c != engine.Array {
			return deviceContext{}, false, engine.UnexpectedNode(parent, c.OpenEvent())
		}
		return deviceContext{state: devicesArray}, true, nil

	case devicesArray:
		if c == engine.Map {
			s.device = Device{}
			return deviceContext{state: deviceMap}, true, nil
		}

	case deviceMap:
		switch {
		case hasKey && key == KeyUsers && c == engine.Array:
			return deviceContext{state: usersArray}, true, nil
		case hasKey && key == KeyNewestEvents && c == engine.Map:
			s.events = NewestEvents{}
			s.slot = deviceSlotNewestEvents
			return deviceContext{state: newestEventsMap}, true, nil
		}

	case usersArray:
		if c == engine.Map {
			s.user = User{}
			s.slot = deviceSlotUser
			return deviceContext{state: userMap}, true, nil
		}

	case newestEventsMap:
		if s.slot != deviceSlotNewestEvents {
			return deviceContext{}, false, fmt.Errorf("%w: %s with sub-record %d", ErrUnexpectedParserState, parent, s.slot)
		}
		var sensor SensorKind
		ok := false
		if hasKey && c == engine.Map {
			sensor, ok = key.sensorKind()
		}
		if !ok {
			return deviceContext{}, false, fmt.Errorf("%w: %s in %s", ErrUnknownNewestEventsType, c, parent)
		}
		*s.events.Sensor(sensor) = SensorValue{Valid: true}
		return deviceContext{state: newestEventMap, sensor: sensor}, true, nil
	}

	return deviceContext{}, false, nil
}

func (s *deviceSchema) Value(ctx deviceContext, key Key, hasKey bool, v event.Scalar) error {
	switch ctx.state {
	case deviceMap:
		return deviceFields.apply(&s.device, key, hasKey, v, s.policy)
	case userMap:
		if s.slot != deviceSlotUser {
			return fmt.Errorf("%w: %s with sub-record %d", ErrUnexpectedParserState, ctx, s.slot)
		}
		return userFields.apply(&s.user, key, hasKey, v, s.policy)
	case newestEventsMap:
		return nil
	case newestEventMap:
		if s.slot != deviceSlotNewestEvents {
			return fmt.Errorf("%w: %s with sub-record %d", ErrUnexpectedParserState, ctx, s.slot)
		}
		return sensorFields.apply(s.events.Sensor(ctx.sensor), key, hasKey, v, s.policy)
	default:
		return engine.UnexpectedNode(ctx, event.Event{Kind: event.Value, Scalar: v})
	}
}

func (s *deviceSchema) Close(ctx deviceContext) error {
	switch ctx.state {
	case deviceMap:
		s.records++
		return s.fn(&s.device, nil)
	case userMap:
		if s.slot != deviceSlotUser {
			return fmt.Errorf("%w: %s closed with sub-record %d", ErrUnexpectedParserState, ctx, s.slot)
		}
		s.subRecords++
		return s.fn(&s.device, &s.user)
	case newestEventsMap:
		if s.slot != deviceSlotNewestEvents {
			return fmt.Errorf("%w: %s closed with sub-record %d", ErrUnexpectedParserState, ctx, s.slot)
		}
		s.subRecords++
		return s.fn(&s.device, &s.events)
	default:
		return nil
	}
}

// DeviceDecoder decodes device listings. Its records are reused across
// calls to Decode. A DeviceDecoder is not safe for concurrent use.
type DeviceDecoder struct {
	opts    Options
	schema  deviceSchema
	machine *engine.Machine[deviceContext, Key]
	busy    bool
}

// NewDeviceDecoder returns a DeviceDecoder configured by opts.
func NewDeviceDecoder(opts Options) *DeviceDecoder {
	d := &DeviceDecoder{opts: opts}
	d.schema.policy = opts.Overflow
	d.machine = engine.New[deviceContext, Key](&d.schema, MaxDepth, opts.logger())
	return d
}

// Decode reads one device listing from src and calls fn for every completed
// device, user and newest_events group, in document order.
func (d *DeviceDecoder) Decode(src event.Source, fn DeviceFunc) error {
	if d.busy {
		return ErrDecoderBusy
	}
	d.busy = true
	defer func() {
		d.busy = false
		d.schema.fn = nil
	}()

	d.schema.begin(fn)
	d.machine.Reset()
	if err := drive(src, d.machine); err != nil {
		return err
	}
	logSummary(d.opts.logger(), src, "devices", d.schema.records, d.schema.subRecords)
	return nil
}

// DecodeDevices decodes the JSON device listing read from r. length is the
// declared size of the document, or -1 when unknown.
func DecodeDevices(r io.Reader, length int64, opts Options, fn DeviceFunc) error {
	return NewDeviceDecoder(opts).Decode(event.NewDecoder(r, length), fn)
}
