package remo

import (
	"fmt"
	"io"

	"github.com/jacoelho/remo/bounded"
	"github.com/jacoelho/remo/event"
	"github.com/jacoelho/remo/internal/engine"
)

// applianceContext is a state of the appliance document.
type applianceContext uint8

const (
	applianceStart applianceContext = iota
	appliancesArray
	applianceMap
	applianceDeviceMap
	modelMap
	smartMeterMap
	echonetPropertiesArray
	echonetPropertyMap
	applianceSkipMap
	applianceSkipArray
)

func (c applianceContext) Container() engine.Container {
	switch c {
	case applianceMap, applianceDeviceMap, modelMap, smartMeterMap, echonetPropertyMap, applianceSkipMap:
		return engine.Map
	case appliancesArray, echonetPropertiesArray, applianceSkipArray:
		return engine.Array
	default:
		return engine.None
	}
}

func (c applianceContext) Skipping() bool {
	return c == applianceSkipMap || c == applianceSkipArray
}

func (c applianceContext) String() string {
	switch c {
	case applianceStart:
		return "Start"
	case appliancesArray:
		return "AppliancesArray"
	case applianceMap:
		return "ApplianceMap"
	case applianceDeviceMap:
		return "DeviceMap"
	case modelMap:
		return "ModelMap"
	case smartMeterMap:
		return "SmartMeterMap"
	case echonetPropertiesArray:
		return "EchonetLitePropertiesArray"
	case echonetPropertyMap:
		return "EchonetLitePropertyMap"
	case applianceSkipMap:
		return "UnknownMap"
	case applianceSkipArray:
		return "UnknownArray"
	default:
		return fmt.Sprintf("applianceContext(%d)", uint8(c))
	}
}

type applianceSlot uint8

const (
	applianceSlotNone applianceSlot = iota
	applianceSlotDevice
	applianceSlotModel
	applianceSlotProperty
)

// applianceSchema builds Appliance records in place. Exactly one
// sub-record slot is active at a time.
type applianceSchema struct {
	policy bounded.Policy
	fn     ApplianceFunc

	appliance Appliance
	slot      applianceSlot
	device    Device
	model     ApplianceModel
	property  EchonetLiteProperty

	records    int
	subRecords int
}

var _ engine.Schema[applianceContext, Key] = (*applianceSchema)(nil)

func (s *applianceSchema) begin(fn ApplianceFunc) {
	s.fn = fn
	s.appliance = Appliance{}
	s.slot = applianceSlotNone
	s.records, s.subRecords = 0, 0
}

func (s *applianceSchema) Start() applianceContext {
	return applianceStart
}

func (s *applianceSchema) Skip(c engine.Container) applianceContext {
	if c == engine.Array {
		return applianceSkipArray
	}
	return applianceSkipMap
}

func (s *applianceSchema) ResolveKey(name string) (Key, bool) {
	return ResolveKey(name)
}

func (s *applianceSchema) Open(parent applianceContext, key Key, hasKey bool, c engine.Container) (applianceContext, bool, error) {
	switch parent {
	case applianceStart:
		if c != engine.Array {
			return 0, false, engine.UnexpectedNode(parent, c.OpenEvent())
		}
		return appliancesArray, true, nil

	case appliancesArray:
		if c == engine.Map {
			s.appliance = Appliance{}
			return applianceMap, true, nil
		}

	case applianceMap:
		if !hasKey || c != engine.Map {
			break
		}
		switch key {
		case KeyDevice:
			s.device = Device{}
			s.slot = applianceSlotDevice
			return applianceDeviceMap, true, nil
		case KeyModel:
			s.model = ApplianceModel{}
			s.slot = applianceSlotModel
			return modelMap, true, nil
		case KeySmartMeter:
			return smartMeterMap, true, nil
		}

	case smartMeterMap:
		if hasKey && key == KeyEchonetLiteProperties && c == engine.Array {
			return echonetPropertiesArray, true, nil
		}

	case echonetPropertiesArray:
		if c == engine.Map {
			s.property = EchonetLiteProperty{}
			s.slot = applianceSlotProperty
			return echonetPropertyMap, true, nil
		}
	}

	return 0, false, nil
}

func (s *applianceSchema) Value(ctx applianceContext, key Key, hasKey bool, v event.Scalar) error {
	switch ctx {
	case applianceMap:
		return applianceFields.apply(&s.appliance, key, hasKey, v, s.policy)
	case applianceDeviceMap:
		if err := s.expect(ctx, applianceSlotDevice); err != nil {
			return err
		}
		return deviceFields.apply(&s.device, key, hasKey, v, s.policy)
	case modelMap:
		if err := s.expect(ctx, applianceSlotModel); err != nil {
			return err
		}
		return modelFields.apply(&s.model, key, hasKey, v, s.policy)
	case echonetPropertyMap:
		if err := s.expect(ctx, applianceSlotProperty); err != nil {
			return err
		}
		return echonetFields.apply(&s.property, key, hasKey, v, s.policy)
	case smartMeterMap:
		return nil
	default:
		return engine.UnexpectedNode(ctx, event.Event{Kind: event.Value, Scalar: v})
	}
}

func (s *applianceSchema) Close(ctx applianceContext) error {
	switch ctx {
	case applianceMap:
		s.records++
		return s.fn(&s.appliance, nil)
	case applianceDeviceMap:
		if err := s.expect(ctx, applianceSlotDevice); err != nil {
			return err
		}
		s.subRecords++
		return s.fn(&s.appliance, &s.device)
	case modelMap:
		if err := s.expect(ctx, applianceSlotModel); err != nil {
			return err
		}
		s.subRecords++
		return s.fn(&s.appliance, &s.model)
	case echonetPropertyMap:
		if err := s.expect(ctx, applianceSlotProperty); err != nil {
			return err
		}
		s.subRecords++
		return s.fn(&s.appliance, &s.property)
	default:
		return nil
	}
}

func (s *applianceSchema) expect(ctx applianceContext, slot applianceSlot) error {
	if s.slot != slot {
		return fmt.Errorf("%w: %s with sub-record %d", ErrUnexpectedParserState, ctx, s.slot)
	}
	return nil
}

// ApplianceDecoder decodes appliance listings. Its records are reused across
// calls to Decode. An ApplianceDecoder is not safe for concurrent use.
type ApplianceDecoder struct {
	opts    Options
	schema  applianceSchema
	machine *engine.Machine[applianceContext, Key]
	busy    bool
}

// NewApplianceDecoder returns an ApplianceDecoder configured by opts.
func NewApplianceDecoder(opts Options) *ApplianceDecoder {
	d := &ApplianceDecoder{opts: opts}
	d.schema.policy = opts.Overflow
	d.machine = engine.New[applianceContext, Key](&d.schema, MaxDepth, opts.logger())
	return d
}

// Decode reads one appliance listing from src and calls fn for every
// completed appliance, embedded device, embedded model and ECHONET Lite
// property, in document order.
func (d *ApplianceDecoder) Decode(src event.Source, fn ApplianceFunc) error {
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
	logSummary(d.opts.logger(), src, "appliances", d.schema.records, d.schema.subRecords)
	return nil
}

// DecodeAppliances decodes the JSON appliance listing read from r. length is
// the declared size of the document, or -1 when unknown.
func DecodeAppliances(r io.Reader, length int64, opts Options, fn ApplianceFunc) error {
	return NewApplianceDecoder(opts).Decode(event.NewDecoder(r, length), fn)
}
