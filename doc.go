// Package remo decodes device and appliance listings of the Nature Remo
// cloud API incrementally, one structural JSON event at a time.
//
// Records are built in fixed-size storage owned by the decoder and handed
// to a callback as soon as they complete:
//
//	err := remo.DecodeDevices(resp.Body, resp.ContentLength, remo.Options{},
//		func(d *remo.Device, sub remo.DeviceSubNode) error {
//			switch s := sub.(type) {
//			case nil:
//				fmt.Println(d.Name, d.FirmwareVersion)
//			case *remo.NewestEvents:
//				if s.Temperature.Valid {
//					fmt.Println(d.Name, s.Temperature.Value)
//				}
//			}
//			return nil
//		})
//
// The pointers passed to the callback alias storage that is overwritten by
// the next record. Copy what you need before returning.
//
// A callback fires once per closed container: for a device or appliance
// (sub is nil) and for each user, newest_events group, embedded device,
// embedded model and ECHONET Lite property. Sub-records complete before
// their parent, so the parent may still be partially filled when a
// sub-record is delivered.
//
// Unknown keys, unknown nested objects and arrays and scalars of an
// unexpected type are skipped. Malformed identifiers, timestamps, MAC
// addresses, appliance types, mismatched brackets and nesting deeper than
// MaxDepth abort the decode with an error.
package remo
