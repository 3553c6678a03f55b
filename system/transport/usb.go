package transport

import (
	"log"

	"github.com/karalabe/usb"
	"github.com/pkg/errors"
)

// Vendor/product ID pair of the strip controller
const (
	VendorID  = 0xcafe
	ProductID = 0x1234
)

// OpenDevice enumerates the bus for the strip controller and opens the first
// match as a raw bulk endpoint.
func OpenDevice(vendorID, productID uint16) (Endpoint, error) {
	devices, err := usb.EnumerateRaw(vendorID, productID)
	if err != nil {
		return nil, errors.Wrap(err, "usb: enumeration failed")
	}
	if len(devices) == 0 {
		return nil, errors.Errorf("usb: no device with id %04x:%04x found", vendorID, productID)
	}

	device := devices[0]
	log.Printf("[transport] opening device %04x:%04x at %s\n", device.VendorID, device.ProductID, device.Path)

	d, err := device.Open()
	if err != nil {
		return nil, errors.Wrap(err, "usb: cannot open device")
	}
	return d, nil
}
