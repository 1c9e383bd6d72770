package xdtusb

import "errors"

// NewHardwareSDK returns the libxdtusb-backed SDK. The cgo binding is part
// of the vendor overlay applied when building the camera image; this tree
// builds without it so the service and tests run anywhere.
func NewHardwareSDK() (SDK, error) {
	return nil, errors.New("xdtusb: hardware binding not built in")
}
