package vertex

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// Device is a headless wgpu device for uploading hardware vertex animation streams when no
// renderer owns one.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// NewDevice requests an adapter without a surface and opens a device on it.
//
// Parameters:
//   - forceFallbackAdapter: if true, requests the software fallback adapter
//
// Returns:
//   - *Device: the device, to be released with Release
//   - error: error if no adapter or device is available
func NewDevice(forceFallbackAdapter bool) (*Device, error) {
	instance := wgpu.CreateInstance(nil)
	a, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		instance.Release()
		return nil, errors.Wrap(err, "failed to request adapter")
	}
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Vertex Animation Device",
	})
	if err != nil {
		a.Release()
		instance.Release()
		return nil, errors.Wrap(err, "failed to request device")
	}
	return &Device{
		instance: instance,
		adapter:  a,
		device:   d,
		queue:    d.GetQueue(),
	}, nil
}

// BufferFactory returns a factory creating GPU buffers on this device.
//
// Parameters:
//   - label: the label prefix for created buffers
//
// Returns:
//   - BufferFactory: the factory
func (d *Device) BufferFactory(label string) BufferFactory {
	return NewGPUBufferFactory(d.device, d.queue, label)
}

// Release frees the queue, device, adapter and instance.
func (d *Device) Release() {
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}
