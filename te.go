package overdrive

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// WatchTE raises a start of frame on every rising edge of the panel
// tearing-effect pin until ctx is canceled.
func (d *Dev) WatchTE(ctx context.Context, pin gpio.PinIn) error {
	if err := pin.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
		return fmt.Errorf("overdrive: TE pin %s: %w", pin, err)
	}
	defer pin.In(gpio.PullNoChange, gpio.NoEdge)
	for ctx.Err() == nil {
		if pin.WaitForEdge(50 * time.Millisecond) {
			d.StartOfFrame()
		}
	}
	return nil
}
