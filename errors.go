package sensors

import (
	"errors"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// ErrNotReady is returned by measurement accessors when the chip's
// validity/status bits indicate the current reading is not trustworthy yet
// (warm-up, initial startup). Callers should poll again later instead of
// treating this as a device failure.
var ErrNotReady = errors.New("measurement not ready")

// UnexpectedPartIDError is returned from driver construction when the chip's
// identity register does not hold the documented constant for that family.
// It usually means the wrong chip, or the wrong address, is wired to this
// driver type.
type UnexpectedPartIDError struct {
	Addr byte
	Got  uint32
	Want uint32
}

func (e *UnexpectedPartIDError) Error() string {
	return fmt.Sprintf("unexpected part id %#x at address %#x, expected %#x", e.Got, e.Addr, e.Want)
}

// BusError wraps a transport-level failure from the underlying bus. Drivers
// never retry; they surface the failure and leave their own state untouched.
type BusError struct {
	Op   string
	Addr byte
	Err  error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus failure at address %#x (%s): %v", e.Addr, e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
