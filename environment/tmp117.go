package environment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bml303/i2c-sensors"
	"github.com/bml303/i2c-sensors/regcodec"
)

// TMP117 7-bit I2C addresses, selected by the ADD0 pin wiring.
const (
	TMP117AddrDefault byte = 0x48
	TMP117AddrAlt1    byte = 0x49
	TMP117AddrAlt2    byte = 0x4A
	TMP117AddrAlt3    byte = 0x4B
)

// Register map (per datasheet). All registers are 16-bit, most significant
// byte first on the wire.
const (
	tmp117RegTemperature byte = 0x00
	tmp117RegConfig      byte = 0x01
	tmp117RegTempOffset  byte = 0x07
	tmp117RegDeviceID    byte = 0x0F
)

const (
	tmp117PartID     uint16 = 0x117
	tmp117PartIDMask uint16 = 0xFFF
	tmp117RevShift          = 12
)

// Configuration register bit layout.
const (
	tmp117DataReadyBit  uint16 = 0x2000
	tmp117SoftResetBit  uint16 = 0x0002
	tmp117ModeShift            = 10
	tmp117CycleShift           = 7
	tmp117AveragingShift       = 5
	// alert and therm bits below the mode/cycle/averaging field survive
	// a mode change untouched
	tmp117KeepMask uint16 = 0x001F
)

// One LSB of the temperature and offset registers is 7.8125 m°C.
const tmp117TemperatureFactor = 0.0078125

const tmp117StartupDelay = 2 * time.Millisecond

type TMP117SensorMode uint16

const (
	TMP117ModeContinuous TMP117SensorMode = 0x00
	TMP117ModeShutdown   TMP117SensorMode = 0x01
	TMP117ModeOneShot    TMP117SensorMode = 0x03
)

func (m TMP117SensorMode) String() string {
	switch m {
	case TMP117ModeContinuous:
		return "continuous"
	case TMP117ModeShutdown:
		return "shutdown"
	case TMP117ModeOneShot:
		return "one-shot"
	}
	return fmt.Sprintf("unknown (%#04x)", uint16(m))
}

// TMP117ConversionCycle selects the time between conversions in continuous
// mode. Effective cycle time also depends on the averaging setting; the
// shorter settings are stretched until the averaged conversions fit.
type TMP117ConversionCycle uint16

const (
	TMP117CycleShortest TMP117ConversionCycle = 0x00
	TMP117CycleShorter  TMP117ConversionCycle = 0x01
	TMP117CycleShort    TMP117ConversionCycle = 0x02
	TMP117CycleMedium   TMP117ConversionCycle = 0x03
	TMP117Cycle1000ms   TMP117ConversionCycle = 0x04
	TMP117Cycle4000ms   TMP117ConversionCycle = 0x05
	TMP117Cycle8000ms   TMP117ConversionCycle = 0x06
	TMP117Cycle16000ms  TMP117ConversionCycle = 0x07
)

type TMP117Averaging uint16

const (
	TMP117AveragingNone TMP117Averaging = 0x00
	TMP117Averaging8    TMP117Averaging = 0x01
	TMP117Averaging32   TMP117Averaging = 0x02
	TMP117Averaging64   TMP117Averaging = 0x03
)

type TMP117Config struct {
	Address   byte
	Mode      TMP117SensorMode
	Cycle     TMP117ConversionCycle
	Averaging TMP117Averaging
}

type TMP117ConfigOption func(*TMP117Config)

func WithTMP117Address(address byte) TMP117ConfigOption {
	return func(c *TMP117Config) {
		c.Address = address
	}
}

func WithTMP117Mode(mode TMP117SensorMode) TMP117ConfigOption {
	return func(c *TMP117Config) {
		c.Mode = mode
	}
}

func WithTMP117ConversionCycle(cycle TMP117ConversionCycle) TMP117ConfigOption {
	return func(c *TMP117Config) {
		c.Cycle = cycle
	}
}

func WithTMP117Averaging(averaging TMP117Averaging) TMP117ConfigOption {
	return func(c *TMP117Config) {
		c.Averaging = averaging
	}
}

// TMP117 represents a Texas Instruments TMP117 high-precision temperature
// sensor. Typical usage:
//
//	s, err := NewTMP117(ctx, bus)
//	t, err := s.GetTemperature(ctx)
//
// The default configuration runs continuous conversions with a 1s cycle and
// 8-sample averaging. Construction verifies the device id, soft resets the
// chip and programs the configured mode.
type TMP117 struct {
	transport sensors.I2CBus
	addr      byte
	partID    uint16
	revision  uint8
}

func NewTMP117(ctx context.Context, transport sensors.I2CBus, opts ...TMP117ConfigOption) (*TMP117, error) {
	config := &TMP117Config{
		Address:   TMP117AddrDefault,
		Mode:      TMP117ModeContinuous,
		Cycle:     TMP117Cycle1000ms,
		Averaging: TMP117Averaging8,
	}
	for _, opt := range opts {
		opt(config)
	}
	sensor := &TMP117{transport: transport, addr: config.Address}
	id, err := sensor.readWord(ctx, tmp117RegDeviceID)
	if err != nil {
		return nil, &sensors.BusError{Op: "tmp117 read device id", Addr: sensor.addr, Err: err}
	}
	if id&tmp117PartIDMask != tmp117PartID {
		return nil, &sensors.UnexpectedPartIDError{Addr: sensor.addr, Got: uint32(id & tmp117PartIDMask), Want: uint32(tmp117PartID)}
	}
	sensor.partID = id & tmp117PartIDMask
	sensor.revision = uint8(id >> tmp117RevShift)
	slog.Debug("tmp117 detected", "addr", sensor.addr, "revision", sensor.revision)
	// The chip may be in an unknown state, reset before touching config.
	if err := sensor.softReset(ctx); err != nil {
		return nil, err
	}
	if err := sensor.SetSensorMode(ctx, config.Mode, config.Cycle, config.Averaging); err != nil {
		return nil, err
	}
	return sensor, nil
}

func (s *TMP117) Address() byte {
	return s.addr
}

// PartID returns the device id read during construction.
func (s *TMP117) PartID() uint16 {
	return s.partID
}

// Revision returns the die revision read from the device id register during
// construction.
func (s *TMP117) Revision() uint8 {
	return s.revision
}

func (s *TMP117) softReset(ctx context.Context) error {
	if err := s.writeWord(ctx, tmp117RegConfig, tmp117SoftResetBit); err != nil {
		return &sensors.BusError{Op: "tmp117 soft reset", Addr: s.addr, Err: err}
	}
	time.Sleep(tmp117StartupDelay)
	return nil
}

// SetSensorMode programs the conversion mode, conversion cycle time and
// averaging. The alert configuration bits are preserved.
func (s *TMP117) SetSensorMode(ctx context.Context, mode TMP117SensorMode, cycle TMP117ConversionCycle, averaging TMP117Averaging) error {
	value, err := s.readWord(ctx, tmp117RegConfig)
	if err != nil {
		return &sensors.BusError{Op: "tmp117 read config", Addr: s.addr, Err: err}
	}
	value = value&tmp117KeepMask | uint16(mode)<<tmp117ModeShift | uint16(cycle)<<tmp117CycleShift | uint16(averaging)<<tmp117AveragingShift
	if err := s.writeWord(ctx, tmp117RegConfig, value); err != nil {
		return &sensors.BusError{Op: "tmp117 write config", Addr: s.addr, Err: err}
	}
	return nil
}

// IsDataReady reports whether a conversion result is waiting to be read.
// The flag clears when the temperature register is read.
func (s *TMP117) IsDataReady(ctx context.Context) (bool, error) {
	value, err := s.readWord(ctx, tmp117RegConfig)
	if err != nil {
		return false, &sensors.BusError{Op: "tmp117 read config", Addr: s.addr, Err: err}
	}
	return value&tmp117DataReadyBit != 0, nil
}

// GetTemperature returns the latest conversion result in degrees Celsius.
func (s *TMP117) GetTemperature(ctx context.Context) (float64, error) {
	value, err := s.readWord(ctx, tmp117RegTemperature)
	if err != nil {
		return 0, &sensors.BusError{Op: "tmp117 read temperature", Addr: s.addr, Err: err}
	}
	return float64(int16(value)) * tmp117TemperatureFactor, nil
}

// GetTemperatureOffset returns the programmed temperature offset in degrees
// Celsius.
func (s *TMP117) GetTemperatureOffset(ctx context.Context) (float64, error) {
	value, err := s.readWord(ctx, tmp117RegTempOffset)
	if err != nil {
		return 0, &sensors.BusError{Op: "tmp117 read temperature offset", Addr: s.addr, Err: err}
	}
	return float64(int16(value)) * tmp117TemperatureFactor, nil
}

// SetTemperatureOffset programs a temperature offset in degrees Celsius that
// the chip adds to every conversion result. Resolution is one register LSB
// (7.8125 m°C); the value is truncated, not rounded.
func (s *TMP117) SetTemperatureOffset(ctx context.Context, offset float64) error {
	value := uint16(int16(offset / tmp117TemperatureFactor))
	if err := s.writeWord(ctx, tmp117RegTempOffset, value); err != nil {
		return &sensors.BusError{Op: "tmp117 write temperature offset", Addr: s.addr, Err: err}
	}
	return nil
}

func (s *TMP117) readWord(ctx context.Context, register byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := s.transport.ReadRegFromAddr(ctx, s.addr, register, buf); err != nil {
		return 0, err
	}
	return uint16(regcodec.Unsigned(buf, regcodec.BigEndian)), nil
}

func (s *TMP117) writeWord(ctx context.Context, register byte, value uint16) error {
	buf := make([]byte, 2)
	regcodec.PutUnsigned(buf, regcodec.BigEndian, uint32(value))
	return s.transport.WriteToAddr(ctx, s.addr, []byte{register, buf[0], buf[1]})
}
