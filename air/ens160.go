package air

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bml303/i2c-sensors"
	"github.com/bml303/i2c-sensors/regcodec"
)

// ENS160 7-bit I2C addresses, selected by the ADDR pin wiring.
const (
	ENS160AddrDefault   byte = 0x53
	ENS160AddrSecondary byte = 0x52
)

const ens160PartID uint16 = 0x0160

// Register map (per datasheet). Multi-byte registers are little-endian on
// the wire.
const (
	ens160RegPartID byte = 0x00
	ens160RegOpMode byte = 0x10
	ens160RegTempIn byte = 0x13
	ens160RegRHIn   byte = 0x15
	ens160RegStatus byte = 0x20
	ens160RegAQI    byte = 0x21
	ens160RegTVOC   byte = 0x22
	ens160RegECO2   byte = 0x24
)

const (
	ens160OpModeDeepSleep   byte = 0x00
	ens160OpModeIdle        byte = 0x01
	ens160OpModeOperational byte = 0x02
)

// Validity flag lives in bits 3:2 of the device status register.
const (
	ens160ValidityMask  byte = 0x0C
	ens160ValidityShift      = 2
)

// ENS160Validity reports the operating state of the measurement engine.
// Outputs are only trustworthy in ENS160ValidityOK.
type ENS160Validity byte

const (
	ENS160ValidityOK             ENS160Validity = 0x00
	ENS160ValidityWarmUp         ENS160Validity = 0x01
	ENS160ValidityInitialStartUp ENS160Validity = 0x03
	ENS160ValidityInvalid        ENS160Validity = 0x04
)

func ens160ValidityFrom(code byte) ENS160Validity {
	switch ENS160Validity(code) {
	case ENS160ValidityOK, ENS160ValidityWarmUp, ENS160ValidityInitialStartUp:
		return ENS160Validity(code)
	}
	return ENS160ValidityInvalid
}

func (v ENS160Validity) String() string {
	switch v {
	case ENS160ValidityOK:
		return "operating ok"
	case ENS160ValidityWarmUp:
		return "warm-up"
	case ENS160ValidityInitialStartUp:
		return "initial start-up"
	}
	return "no valid output"
}

// ENS160AirQualityIndex is the UBA air quality index reported by the chip,
// from 1 (excellent) to 5 (unhealthy).
type ENS160AirQualityIndex byte

const (
	AQIExcellent ENS160AirQualityIndex = 1
	AQIGood      ENS160AirQualityIndex = 2
	AQIFair      ENS160AirQualityIndex = 3
	AQIPoor      ENS160AirQualityIndex = 4
	AQIUnhealthy ENS160AirQualityIndex = 5
)

func (a ENS160AirQualityIndex) String() string {
	switch a {
	case AQIExcellent:
		return "excellent"
	case AQIGood:
		return "good"
	case AQIFair:
		return "fair/moderate"
	case AQIPoor:
		return "poor"
	}
	return "bad/unhealthy"
}

// ECO2Rating classifies an equivalent CO2 concentration into the datasheet's
// quality bands.
type ECO2Rating byte

const (
	ECO2Excellent ECO2Rating = iota
	ECO2Good
	ECO2Fair
	ECO2Poor
	ECO2Unhealthy
)

func ECO2RatingOf(ppm uint16) ECO2Rating {
	switch {
	case ppm <= 600:
		return ECO2Excellent
	case ppm <= 800:
		return ECO2Good
	case ppm <= 1000:
		return ECO2Fair
	case ppm <= 1500:
		return ECO2Poor
	}
	return ECO2Unhealthy
}

func (r ECO2Rating) String() string {
	switch r {
	case ECO2Excellent:
		return "excellent"
	case ECO2Good:
		return "good"
	case ECO2Fair:
		return "fair/moderate"
	case ECO2Poor:
		return "poor"
	}
	return "bad/unhealthy"
}

type ENS160Config struct {
	Address byte
}

type ENS160ConfigOption func(*ENS160Config)

func WithENS160Address(address byte) ENS160ConfigOption {
	return func(c *ENS160Config) {
		c.Address = address
	}
}

// ENS160 represents a ScioSense ENS160 digital metal-oxide air quality
// sensor. Typical usage:
//
//	s, err := NewENS160(ctx, bus)
//	aqi, err := s.GetAirQualityIndex(ctx)
//
// Construction verifies the part id and switches the chip into operational
// mode if it is sleeping or idle. The measurement accessors return
// sensors.ErrNotReady while the chip is warming up or in its initial
// start-up phase; GetValidity exposes the raw state for callers that want
// to report progress.
type ENS160 struct {
	transport sensors.I2CBus
	addr      byte
	partID    uint16
}

func NewENS160(ctx context.Context, transport sensors.I2CBus, opts ...ENS160ConfigOption) (*ENS160, error) {
	config := &ENS160Config{Address: ENS160AddrDefault}
	for _, opt := range opts {
		opt(config)
	}
	sensor := &ENS160{transport: transport, addr: config.Address}
	id, err := sensor.readWord(ctx, ens160RegPartID)
	if err != nil {
		return nil, &sensors.BusError{Op: "ens160 read part id", Addr: sensor.addr, Err: err}
	}
	if id != ens160PartID {
		return nil, &sensors.UnexpectedPartIDError{Addr: sensor.addr, Got: uint32(id), Want: uint32(ens160PartID)}
	}
	sensor.partID = id
	mode, err := sensor.readByte(ctx, ens160RegOpMode)
	if err != nil {
		return nil, &sensors.BusError{Op: "ens160 read op mode", Addr: sensor.addr, Err: err}
	}
	if mode != ens160OpModeOperational {
		slog.Debug("ens160 waking up", "addr", sensor.addr, "mode", mode)
		if err := sensor.writeReg(ctx, ens160RegOpMode, ens160OpModeOperational); err != nil {
			return nil, &sensors.BusError{Op: "ens160 set op mode", Addr: sensor.addr, Err: err}
		}
	}
	return sensor, nil
}

func (s *ENS160) Address() byte {
	return s.addr
}

// PartID returns the part id word read during construction.
func (s *ENS160) PartID() uint16 {
	return s.partID
}

// GetValidity reads the current operating state of the measurement engine.
// Unlike the measurement accessors this never returns sensors.ErrNotReady.
func (s *ENS160) GetValidity(ctx context.Context) (ENS160Validity, error) {
	status, err := s.readByte(ctx, ens160RegStatus)
	if err != nil {
		return 0, &sensors.BusError{Op: "ens160 read status", Addr: s.addr, Err: err}
	}
	return ens160ValidityFrom(regcodec.Bitfield(status, ens160ValidityMask, ens160ValidityShift)), nil
}

// GetAirQualityIndex returns the UBA air quality index (1 to 5).
func (s *ENS160) GetAirQualityIndex(ctx context.Context) (ENS160AirQualityIndex, error) {
	if err := s.checkValidity(ctx); err != nil {
		return 0, err
	}
	code, err := s.readByte(ctx, ens160RegAQI)
	if err != nil {
		return 0, &sensors.BusError{Op: "ens160 read aqi", Addr: s.addr, Err: err}
	}
	return ENS160AirQualityIndex(code), nil
}

// GetTVOC returns the total volatile organic compounds concentration in ppb.
func (s *ENS160) GetTVOC(ctx context.Context) (uint16, error) {
	if err := s.checkValidity(ctx); err != nil {
		return 0, err
	}
	value, err := s.readWord(ctx, ens160RegTVOC)
	if err != nil {
		return 0, &sensors.BusError{Op: "ens160 read tvoc", Addr: s.addr, Err: err}
	}
	return value, nil
}

// GetECO2 returns the equivalent CO2 concentration in ppm together with its
// quality rating.
func (s *ENS160) GetECO2(ctx context.Context) (uint16, ECO2Rating, error) {
	if err := s.checkValidity(ctx); err != nil {
		return 0, 0, err
	}
	value, err := s.readWord(ctx, ens160RegECO2)
	if err != nil {
		return 0, 0, &sensors.BusError{Op: "ens160 read eco2", Addr: s.addr, Err: err}
	}
	return value, ECO2RatingOf(value), nil
}

// SetAmbientTemperature feeds the chip's compensation algorithm with the
// ambient temperature in degrees Celsius, typically from a co-located
// temperature sensor.
func (s *ENS160) SetAmbientTemperature(ctx context.Context, temperature float64) error {
	value := uint16((temperature + 273.15) * 64.0)
	if err := s.writeWord(ctx, ens160RegTempIn, value); err != nil {
		return &sensors.BusError{Op: "ens160 write temp_in", Addr: s.addr, Err: err}
	}
	return nil
}

// SetAmbientHumidity feeds the chip's compensation algorithm with the
// ambient relative humidity in %RH.
func (s *ENS160) SetAmbientHumidity(ctx context.Context, humidity float64) error {
	value := uint16(humidity * 512.0)
	if err := s.writeWord(ctx, ens160RegRHIn, value); err != nil {
		return &sensors.BusError{Op: "ens160 write rh_in", Addr: s.addr, Err: err}
	}
	return nil
}

// GetAmbientTemperature reads back the compensation temperature in degrees
// Celsius.
func (s *ENS160) GetAmbientTemperature(ctx context.Context) (float64, error) {
	value, err := s.readWord(ctx, ens160RegTempIn)
	if err != nil {
		return 0, &sensors.BusError{Op: "ens160 read temp_in", Addr: s.addr, Err: err}
	}
	return float64(value)/64.0 - 273.15, nil
}

// GetAmbientHumidity reads back the compensation humidity in %RH.
func (s *ENS160) GetAmbientHumidity(ctx context.Context) (float64, error) {
	value, err := s.readWord(ctx, ens160RegRHIn)
	if err != nil {
		return 0, &sensors.BusError{Op: "ens160 read rh_in", Addr: s.addr, Err: err}
	}
	return float64(value) / 512.0, nil
}

func (s *ENS160) checkValidity(ctx context.Context) error {
	validity, err := s.GetValidity(ctx)
	if err != nil {
		return err
	}
	if validity != ENS160ValidityOK {
		return fmt.Errorf("ens160: %s: %w", validity, sensors.ErrNotReady)
	}
	return nil
}

func (s *ENS160) readByte(ctx context.Context, register byte) (byte, error) {
	buf := make([]byte, 1)
	if err := s.transport.ReadRegFromAddr(ctx, s.addr, register, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (s *ENS160) readWord(ctx context.Context, register byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := s.transport.ReadRegFromAddr(ctx, s.addr, register, buf); err != nil {
		return 0, err
	}
	return uint16(regcodec.Unsigned(buf, regcodec.LittleEndian)), nil
}

func (s *ENS160) writeWord(ctx context.Context, register byte, value uint16) error {
	buf := make([]byte, 2)
	regcodec.PutUnsigned(buf, regcodec.LittleEndian, uint32(value))
	return s.transport.WriteToAddr(ctx, s.addr, []byte{register, buf[0], buf[1]})
}

func (s *ENS160) writeReg(ctx context.Context, register, value byte) error {
	return s.transport.WriteToAddr(ctx, s.addr, []byte{register, value})
}
