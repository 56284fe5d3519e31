package environment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bml303/i2c-sensors"
	"github.com/bml303/i2c-sensors/regcodec"
)

// BME280 7-bit I2C addresses. SDO pin level selects between them.
const (
	BME280AddrDefault   byte = 0x77
	BME280AddrSecondary byte = 0x76
)

const bme280PartID = 0x60

// Register map (per datasheet)
const (
	bme280RegPartID    byte = 0xD0
	bme280RegReset     byte = 0xE0
	bme280RegCalibTP   byte = 0x88
	bme280RegCalibHum  byte = 0xE1
	bme280RegCtrlHum   byte = 0xF2
	bme280RegStatus    byte = 0xF3
	bme280RegCtrlMeas  byte = 0xF4
	bme280RegConfig    byte = 0xF5
	bme280RegData      byte = 0xF7
	bme280SoftResetCmd byte = 0xB6
)

const (
	bme280LenCalibTP  = 26
	bme280LenCalibHum = 7
	bme280LenData     = 8
)

// ctrl_meas / config bit layout
const (
	bme280ModeMask       byte = 0x03
	bme280OsrPressShift       = 2
	bme280OsrTempShift        = 5
	bme280OsrMask        byte = 0xFC
	bme280StandbyShift        = 5
	bme280FilterShift         = 2
	bme280StatusMeasure  byte = 0x08
	bme280CtrlHumOsrMask byte = 0x07
)

// Startup time after soft reset before registers are accessible again.
const bme280StartupDelay = 2 * time.Millisecond

// Compensated output limits. Readings outside are clamped.
const (
	bme280TemperatureMin = -40.0
	bme280TemperatureMax = 85.0
	bme280PressureMin    = 30000.0
	bme280PressureMax    = 110000.0
	bme280HumidityMin    = 0.0
	bme280HumidityMax    = 100.0
)

type BME280SensorMode byte

const (
	BME280ModeSleep  BME280SensorMode = 0x00
	BME280ModeForced BME280SensorMode = 0x01
	BME280ModeNormal BME280SensorMode = 0x03
)

func (m BME280SensorMode) String() string {
	switch m {
	case BME280ModeSleep:
		return "sleep"
	case BME280ModeForced:
		return "forced"
	case BME280ModeNormal:
		return "normal"
	}
	return fmt.Sprintf("unknown (%#04x)", byte(m))
}

type BME280Oversampling byte

const (
	BME280OversamplingOff BME280Oversampling = 0x00
	BME280Oversampling1x  BME280Oversampling = 0x01
	BME280Oversampling2x  BME280Oversampling = 0x02
	BME280Oversampling4x  BME280Oversampling = 0x03
	BME280Oversampling8x  BME280Oversampling = 0x04
	BME280Oversampling16x BME280Oversampling = 0x05
)

func (o BME280Oversampling) String() string {
	switch o {
	case BME280OversamplingOff:
		return "off"
	case BME280Oversampling1x:
		return "1x"
	case BME280Oversampling2x:
		return "2x"
	case BME280Oversampling4x:
		return "4x"
	case BME280Oversampling8x:
		return "8x"
	case BME280Oversampling16x:
		return "16x"
	}
	return fmt.Sprintf("unknown (%#04x)", byte(o))
}

type BME280StandbyTime byte

const (
	BME280Standby0ms5   BME280StandbyTime = 0x00
	BME280Standby62ms5  BME280StandbyTime = 0x01
	BME280Standby125ms  BME280StandbyTime = 0x02
	BME280Standby250ms  BME280StandbyTime = 0x03
	BME280Standby500ms  BME280StandbyTime = 0x04
	BME280Standby1000ms BME280StandbyTime = 0x05
	BME280Standby10ms   BME280StandbyTime = 0x06
	BME280Standby20ms   BME280StandbyTime = 0x07
)

type BME280Filter byte

const (
	BME280FilterOff BME280Filter = 0x00
	BME280Filter2x  BME280Filter = 0x01
	BME280Filter4x  BME280Filter = 0x02
	BME280Filter8x  BME280Filter = 0x03
	BME280Filter16x BME280Filter = 0x04
)

type BME280Config struct {
	Address                 byte
	FloatCompensation       bool
	TemperatureOversampling BME280Oversampling
	PressureOversampling    BME280Oversampling
	HumidityOversampling    BME280Oversampling
	Mode                    BME280SensorMode
	Standby                 BME280StandbyTime
	Filter                  BME280Filter
}

type BME280ConfigOption func(*BME280Config)

// WithBME280SecondaryAddress selects the secondary address 0x76 (SDO low).
func WithBME280SecondaryAddress() BME280ConfigOption {
	return func(c *BME280Config) {
		c.Address = BME280AddrSecondary
	}
}

func WithBME280Address(address byte) BME280ConfigOption {
	return func(c *BME280Config) {
		c.Address = address
	}
}

// WithBME280FloatCompensation switches the conversion engine from the
// fixed-point reference formulas to their double precision variants.
func WithBME280FloatCompensation() BME280ConfigOption {
	return func(c *BME280Config) {
		c.FloatCompensation = true
	}
}

func WithBME280Oversampling(temperature, pressure, humidity BME280Oversampling) BME280ConfigOption {
	return func(c *BME280Config) {
		c.TemperatureOversampling = temperature
		c.PressureOversampling = pressure
		c.HumidityOversampling = humidity
	}
}

func WithBME280Mode(mode BME280SensorMode) BME280ConfigOption {
	return func(c *BME280Config) {
		c.Mode = mode
	}
}

func WithBME280Standby(standby BME280StandbyTime) BME280ConfigOption {
	return func(c *BME280Config) {
		c.Standby = standby
	}
}

func WithBME280Filter(filter BME280Filter) BME280ConfigOption {
	return func(c *BME280Config) {
		c.Filter = filter
	}
}

// bme280Calib holds the factory trimming coefficients read from NVM.
type bme280Calib struct {
	t1         uint16
	t2, t3     int16
	p1         uint16
	p2, p3, p4 int16
	p5, p6, p7 int16
	p8, p9     int16
	h1, h3     uint8
	h2, h4, h5 int16
	h6         int8
}

// BME280Readings is one compensated sample of all three channels.
type BME280Readings struct {
	Temperature float64 // degrees Celsius
	Pressure    float64 // Pa
	Humidity    float64 // %RH
}

// BME280 represents a Bosch BME280 pressure/humidity/temperature sensor.
// Typical usage:
//
//	s, err := NewBME280(ctx, bus)
//	readings, err := s.GetReadings(ctx)
//
// The zero configuration samples all channels at 1x in normal mode with a
// 125ms standby. Construction verifies the part id, soft resets the chip and
// loads its calibration coefficients, so a successful NewBME280 means the
// device is present and answering.
type BME280 struct {
	transport sensors.I2CBus
	addr      byte
	partID    byte
	useFloat  bool
	calib     bme280Calib
}

func NewBME280(ctx context.Context, transport sensors.I2CBus, opts ...BME280ConfigOption) (*BME280, error) {
	config := &BME280Config{
		Address:                 BME280AddrDefault,
		TemperatureOversampling: BME280Oversampling1x,
		PressureOversampling:    BME280Oversampling1x,
		HumidityOversampling:    BME280Oversampling1x,
		Mode:                    BME280ModeNormal,
		Standby:                 BME280Standby125ms,
		Filter:                  BME280FilterOff,
	}
	for _, opt := range opts {
		opt(config)
	}
	sensor := &BME280{
		transport: transport,
		addr:      config.Address,
		useFloat:  config.FloatCompensation,
	}
	id, err := sensor.readByte(ctx, bme280RegPartID)
	if err != nil {
		return nil, &sensors.BusError{Op: "bme280 read part id", Addr: sensor.addr, Err: err}
	}
	if id != bme280PartID {
		return nil, &sensors.UnexpectedPartIDError{Addr: sensor.addr, Got: uint32(id), Want: bme280PartID}
	}
	sensor.partID = id
	// The chip may be in an unknown state, reset before touching config.
	if err := sensor.softReset(ctx); err != nil {
		return nil, err
	}
	if err := sensor.readCalibration(ctx); err != nil {
		return nil, err
	}
	if err := sensor.SetOversampling(ctx, config.TemperatureOversampling, config.PressureOversampling, config.HumidityOversampling); err != nil {
		return nil, err
	}
	if err := sensor.SetSensorConfig(ctx, config.Standby, config.Filter); err != nil {
		return nil, err
	}
	if err := sensor.SetSensorMode(ctx, config.Mode); err != nil {
		return nil, err
	}
	return sensor, nil
}

func (s *BME280) Address() byte {
	return s.addr
}

// PartID returns the chip identification byte read during construction.
func (s *BME280) PartID() byte {
	return s.partID
}

func (s *BME280) softReset(ctx context.Context) error {
	if err := s.writeReg(ctx, bme280RegReset, bme280SoftResetCmd); err != nil {
		return &sensors.BusError{Op: "bme280 soft reset", Addr: s.addr, Err: err}
	}
	time.Sleep(bme280StartupDelay)
	return nil
}

func (s *BME280) readCalibration(ctx context.Context) error {
	buf := make([]byte, bme280LenCalibTP)
	if err := s.transport.ReadRegFromAddr(ctx, s.addr, bme280RegCalibTP, buf); err != nil {
		return &sensors.BusError{Op: "bme280 read calibration", Addr: s.addr, Err: err}
	}
	s.calib.t1 = uint16(regcodec.Unsigned(buf[0:2], regcodec.LittleEndian))
	s.calib.t2 = int16(regcodec.Signed(buf[2:4], regcodec.LittleEndian, 16))
	s.calib.t3 = int16(regcodec.Signed(buf[4:6], regcodec.LittleEndian, 16))
	s.calib.p1 = uint16(regcodec.Unsigned(buf[6:8], regcodec.LittleEndian))
	s.calib.p2 = int16(regcodec.Signed(buf[8:10], regcodec.LittleEndian, 16))
	s.calib.p3 = int16(regcodec.Signed(buf[10:12], regcodec.LittleEndian, 16))
	s.calib.p4 = int16(regcodec.Signed(buf[12:14], regcodec.LittleEndian, 16))
	s.calib.p5 = int16(regcodec.Signed(buf[14:16], regcodec.LittleEndian, 16))
	s.calib.p6 = int16(regcodec.Signed(buf[16:18], regcodec.LittleEndian, 16))
	s.calib.p7 = int16(regcodec.Signed(buf[18:20], regcodec.LittleEndian, 16))
	s.calib.p8 = int16(regcodec.Signed(buf[20:22], regcodec.LittleEndian, 16))
	s.calib.p9 = int16(regcodec.Signed(buf[22:24], regcodec.LittleEndian, 16))
	s.calib.h1 = buf[25]

	buf = make([]byte, bme280LenCalibHum)
	if err := s.transport.ReadRegFromAddr(ctx, s.addr, bme280RegCalibHum, buf); err != nil {
		return &sensors.BusError{Op: "bme280 read humidity calibration", Addr: s.addr, Err: err}
	}
	s.calib.h2 = int16(regcodec.Signed(buf[0:2], regcodec.LittleEndian, 16))
	s.calib.h3 = buf[2]
	// H4 and H5 share the nibbles of register 0xE5: H4 is 0xE3<<4 | low
	// nibble of 0xE5, H5 is 0xE6<<4 | high nibble of 0xE5. Both are signed
	// 12-bit values.
	s.calib.h4 = int16(regcodec.SignExtend(uint32(buf[3])<<4|uint32(buf[4]&0x0F), 12))
	s.calib.h5 = int16(regcodec.SignExtend(uint32(buf[5])<<4|uint32(buf[4]>>4), 12))
	s.calib.h6 = int8(buf[6])
	slog.Debug("bme280 calibration loaded", "addr", s.addr,
		"t1", s.calib.t1, "t2", s.calib.t2, "t3", s.calib.t3,
		"h1", s.calib.h1, "h2", s.calib.h2, "h4", s.calib.h4, "h5", s.calib.h5)
	return nil
}

// SetOversampling programs per-channel oversampling. The mode bits of
// ctrl_meas are preserved. Humidity oversampling only takes effect after a
// ctrl_meas write, which this sequence guarantees.
func (s *BME280) SetOversampling(ctx context.Context, temperature, pressure, humidity BME280Oversampling) error {
	if err := s.writeReg(ctx, bme280RegCtrlHum, byte(humidity)&bme280CtrlHumOsrMask); err != nil {
		return &sensors.BusError{Op: "bme280 write ctrl_hum", Addr: s.addr, Err: err}
	}
	ctrlMeas, err := s.readByte(ctx, bme280RegCtrlMeas)
	if err != nil {
		return &sensors.BusError{Op: "bme280 read ctrl_meas", Addr: s.addr, Err: err}
	}
	ctrlMeas = ctrlMeas&bme280ModeMask | byte(pressure)<<bme280OsrPressShift | byte(temperature)<<bme280OsrTempShift
	if err := s.writeReg(ctx, bme280RegCtrlMeas, ctrlMeas); err != nil {
		return &sensors.BusError{Op: "bme280 write ctrl_meas", Addr: s.addr, Err: err}
	}
	return nil
}

// SetSensorConfig programs the standby interval between normal-mode samples
// and the IIR filter coefficient. The SPI interface stays disabled.
func (s *BME280) SetSensorConfig(ctx context.Context, standby BME280StandbyTime, filter BME280Filter) error {
	value := byte(standby)<<bme280StandbyShift | byte(filter)<<bme280FilterShift
	if err := s.writeReg(ctx, bme280RegConfig, value); err != nil {
		return &sensors.BusError{Op: "bme280 write config", Addr: s.addr, Err: err}
	}
	return nil
}

// SetSensorMode switches the power mode while keeping the oversampling bits
// of ctrl_meas untouched.
func (s *BME280) SetSensorMode(ctx context.Context, mode BME280SensorMode) error {
	ctrlMeas, err := s.readByte(ctx, bme280RegCtrlMeas)
	if err != nil {
		return &sensors.BusError{Op: "bme280 read ctrl_meas", Addr: s.addr, Err: err}
	}
	ctrlMeas = ctrlMeas&bme280OsrMask | byte(mode)&bme280ModeMask
	if err := s.writeReg(ctx, bme280RegCtrlMeas, ctrlMeas); err != nil {
		return &sensors.BusError{Op: "bme280 write ctrl_meas", Addr: s.addr, Err: err}
	}
	return nil
}

func (s *BME280) GetSensorMode(ctx context.Context) (BME280SensorMode, error) {
	ctrlMeas, err := s.readByte(ctx, bme280RegCtrlMeas)
	if err != nil {
		return 0, &sensors.BusError{Op: "bme280 read ctrl_meas", Addr: s.addr, Err: err}
	}
	switch ctrlMeas & bme280ModeMask {
	case 0x00:
		return BME280ModeSleep, nil
	case 0x01, 0x02:
		return BME280ModeForced, nil
	}
	return BME280ModeNormal, nil
}

// IsMeasuring reports whether a conversion is currently running. Useful after
// triggering a forced measurement.
func (s *BME280) IsMeasuring(ctx context.Context) (bool, error) {
	status, err := s.readByte(ctx, bme280RegStatus)
	if err != nil {
		return false, &sensors.BusError{Op: "bme280 read status", Addr: s.addr, Err: err}
	}
	return status&bme280StatusMeasure != 0, nil
}

// GetReadings performs a single burst read of all data registers and returns
// the compensated sample. Reading all 8 bytes in one transaction keeps the
// three channels coherent (the chip shadows them until the read completes).
func (s *BME280) GetReadings(ctx context.Context) (BME280Readings, error) {
	buf := make([]byte, bme280LenData)
	if err := s.transport.ReadRegFromAddr(ctx, s.addr, bme280RegData, buf); err != nil {
		return BME280Readings{}, &sensors.BusError{Op: "bme280 read data", Addr: s.addr, Err: err}
	}
	adcPress := regcodec.ADC20(buf[0], buf[1], buf[2])
	adcTemp := regcodec.ADC20(buf[3], buf[4], buf[5])
	adcHum := regcodec.ADC16(buf[6], buf[7])
	slog.Debug("bme280 raw measurement", "adc_t", adcTemp, "adc_p", adcPress, "adc_h", adcHum)

	var readings BME280Readings
	if s.useFloat {
		temperature, tFine := s.calib.compensateTemperatureFloat(adcTemp)
		readings.Temperature = temperature
		readings.Pressure = s.calib.compensatePressureFloat(adcPress, tFine)
		readings.Humidity = s.calib.compensateHumidityFloat(adcHum, tFine)
		return readings, nil
	}
	temperature, tFine := s.calib.compensateTemperature(adcTemp)
	readings.Temperature = temperature
	readings.Pressure = s.calib.compensatePressure(adcPress, tFine)
	readings.Humidity = s.calib.compensateHumidity(adcHum, tFine)
	return readings, nil
}

// GetTemperature performs a measurement read and returns temperature in Celsius.
func (s *BME280) GetTemperature(ctx context.Context) (float64, error) {
	readings, err := s.GetReadings(ctx)
	if err != nil {
		return 0, err
	}
	return readings.Temperature, nil
}

// GetPressure performs a measurement read and returns pressure in Pa.
func (s *BME280) GetPressure(ctx context.Context) (float64, error) {
	readings, err := s.GetReadings(ctx)
	if err != nil {
		return 0, err
	}
	return readings.Pressure, nil
}

// GetHumidity performs a measurement read and returns relative humidity in %RH.
func (s *BME280) GetHumidity(ctx context.Context) (float64, error) {
	readings, err := s.GetReadings(ctx)
	if err != nil {
		return 0, err
	}
	return readings.Humidity, nil
}

func (s *BME280) readByte(ctx context.Context, register byte) (byte, error) {
	buf := make([]byte, 1)
	if err := s.transport.ReadRegFromAddr(ctx, s.addr, register, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (s *BME280) writeReg(ctx context.Context, register, value byte) error {
	return s.transport.WriteToAddr(ctx, s.addr, []byte{register, value})
}

// Fixed-point compensation below follows the Bosch reference formulas.
// Shifts on the signed intermediates are arithmetic; divisions truncate
// toward zero, which matters for negative pressure intermediates.

// compensateTemperature converts a raw 20-bit temperature sample to degrees
// Celsius with 0.01 resolution. The returned tFine carries the fine
// temperature into the pressure and humidity formulas.
func (c *bme280Calib) compensateTemperature(adc uint32) (float64, int32) {
	var1 := ((int32(adc>>3) - int32(c.t1)<<1) * int32(c.t2)) >> 11
	var2 := int32(adc>>4) - int32(c.t1)
	var2 = (((var2 * var2) >> 12) * int32(c.t3)) >> 14
	tFine := var1 + var2
	temperature := float64((tFine*5+128)>>8) / 100.0
	return clamp(temperature, bme280TemperatureMin, bme280TemperatureMax), tFine
}

// compensatePressure converts a raw 20-bit pressure sample to Pa. The 64-bit
// intermediate keeps the full Q24.8 output resolution.
func (c *bme280Calib) compensatePressure(adc uint32, tFine int32) float64 {
	var1 := int64(tFine) - 128000
	var2 := var1 * var1 * int64(c.p6)
	var2 += (var1 * int64(c.p5)) << 17
	var2 += int64(c.p4) << 35
	var1 = (var1*var1*int64(c.p3))>>8 + (var1*int64(c.p2))<<12
	var1 = ((int64(1)<<47 + var1) * int64(c.p1)) >> 33
	if var1 == 0 {
		// avoid division by zero with an all-zero calibration
		return bme280PressureMin
	}
	pressure := 1048576 - int64(adc)
	pressure = ((pressure<<31 - var2) * 3125) / var1
	var1 = (int64(c.p9) * (pressure >> 13) * (pressure >> 13)) >> 25
	var2 = (int64(c.p8) * pressure) >> 19
	pressure = (pressure+var1+var2)>>8 + int64(c.p7)<<4
	return clamp(float64(pressure)/256.0, bme280PressureMin, bme280PressureMax)
}

// compensateHumidity converts a raw 16-bit humidity sample to %RH.
func (c *bme280Calib) compensateHumidity(adc uint32, tFine int32) float64 {
	v := tFine - 76800
	v = (((int32(adc)<<14 - int32(c.h4)<<20 - int32(c.h5)*v) + 16384) >> 15) *
		((((((v*int32(c.h6))>>10)*(((v*int32(c.h3))>>11)+32768))>>10 + 2097152) * int32(c.h2) + 8192) >> 14)
	v -= (((v >> 15) * (v >> 15)) >> 7) * int32(c.h1) >> 4
	if v < 0 {
		v = 0
	}
	if v > 419430400 {
		v = 419430400
	}
	return float64(v>>12) / 1024.0
}

func (c *bme280Calib) compensateTemperatureFloat(adc uint32) (float64, float64) {
	var1 := (float64(adc)/16384.0 - float64(c.t1)/1024.0) * float64(c.t2)
	var2 := float64(adc)/131072.0 - float64(c.t1)/8192.0
	var2 = var2 * var2 * float64(c.t3)
	tFine := var1 + var2
	return clamp(tFine/5120.0, bme280TemperatureMin, bme280TemperatureMax), tFine
}

func (c *bme280Calib) compensatePressureFloat(adc uint32, tFine float64) float64 {
	var1 := tFine/2.0 - 64000.0
	var2 := var1 * var1 * float64(c.p6) / 32768.0
	var2 += var1 * float64(c.p5) * 2.0
	var2 = var2/4.0 + float64(c.p4)*65536.0
	var3 := float64(c.p3) * var1 * var1 / 524288.0
	var1 = (var3 + float64(c.p2)*var1) / 524288.0
	var1 = (1.0 + var1/32768.0) * float64(c.p1)
	if var1 == 0.0 {
		return bme280PressureMin
	}
	pressure := 1048576.0 - float64(adc)
	pressure = (pressure - var2/4096.0) * 6250.0 / var1
	var1 = float64(c.p9) * pressure * pressure / 2147483648.0
	var2 = pressure * float64(c.p8) / 32768.0
	pressure += (var1 + var2 + float64(c.p7)) / 16.0
	return clamp(pressure, bme280PressureMin, bme280PressureMax)
}

func (c *bme280Calib) compensateHumidityFloat(adc uint32, tFine float64) float64 {
	var1 := tFine - 76800.0
	var2 := float64(c.h4)*64.0 + float64(c.h5)/16384.0*var1
	var3 := float64(adc) - var2
	var4 := float64(c.h2) / 65536.0
	var5 := 1.0 + float64(c.h3)/67108864.0*var1
	var6 := 1.0 + float64(c.h6)/67108864.0*var1*var5
	var6 = var3 * var4 * (var5 * var6)
	humidity := var6 * (1.0 - float64(c.h1)*var6/524288.0)
	return clamp(humidity, bme280HumidityMin, bme280HumidityMax)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
