package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/bml303/i2c-sensors"

	"gobot.io/x/gobot/v2/drivers/i2c"
)

var _ sensors.I2CBus = &GobotBus{}

// GobotBus exposes any gobot I2C connector (Raspberry Pi, BeagleBone,
// Tinkerboard adaptors and the like) as a sensors.I2CBus. Connections are
// opened lazily per device address and reused until Release.
type GobotBus struct {
	mx        sync.Mutex
	connector i2c.Connector
	busNr     int
	conns     map[byte]i2c.Connection
}

type GobotBusConfig struct {
	BusNumber int
}

type GobotBusOption func(*GobotBusConfig)

// WithGobotBusNumber overrides the adaptor's default I2C bus number.
func WithGobotBusNumber(busNr int) GobotBusOption {
	return func(c *GobotBusConfig) {
		c.BusNumber = busNr
	}
}

func NewGobotBus(connector i2c.Connector, opts ...GobotBusOption) *GobotBus {
	config := &GobotBusConfig{
		BusNumber: connector.DefaultI2cBus(),
	}
	for _, opt := range opts {
		opt(config)
	}
	return &GobotBus{
		connector: connector,
		busNr:     config.BusNumber,
		conns:     make(map[byte]i2c.Connection),
	}
}

func (b *GobotBus) connection(address byte) (i2c.Connection, error) {
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not open connection to %x on bus %d: %w", address, b.busNr, err)
	}
	b.conns[address] = conn
	return conn, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from %x: %d", address, n)
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to %x: %d", address, n)
	}
	return nil
}

// ReadRegFromAddr reads a block of data starting at the given register.
func (b *GobotBus) ReadRegFromAddr(ctx context.Context, address byte, register byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	if err := conn.ReadBlockData(register, buffer); err != nil {
		return fmt.Errorf("could not read register %#x from %x: %w", register, address, err)
	}
	return nil
}

// Release closes all cached connections. The bus stays usable; subsequent
// operations reopen connections on demand.
func (b *GobotBus) Release(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var firstErr error
	for address, conn := range b.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not close connection to %x: %w", address, err)
		}
		delete(b.conns, address)
	}
	return firstErr
}
