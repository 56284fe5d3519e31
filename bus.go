package sensors

import (
	"context"
)

type BusReader interface {
	Read(ctx context.Context, buffer []byte) error
}

type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// AddressableRegisterReader selects a register on the device and reads
// len(buffer) bytes from it in a single bus transaction (write-then-read
// with repeated start where the transport supports it).
type AddressableRegisterReader interface {
	ReadRegFromAddr(ctx context.Context, address byte, register byte, buffer []byte) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
	AddressableRegisterReader
}

type I2CDevice interface {
	BusReader
	BusWriter
}
