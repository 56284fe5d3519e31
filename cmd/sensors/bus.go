package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/bml303/i2c-sensors"
	"github.com/bml303/i2c-sensors/adapter"
	"github.com/bml303/i2c-sensors/cmd/sensors/console"
	"github.com/bml303/i2c-sensors/i2c"
)

func busFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   "mcp2221",
			Usage:   "bus adapter (mcp2221 or generic)",
		},
		&cli.StringFlag{
			Name:    "device",
			Aliases: []string{"d"},
			Value:   "/dev/i2c-1",
			Usage:   "i2c device used by the generic adapter",
		},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	}
}

// openBus builds the I2C bus selected by the adapter flag. The returned
// cleanup function must be called once the command is done with the bus.
func openBus(ctx context.Context, c *cli.Context) (sensors.I2CBus, func(), error) {
	switch c.String("adapter") {
	case "mcp2221":
		ad := adapter.NewMCP2221()
		// probe the adapter so a missing device fails fast
		if _, err := ad.Status(ctx); err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return ad, func() {}, nil
	case "generic", "nanopi":
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		if err = bus.SetSpeed(100 * physic.KiloHertz); err != nil {
			slog.Debug("could not set bus speed", "error", err)
		}
		cleanup := func() {
			if err := bus.Close(); err != nil {
				console.Errorf("error closing bus: %s", console.Red(err))
			}
		}
		return bus, cleanup, nil
	}
	return nil, nil, fmt.Errorf("unsupported adapter: %s", c.String("adapter"))
}
