package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/bml303/i2c-sensors/cmd/sensors/console"
	"github.com/bml303/i2c-sensors/environment"
)

var tempCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Usage:   "high precision temperature readout (TMP117)",
	Subcommands: []*cli.Command{
		&tempReadCmd,
		&tempOffsetCmd,
	},
}

func tmp117Flags() []cli.Flag {
	return append(busFlags(),
		&cli.StringFlag{
			Name:  "address",
			Value: "default",
			Usage: "device address (default 0x48, alt1 0x49, alt2 0x4A, alt3 0x4B)",
		},
	)
}

func tmp117Options(c *cli.Context) ([]environment.TMP117ConfigOption, error) {
	switch c.String("address") {
	case "default":
		return nil, nil
	case "alt1":
		return []environment.TMP117ConfigOption{environment.WithTMP117Address(environment.TMP117AddrAlt1)}, nil
	case "alt2":
		return []environment.TMP117ConfigOption{environment.WithTMP117Address(environment.TMP117AddrAlt2)}, nil
	case "alt3":
		return []environment.TMP117ConfigOption{environment.WithTMP117Address(environment.TMP117AddrAlt3)}, nil
	}
	return nil, fmt.Errorf("unknown address: %s", c.String("address"))
}

var tempReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Flags:   tmp117Flags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		opts, err := tmp117Options(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		bus, cleanup, err := openBus(ctx, c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer cleanup()

		s, err := environment.NewTMP117(ctx, bus, opts...)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		temp, err := s.GetTemperature(ctx)
		if err != nil {
			return console.Exit(1, "error getting temperature read: %s", console.Red(err))
		}
		console.Printf("%s  %s °C\n", console.PictoThermometer, console.White(temp))
		return nil
	},
}

var tempOffsetCmd = cli.Command{
	Name:  "offset",
	Usage: "read or program the temperature offset register",
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Flags: tmp117Flags(),
			Action: func(c *cli.Context) error {
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				opts, err := tmp117Options(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				bus, cleanup, err := openBus(ctx, c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				defer cleanup()

				s, err := environment.NewTMP117(ctx, bus, opts...)
				if err != nil {
					return console.Exit(1, "sensor initialization error: %s", console.Red(err))
				}
				offset, err := s.GetTemperatureOffset(ctx)
				if err != nil {
					return console.Exit(1, "error reading offset: %s", console.Red(err))
				}
				console.Printf("offset: %s °C\n", console.White(offset))
				return nil
			},
		},
		{
			Name: "set",
			Flags: append(tmp117Flags(),
				&cli.Float64Flag{
					Name:     "value",
					Usage:    "offset in degrees Celsius",
					Required: true,
				},
			),
			Action: func(c *cli.Context) error {
				ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
				opts, err := tmp117Options(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				offset := c.Float64("value")
				answer, err := console.YesOrNo(fmt.Sprintf("program offset of %s °C?", console.White(offset)))
				if err != nil {
					return console.Exit(1, "prompt error: %s", console.Red(err))
				}
				if answer != console.Yes {
					console.Print("aborted")
					return nil
				}
				bus, cleanup, err := openBus(ctx, c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				defer cleanup()

				s, err := environment.NewTMP117(ctx, bus, opts...)
				if err != nil {
					return console.Exit(1, "sensor initialization error: %s", console.Red(err))
				}
				if err = s.SetTemperatureOffset(ctx, offset); err != nil {
					return console.Exit(1, "error setting offset: %s", console.Red(err))
				}
				console.Printf("%s offset programmed\n", console.PictoFinish)
				return nil
			},
		},
	},
}
