package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/bml303/i2c-sensors/cmd/sensors/console"
	"github.com/bml303/i2c-sensors/environment"
)

var envCmd = cli.Command{
	Name:    "environment",
	Aliases: []string{"env"},
	Usage:   "read temperature, pressure and humidity from a BME280",
	Flags: append(busFlags(),
		&cli.StringFlag{
			Name:  "address",
			Value: "default",
			Usage: "device address (default 0x77, secondary 0x76)",
		},
		&cli.BoolFlag{
			Name:  "float",
			Usage: "use floating point compensation",
		},
	),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		bus, cleanup, err := openBus(ctx, c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer cleanup()

		var opts []environment.BME280ConfigOption
		switch c.String("address") {
		case "default":
		case "secondary":
			opts = append(opts, environment.WithBME280SecondaryAddress())
		default:
			return console.Exit(1, "unknown address: %s", c.String("address"))
		}
		if c.Bool("float") {
			opts = append(opts, environment.WithBME280FloatCompensation())
		}
		s, err := environment.NewBME280(ctx, bus, opts...)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		readings, err := s.GetReadings(ctx)
		if err != nil {
			return console.Exit(1, "error reading sensor: %s", console.Red(err))
		}
		console.Printf("%s  %s °C\n", console.PictoThermometer, console.White(readings.Temperature))
		console.Printf("%s %s hPa\n", console.PictoPin, console.White(readings.Pressure/100.0))
		console.Printf("%s %s %%RH\n", console.PictoHumidity, console.White(readings.Humidity))
		return nil
	},
}
