package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/bml303/i2c-sensors"
	"github.com/bml303/i2c-sensors/air"
	"github.com/bml303/i2c-sensors/cmd/sensors/console"
)

var airCmd = cli.Command{
	Name:  "air",
	Usage: "air quality readout (ENS160)",
	Subcommands: []*cli.Command{
		&airReadCmd,
		&airCompensateCmd,
	},
}

func ens160Flags() []cli.Flag {
	return append(busFlags(),
		&cli.StringFlag{
			Name:  "address",
			Value: "default",
			Usage: "device address (default 0x53, secondary 0x52)",
		},
	)
}

func ens160Options(c *cli.Context) ([]air.ENS160ConfigOption, error) {
	switch c.String("address") {
	case "default":
		return nil, nil
	case "secondary":
		return []air.ENS160ConfigOption{air.WithENS160Address(air.ENS160AddrSecondary)}, nil
	}
	return nil, fmt.Errorf("unknown address: %s", c.String("address"))
}

var airReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Flags:   ens160Flags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		opts, err := ens160Options(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		bus, cleanup, err := openBus(ctx, c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer cleanup()

		s, err := air.NewENS160(ctx, bus, opts...)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		aqi, err := s.GetAirQualityIndex(ctx)
		if errors.Is(err, sensors.ErrNotReady) {
			validity, verr := s.GetValidity(ctx)
			if verr != nil {
				return console.Exit(1, "error reading sensor state: %s", console.Red(verr))
			}
			console.Warnf("sensor data not valid yet: %s", console.Yellow(validity))
			return nil
		}
		if err != nil {
			return console.Exit(1, "error getting air quality index: %s", console.Red(err))
		}
		tvoc, err := s.GetTVOC(ctx)
		if err != nil {
			return console.Exit(1, "error getting TVOC read: %s", console.Red(err))
		}
		eco2, rating, err := s.GetECO2(ctx)
		if err != nil {
			return console.Exit(1, "error getting eCO2 read: %s", console.Red(err))
		}
		console.Printf("%s  air quality: %s (%d)\n", console.PictoTree, console.White(aqi), aqi)
		console.Printf("TVOC: %s ppb\n", console.White(tvoc))
		console.Printf("eCO2: %s ppm (%s)\n", console.White(eco2), console.White(rating))
		return nil
	},
}

var airCompensateCmd = cli.Command{
	Name:  "compensate",
	Usage: "program ambient temperature and humidity compensation",
	Flags: append(ens160Flags(),
		&cli.Float64Flag{
			Name:  "temperature",
			Value: 25.0,
			Usage: "ambient temperature in degrees Celsius",
		},
		&cli.Float64Flag{
			Name:  "humidity",
			Value: 50.0,
			Usage: "ambient relative humidity in percent",
		},
	),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		opts, err := ens160Options(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		bus, cleanup, err := openBus(ctx, c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer cleanup()

		s, err := air.NewENS160(ctx, bus, opts...)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		if err = s.SetAmbientTemperature(ctx, c.Float64("temperature")); err != nil {
			return console.Exit(1, "error setting ambient temperature: %s", console.Red(err))
		}
		if err = s.SetAmbientHumidity(ctx, c.Float64("humidity")); err != nil {
			return console.Exit(1, "error setting ambient humidity: %s", console.Red(err))
		}
		console.Printf("%s compensation programmed\n", console.PictoFinish)
		return nil
	},
}
