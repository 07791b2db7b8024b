package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"icloudctl/internal/application"
)

func findmyCommand() *cli.Command {
	return &cli.Command{
		Name:  "findmy",
		Usage: "Locate and act on devices",
		Commands: []*cli.Command{
			findmyListCommand(),
			findmyLocateCommand(),
			findmyPlaySoundCommand(),
			findmyLostModeCommand(),
		},
	}
}

func findmyListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List devices on the account",
		Flags: []cli.Flag{liveFlag(), jsonFlag()},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			devices, err := a.findmy.Devices(ctx, cmd.Bool("live"))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(devices)
			}

			if len(devices) == 0 {
				fmt.Println("No devices.")
				return nil
			}

			w := newTable()
			fmt.Fprintln(w, "NAME\tMODEL\tBATTERY\tLOCATED")
			for _, dev := range devices {
				battery := "-"
				if dev.BatteryLevel > 0 {
					battery = fmt.Sprintf("%.0f%%", dev.BatteryLevel*100)
				}
				located := "-"
				if dev.HasLocation {
					located = formatTime(dev.LocatedAt)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", dev.Name, dev.Model, battery, located)
			}
			return w.Flush()
		}),
	}
}

func findmyLocateCommand() *cli.Command {
	return &cli.Command{
		Name:      "locate",
		Usage:     "Fetch a fresh location for a device",
		ArgsUsage: "<device-name>",
		Flags:     []cli.Flag{jsonFlag()},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			name := cmd.Args().First()
			if name == "" {
				return fmt.Errorf("device name is required")
			}
			device, err := a.findmy.Locate(ctx, name)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(device)
			}

			fmt.Printf("Device:  %s (%s)\n", device.Name, device.Model)
			if !device.HasLocation {
				fmt.Println("No location available.")
				return nil
			}
			fmt.Printf("Located: %s\n", formatTime(device.LocatedAt))
			fmt.Printf("Coords:  %.5f, %.5f (±%.0fm)\n", device.Latitude, device.Longitude, device.Accuracy)
			fmt.Printf("Map:     %s\n", application.MapsURL(device))
			return nil
		}),
	}
}

func findmyPlaySoundCommand() *cli.Command {
	return &cli.Command{
		Name:      "play-sound",
		Usage:     "Play a sound on a device",
		ArgsUsage: "<device-name>",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			name := cmd.Args().First()
			if name == "" {
				return fmt.Errorf("device name is required")
			}
			device, err := a.findmy.PlaySound(ctx, name)
			if err != nil {
				return err
			}
			fmt.Printf("Playing sound on %s\n", device.Name)
			return nil
		}),
	}
}

func findmyLostModeCommand() *cli.Command {
	return &cli.Command{
		Name:      "lost-mode",
		Usage:     "Put a device into lost mode",
		ArgsUsage: "<device-name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "phone", Usage: "Contact number shown on the lock screen", Required: true},
			&cli.StringFlag{Name: "message", Usage: "Message shown on the lock screen"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			name := cmd.Args().First()
			if name == "" {
				return fmt.Errorf("device name is required")
			}
			device, err := a.findmy.LostMode(ctx, name, cmd.String("phone"), cmd.String("message"))
			if err != nil {
				return err
			}
			fmt.Printf("Lost mode enabled on %s\n", device.Name)
			return nil
		}),
	}
}
