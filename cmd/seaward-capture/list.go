/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package main

import (
	"fmt"
	"os"

	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	seaward "github.com/allbin/seaward-capture"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List serial devices ranked by meter likelihood",
	Long: `List the serial devices on the system, ranked by how strongly
their USB identity matches the meter cable.

By default only USB-serial interfaces are shown, since the meter cable is
always one of those. Use --all to include on-board serial ports as well.`,
	Run: func(cmd *cobra.Command, args []string) {
		sigs, err := seaward.SysfsEnumerator{}.Enumerate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		all, _ := cmd.Flags().GetBool("all")
		if !all {
			var usb []seaward.Signature
			for _, s := range sigs {
				if s.IsUSBSerial() {
					usb = append(usb, s)
				}
			}
			sigs = usb
		}

		if len(sigs) == 0 {
			fmt.Println("No serial ports found")
			return
		}

		pref := seaward.Preferred{
			VID:        viper.GetString("device.vid"),
			PID:        viper.GetString("device.pid"),
			ChipMarker: viper.GetString("device.chip-marker"),
			Vendor:     viper.GetString("device.vendor"),
		}
		ranked := seaward.Rank(sigs, pref)

		if tableFormat, _ := cmd.Flags().GetBool("table"); tableFormat {
			renderDeviceTable(ranked, pref)
		} else {
			renderDeviceSimple(ranked, pref)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("all", "a", false, "include non-USB serial ports")
	listCmd.Flags().BoolP("table", "t", false, "display output in a styled table format")
}

// renderDeviceTable renders the ranked devices in a static styled table
func renderDeviceTable(sigs []seaward.Signature, pref seaward.Preferred) {
	columns := []table.Column{
		table.NewColumn("score", "Score", 6),
		table.NewColumn("device", "Device", 14),
		table.NewColumn("vidpid", "VID:PID", 14),
		table.NewColumn("description", "Description", 28),
		table.NewColumn("serial", "Serial", 14),
	}

	rows := make([]table.Row, 0, len(sigs))
	for _, sig := range sigs {
		vidpid := ""
		if sig.VID != "" && sig.PID != "" {
			vidpid = sig.VID + ":" + sig.PID
		}
		rows = append(rows, table.NewRow(table.RowData{
			"score":       fmt.Sprintf("%d", seaward.Score(sig, pref)),
			"device":      sig.Device,
			"vidpid":      vidpid,
			"description": sig.Description,
			"serial":      sig.SerialNumber,
		}))
	}

	t := table.New(columns).WithRows(rows)
	fmt.Println(t.View())
}

// renderDeviceSimple renders one line per device
func renderDeviceSimple(sigs []seaward.Signature, pref seaward.Preferred) {
	for _, sig := range sigs {
		fmt.Printf("%3d  %-14s %s\n", seaward.Score(sig, pref), sig.Device, sig.Description)
	}
}
