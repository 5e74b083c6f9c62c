/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	seaward "github.com/allbin/seaward-capture"
	"github.com/allbin/seaward-capture/internal/history"
	"github.com/allbin/seaward-capture/internal/link"
	"github.com/allbin/seaward-capture/internal/tui"
	"github.com/allbin/seaward-capture/internal/tui/styles"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a measurement report from the meter",
	Long: `Capture the stored measurement dataset from a connected meter.

The tool first locates the USB-serial cable, asking for confirmation when
it cannot be certain, then keeps requesting the dataset while you trigger
the download from the meter's keypad. When the meter finishes transmitting
the validated report is saved as a timestamped CSV file.

Example usage:
  seaward-capture capture
  seaward-capture capture --port /dev/ttyUSB0 --yes
  seaward-capture capture --dir /srv/reports -v`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCapture(cmd); err != nil {
			fmt.Fprintln(os.Stderr, styles.ErrStyle.Render("[✗]"), err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringP("port", "p", "", "skip discovery and use this device")
	captureCmd.Flags().BoolP("yes", "y", false, "use the best ranked candidate without asking")
	captureCmd.Flags().String("dir", "", "directory for saved reports (default from config)")
}

// tuiConfirmer adapts the interactive prompt to the discovery policy.
type tuiConfirmer struct{}

func (tuiConfirmer) Confirm(sig seaward.Signature) (bool, error) {
	ok, err := tui.Confirm(sig)
	if errors.Is(err, tui.ErrInterrupted) {
		return false, seaward.ErrCancelled
	}
	return ok, err
}

func runCapture(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger()
	defer log.Sync()

	device, err := selectDevice(ctx, cmd, log)
	if err != nil {
		return err
	}

	if err := link.EnsureReadWrite(device); err != nil {
		return err
	}

	port, err := link.Open(device,
		link.WithBaudRate(viper.GetInt("serial.baud")),
		link.WithReadTimeout(viper.GetDuration("serial.read-timeout")),
		link.WithInitialDTR(false),
		link.WithInitialRTS(false),
	)
	if err != nil {
		return fmt.Errorf("open %s: %w", device, err)
	}
	defer port.Close()

	// Stale bytes from an aborted transmission would trip the lock early.
	port.FlushInput()

	dir := viper.GetString("capture.dir")
	if d, _ := cmd.Flags().GetString("dir"); d != "" {
		dir = d
	}
	sink := seaward.NewFileSink(dir)

	cfg := seaward.DefaultSessionConfig()
	cfg.RequestPeriod = viper.GetDuration("capture.request-period")
	cfg.QuietTimeout = viper.GetDuration("capture.quiet-timeout")
	cfg.IdleSleep = viper.GetDuration("capture.idle-sleep")

	printBanner(device)

	sess := seaward.NewSession(cfg, port, sink, log, printProgress)
	res, err := sess.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Println()

	if res.Saved {
		fmt.Println(styles.OkStyle.Render("[✓]"), "Report saved to", res.Path)
		recordHistory(log, device, res)
	} else {
		fmt.Println(styles.WarnStyle.Render("[!]"), "No report detected in the received data")
	}
	fmt.Printf("    Meter serial: %s  readings: %d  bytes: %d\n",
		orUnknown(res.SerialNumber), res.Readings, res.TotalBytes)
	fmt.Println(styles.TitleStyle.Render("======== DONE ========"))
	return nil
}

// selectDevice resolves the device path, either directly from --port or by
// running interactive discovery.
func selectDevice(ctx context.Context, cmd *cobra.Command, log *zap.SugaredLogger) (string, error) {
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		return p, nil
	}

	var confirm seaward.Confirmer = tuiConfirmer{}
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		confirm = seaward.ConfirmerFunc(func(sig seaward.Signature) (bool, error) {
			fmt.Println(styles.OkStyle.Render("[✓]"), "Using", sig.Device, orDash(sig.Description))
			return true, nil
		})
	}

	dcfg := seaward.DiscoverConfig{
		PollInterval: viper.GetDuration("discovery.poll-interval"),
		Preferred: seaward.Preferred{
			VID:        viper.GetString("device.vid"),
			PID:        viper.GetString("device.pid"),
			ChipMarker: viper.GetString("device.chip-marker"),
			Vendor:     viper.GetString("device.vendor"),
		},
	}

	fmt.Println(styles.InfoStyle.Render("Looking for the meter cable... plug it in now if it is not connected."))
	d := seaward.NewDiscoverer(dcfg, seaward.SysfsEnumerator{}, confirm, log)
	sig, err := d.Discover(ctx)
	if err != nil {
		return "", err
	}
	if sig.Device == "" {
		return "", seaward.ErrNoDevicePath
	}
	return sig.Device, nil
}

func printBanner(device string) {
	fmt.Println()
	fmt.Println(styles.TitleStyle.Render(" Seaward capture "))
	fmt.Println(styles.InfoStyle.Render("Connected to " + device))
	fmt.Println()
	fmt.Println("On the Seaward meter:")
	fmt.Println("  1. Power on: press & hold Riso + Mode")
	fmt.Println("  2. Start transmit: press & hold Folder/Recall")
	fmt.Println()
	fmt.Println(styles.InfoStyle.Render("Waiting for data... (Ctrl-C to stop)"))
}

// printProgress renders session events as they happen.
func printProgress(ev seaward.Event) {
	switch ev.Kind {
	case seaward.EventLock:
		fmt.Println(styles.OkStyle.Render("[✓]"), "Data incoming, locked on")
	case seaward.EventRequestSent:
		fmt.Println(styles.InfoStyle.Render("[→]"), "Download request sent")
	case seaward.EventSerialNumber:
		fmt.Println(styles.OkStyle.Render("[✓]"), "Meter serial:", ev.Text)
	case seaward.EventFileVersion:
		fmt.Println(styles.InfoStyle.Render("[·]"), "File version:", ev.Text)
	case seaward.EventHeader:
		fmt.Println(styles.OkStyle.Render("[✓]"), "Column header received")
	case seaward.EventReading:
		fmt.Printf("\r%s readings received: %d ", styles.RxStyle.Render("[←]"), ev.Reading)
	}
}

// recordHistory stores the capture in the local history database. Failures
// are logged, not fatal; the CSV on disk is the primary artifact.
func recordHistory(log *zap.SugaredLogger, device string, res seaward.Result) {
	store, err := history.Open(viper.GetString("capture.history-db"))
	if err != nil {
		log.Warnw("history db unavailable", "error", err)
		return
	}
	defer store.Close()

	err = store.Record(history.Capture{
		CapturedAt:  time.Now(),
		Device:      device,
		MeterSerial: res.SerialNumber,
		FileVersion: res.FileVersion,
		Readings:    res.Readings,
		TotalBytes:  res.TotalBytes,
		Path:        res.Path,
	})
	if err != nil {
		log.Warnw("failed to record capture history", "error", err)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
