package seaward

import (
	"fmt"
	"strings"

	"github.com/allbin/seaward-capture/internal/link"
)

// SysfsEnumerator builds signatures from the kernel's serial device list
// and the USB metadata exposed through sysfs.
type SysfsEnumerator struct{}

// Enumerate implements Enumerator. Ports that disappear between the listing
// and the metadata read are skipped, not errors; hot-unplug makes that a
// normal race.
func (SysfsEnumerator) Enumerate() ([]Signature, error) {
	ports, err := link.ListPorts()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}

	sigs := make([]Signature, 0, len(ports))
	for _, p := range ports {
		info, err := link.GetPortInfo(p)
		if err != nil {
			continue
		}
		sigs = append(sigs, signatureFromPortInfo(info))
	}
	return sigs, nil
}

func signatureFromPortInfo(info *link.PortInfo) Signature {
	sig := Signature{
		Device:       info.Path,
		Name:         info.Name,
		Description:  info.Description,
		Manufacturer: info.Manufacturer,
		Product:      info.Product,
		SerialNumber: info.SerialNumber,
		Interface:    info.InterfaceNumber,
	}
	if info.VendorID != "" {
		sig.VID = "0x" + strings.ToUpper(info.VendorID)
	}
	if info.ProductID != "" {
		sig.PID = "0x" + strings.ToUpper(info.ProductID)
	}
	if info.BusNumber != "" && info.DeviceNumber != "" {
		sig.Location = info.BusNumber + "-" + info.DeviceNumber
	}
	sig.HWID = hardwareID(info)
	return sig
}

// hardwareID composes the stable identity string used for hot-plug
// comparisons and the ignore set. Ports without USB metadata get none.
func hardwareID(info *link.PortInfo) string {
	if info.VendorID == "" || info.ProductID == "" {
		return ""
	}
	id := fmt.Sprintf("USB VID:PID=%s:%s",
		strings.ToUpper(info.VendorID), strings.ToUpper(info.ProductID))
	if info.SerialNumber != "" {
		id += " SER=" + info.SerialNumber
	}
	if info.BusNumber != "" && info.DeviceNumber != "" {
		id += " LOCATION=" + info.BusNumber + "-" + info.DeviceNumber
	}
	return id
}
