// Package seaward acquires measurement reports from Seaward 200/210 series
// handheld test meters over a USB-serial adapter.
//
// The meter cannot be polled: the operator must trigger the download from
// the instrument's keypad, and the instrument only transmits while a host
// keeps requesting. The package therefore splits the job into three parts
// that compose through small interfaces:
//
//   - Discoverer finds the adapter, ranking candidates by how strongly
//     their USB identity matches the CP2102 bridge the meters ship with,
//     and watching for hot-plugged devices until the operator confirms one.
//   - Session drives the request/read loop against an open link, locking
//     onto the transmission when the first byte arrives and ending after a
//     quiet period, while a Recognizer streams progress events.
//   - Extract re-scans the complete raw capture and carves out the
//     validated report block, which a Sink persists as CSV.
//
// The serial transport lives in internal/link; any Read/Write/Drain
// implementation satisfies the Link interface, which is how the session is
// tested without hardware.
package seaward
