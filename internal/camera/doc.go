// Package camera provides scan.Camera implementations for a command-line
// host.
//
// The process does not decode camera frames itself. An external decoder
// such as zbarcam writes one decoded value per line to stdin, a FIFO or a
// device file, and LineCamera turns each line into a scan event:
//
//	zbarcam --raw /dev/video0 | boletoscan scan
//
// Lines written by zbarcam without --raw carry a symbology prefix
// ("QR-Code:"), which is stripped.
package camera
