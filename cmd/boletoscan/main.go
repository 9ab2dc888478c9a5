// Package main provides the entry point for the boletoscan CLI.
//
// boletoscan reads QR codes from a camera input, waits for a short warm-up,
// accepts the first code read before the deadline and posts its number to
// the boleto backend.
//
// Usage:
//
//	boletoscan scan --api-url https://api.example.com
//	boletoscan scan --loop --device /dev/hidraw0
//	boletoscan history
//
// See --help for all available options.
package main

// main is the entry point for boletoscan.
func main() {
	Execute()
}
