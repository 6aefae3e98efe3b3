// Package msgs defines the scan event published by the enrollment device.
//
// Producer: enrollment device
// Consumer: attendance server, monitors
package msgs
