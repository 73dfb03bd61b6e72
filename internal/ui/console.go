// Package ui provides colorized console output for the LLM bridge.
// Structured logs go through slog; this package is the human-facing
// terminal layer for startup and failover events.
package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

var (
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)

	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	infoText    = color.New(color.FgCyan)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)
)

// PrintBridgeInfo logs general bridge information.
func PrintBridgeInfo(msg string) {
	infoBadge.Print("[BRIDGE]")
	fmt.Print(" ")
	infoText.Println(msg)
}

// PrintProviderReady announces a provider registered at startup.
func PrintProviderReady(name, model string) {
	successBadge.Print(" READY ")
	fmt.Print(" ")
	accentText.Print(name)
	mutedText.Printf(" (%s)\n", model)
}

// PrintProviderDown announces a provider leaving the rotation.
func PrintProviderDown(name, reason string) {
	errorBadge.Print(" DOWN ")
	fmt.Print(" ")
	errorText.Print(name)
	mutedText.Printf(" out of rotation (%s)\n", reason)
}

// PrintProviderRevived announces a provider returning to the rotation.
func PrintProviderRevived(name string) {
	warningBadge.Print("[REVIVED]")
	fmt.Print(" ")
	successText.Println(name)
}

// PrintRequestSuccess logs a completed request with its latency.
func PrintRequestSuccess(provider string, latency time.Duration) {
	successBadge.Print(" OK ")
	fmt.Print(" ")
	accentText.Print(provider)
	mutedText.Printf(" %s\n", latency.Round(time.Millisecond))
}

// PrintError logs an error message with red styling.
func PrintError(msg string) {
	errorBadge.Print(" ERROR ")
	fmt.Print(" ")
	errorText.Println(msg)
}

// PrintWarning logs a warning message.
func PrintWarning(msg string) {
	fmt.Print("⚠️  ")
	warningBadge.Print("[WARN]")
	fmt.Print(" ")
	warningText.Println(msg)
}
