// Package ui provides colorized console output for the LLM bridge.
package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// PrintBanner renders the startup banner with the listen address and
// registered provider count.
func PrintBanner(addr string, providerCount int) {
	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)
	muted := color.New(color.FgHiBlack)

	fmt.Println()
	cyan.Println("╔══════════════════════════════════════╗")
	cyan.Print("║            ")
	magenta.Print("LLM  BRIDGE")
	cyan.Println("               ║")
	cyan.Println("╚══════════════════════════════════════╝")
	fmt.Println()
	muted.Printf("  listening on http://%s\n", addr)
	muted.Printf("  providers registered: %d\n", providerCount)
	fmt.Println()
	muted.Println("  • POST /v1/chat       - chat through a provider")
	muted.Println("  • POST /v1/plans      - run a multi-step plan")
	muted.Println("  • GET  /v1/providers  - list providers")
	muted.Println("  • GET  /health        - health check")
	fmt.Println()
}
