package main

import (
	"context"
	"fmt"
	"os"

	"github.com/uptimectlhq/uptimectl/internal/apply"
	"github.com/uptimectlhq/uptimectl/internal/logging"
	"github.com/uptimectlhq/uptimectl/internal/status"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logger := logging.New()

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "apply":
		err = apply.Run(ctx, os.Args[2:], apply.Dependencies{Logger: logger})
	case "status":
		err = status.Run(ctx, os.Args[2:], status.Dependencies{Logger: logger})
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "command %s failed: %v\n", cmd, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("uptimectl - declarative UptimeRobot monitor management")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  uptimectl apply [-config /etc/uptimectl/config.yaml] [-f monitors.yaml] [-o text|json]")
	fmt.Println("  uptimectl status [-config /etc/uptimectl/config.yaml] [-f monitors.yaml] [-o text|json]")
	fmt.Println()
	fmt.Println("The API key may also be provided via UPTIMEROBOT_API_KEY.")
}
