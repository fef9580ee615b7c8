package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"wheres-my-food/cmd/notificationsubscriber"
	"wheres-my-food/cmd/orderservice"
)

type runFunc func(ctx context.Context, args []string) error

var modes = map[string]runFunc{
	"order-service":           orderservice.Execute,
	"notification-subscriber": notificationsubscriber.Execute,
}

func main() {
	mode, args := splitMode(os.Args[1:])
	run, ok := modes[mode]
	if !ok {
		if mode != "" {
			fmt.Fprintf(os.Stderr, "unknown mode %q\n", mode)
		}
		printUsage()
		os.Exit(2)
	}

	if err := run(context.Background(), args); err != nil && !errors.Is(err, orderservice.ErrHelp) {
		os.Exit(1)
	}
}

// splitMode pulls --mode out of args; everything else is handed to the
// selected service untouched.
func splitMode(args []string) (string, []string) {
	var mode string
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case strings.HasPrefix(arg, "--mode="):
			mode = strings.TrimPrefix(arg, "--mode=")
		case arg == "--mode" && i+1 < len(args):
			mode = args[i+1]
			i++
		default:
			rest = append(rest, arg)
		}
	}
	return mode, rest
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: wheres-my-food --mode=<mode> [flags]

modes:
  order-service            --config-path=configs/config.yaml --port=3000 --max-concurrent=50
  notification-subscriber  --config-path=configs/config.yaml`)
}
