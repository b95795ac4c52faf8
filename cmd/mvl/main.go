package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/mvl/cmd/mvl/internal/value"
	"github.com/meenmo/mvl/cmd/mvl/internal/zcb"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "value":
		return value.Run(args[1:], stdin, stdout, stderr)
	case "zcb", "curve":
		return zcb.Run(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mvl <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  value  Value every deal over the projection horizon, write the PV report")
	fmt.Fprintln(w, "  zcb    Build a monthly zero-coupon curve from par-yield quotes (JSON)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `mvl <command> -h` for command-specific help.")
}
