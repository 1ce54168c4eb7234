package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"crowdflow/services"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code. Service
// errors are written to stdout as an error envelope; anything else goes to
// stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	defer c.close()

	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		if werr := writeError(stdout, svcErr); werr != nil {
			fmt.Fprintf(stderr, "Error: %v\n", werr)
		}
		return exitCode(svcErr.Kind)
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func exitCode(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return 2
	case services.KindConflict:
		return 3
	case services.KindNotFound:
		return 4
	case services.KindComputation:
		return 5
	default:
		return 1
	}
}
