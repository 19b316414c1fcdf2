// Command txspec runs the repository's named test suites and manages the
// databases they run against.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/phrazzld/txspec/internal/redact"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "txspec: %s\n", redact.Error(err))
		os.Exit(1)
	}
}
