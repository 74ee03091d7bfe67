package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/Graph3x/pwdantic/cmd/pwdantic/root"
	"github.com/Graph3x/pwdantic/internal/migrations"
)

func main() {
	os.Exit(run())
}

// run executes the root command and returns the process exit code: 1 for a
// failed command, 2 for a panic.
func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			report(fmt.Errorf("panic: %v", r))
			code = 2
		}
	}()
	if err := root.Command.Execute(); err != nil {
		report(err)
		return 1
	}
	return 0
}

func report(err error) {
	_, _ = color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "pwdantic: %s\n", err)
	if errors.Is(err, migrations.ErrDestructiveMigrationNotForced) {
		_, _ = color.New(color.Faint).Fprintln(os.Stderr, "review it with pwdantic diff, then rerun with --force")
	}
}
