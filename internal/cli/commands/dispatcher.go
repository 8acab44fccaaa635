package commands

import (
	"context"
	"errors"
	"fmt"

	"FileShelf/internal/config"
)

// Коды завершения процесса.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

func isHelp(a string) bool { return a == "-h" || a == "--help" || a == "help" }

// Dispatch выполняет команду из args (флаги уже разобраны) и возвращает код завершения.
//
//	shelf                  справка, ExitUsage
//	shelf help|-h          справка, ExitOK
//	shelf help <command>   usage команды
//	shelf <command> -h     usage команды
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	if isHelp(args[0]) {
		if len(args) == 1 {
			fmt.Fprint(Out, FormatGlobalUsage())
			return ExitOK
		}
		return showUsage(args[1])
	}

	c, ok := Get(args[0])
	if !ok {
		return unknown(args[0])
	}
	rest := args[1:]
	if len(rest) == 1 && (rest[0] == "-h" || rest[0] == "--help") {
		return showUsage(c.Name())
	}

	err := c.Run(ctx, cfg, rest)
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, ErrUsage) {
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
		return ExitUsage
	}
	fmt.Fprintf(Out, "%s error: %v\n", c.Name(), err)
	return ExitError
}

func showUsage(name string) int {
	c, ok := Get(name)
	if !ok {
		return unknown(name)
	}
	fmt.Fprintf(Out, "Usage: %s\n  %s\n", c.Usage(), c.Description())
	return ExitOK
}

func unknown(name string) int {
	fmt.Fprintf(Out, "Unknown command: %s\n\n", name)
	fmt.Fprint(Out, FormatGlobalUsage())
	return ExitUsage
}
