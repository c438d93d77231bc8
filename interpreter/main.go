package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/chidiwilliams/scopeheap/runtime"
)

func main() {
	filePathPtr := flag.String("file", "", "script file")
	configPathPtr := flag.String("config", "", "YAML config file")

	flag.Parse()

	config, err := LoadConfig(*configPathPtr)
	if err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	file, err := os.ReadFile(*filePathPtr)
	if err != nil {
		log.Fatalf("input file not found")
	}

	if err := Run(string(file), config, config.NewLogger(os.Stderr), os.Stderr, os.Stdout); err != nil {
		os.Exit(1)
	}
}

// Run parses and interprets source, reporting any error to stdErr.
func Run(source string, config Config, logger *slog.Logger, stdErr io.Writer, stdOut io.Writer) error {
	statements, err := ParseScript([]byte(source))
	if err != nil {
		_, _ = stdErr.Write([]byte(err.Error() + "\n"))
		return err
	}

	interpreter := NewInterpreter(stdOut, config, logger)
	err = interpreter.Interpret(statements)
	if err != nil {
		if runtime.IsFatal(err) {
			_, _ = stdErr.Write([]byte(fmt.Sprintf("fatal: %s\n", err.Error())))
		} else {
			_, _ = stdErr.Write([]byte(fmt.Sprintf("Error: %s\n", err.Error())))
		}
	}
	return err
}
