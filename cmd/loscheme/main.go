// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Command loscheme is the loscheme interpreter CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"nickandperla.net/losp/pkg/loscheme"
)

func main() {
	var (
		evalStr     = flag.String("e", "", "Evaluate a loscheme string")
		file        = flag.String("f", "", "Execute a loscheme file")
		dbPath      = flag.String("db", "", "SQLite database path for definition persistence (empty disables persistence)")
		explainF    = flag.String("explain", "", "LLM provider for error explanations: ollama, openrouter, or anthropic")
		model       = flag.String("model", "", "LLM model name")
		noStdlib    = flag.Bool("no-stdlib", false, "Disable the default prelude")
		ollamaURL   = flag.String("ollama", "http://localhost:11434", "Ollama API URL")
		persistMode = flag.String("persist-mode", "on_demand", "Persistence mode: on_demand, always, or never")
		stats       = flag.Bool("stats", false, "Print humanized timing stats after evaluation")
	)

	flag.Parse()

	opts := []loscheme.Option{}
	if *dbPath != "" {
		opts = append(opts, loscheme.WithSQLiteStore(*dbPath))
	}
	if *noStdlib {
		opts = append(opts, loscheme.WithNoStdlib())
	}

	mode, ok := loscheme.ParsePersistMode(*persistMode)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown persist mode: %s (use on_demand, always, or never)\n", *persistMode)
		os.Exit(1)
	}
	opts = append(opts, loscheme.WithPersistMode(mode))

	switch *explainF {
	case "ollama":
		opts = append(opts, loscheme.WithOllama(*ollamaURL, *model))
	case "openrouter":
		opts = append(opts, loscheme.WithOpenRouter(*model))
	case "anthropic":
		opts = append(opts, loscheme.WithAnthropic(*model))
	case "":
	default:
		fmt.Fprintf(os.Stderr, "unknown -explain provider: %s\n", *explainF)
		os.Exit(1)
	}

	rt := loscheme.New(opts...)
	defer rt.Close()

	start := time.Now()
	var result string
	var err error

	switch {
	case *file != "":
		result, err = rt.EvalFile(*file)
	case *evalStr != "":
		result, err = rt.Eval(*evalStr)
	case !isTerminal(os.Stdin):
		input, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %v\n", readErr)
			os.Exit(1)
		}
		result, err = rt.Eval(string(input))
	default:
		runREPL(rt, *stats)
		return
	}

	if *stats {
		elapsed := time.Since(start)
		fmt.Fprintf(os.Stderr, "; elapsed: %s (%s ns)\n", elapsed, humanize.Comma(elapsed.Nanoseconds()))
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if result != "" {
		fmt.Println(result)
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
