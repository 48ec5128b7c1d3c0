// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	shellwords "github.com/kballard/go-shellquote"
	"golang.org/x/term"

	"nickandperla.net/losp/pkg/loscheme"
)

func printBanner() {
	fmt.Println("loscheme REPL (Ctrl+D to exit)")
	fmt.Println("Meta-commands: :load FILE   :save NAME   :history NAME [LIMIT]   :explain")
	fmt.Println()
}

func runREPL(rt *loscheme.Runtime, stats bool) {
	printBanner()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		runBasicREPL(rt, stats)
		return
	}
	runRawREPL(rt, stats)
}

// lastErr remembers the most recent evaluation error so the :explain
// meta-command can request an explanation for it without the user having to
// retype the failing form.
var lastErr error
var lastSrc string

func handleLine(rt *loscheme.Runtime, input string, stats bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return
	}

	if strings.HasPrefix(trimmed, ":") {
		runMeta(rt, trimmed)
		return
	}

	start := time.Now()
	result, err := rt.Eval(input)
	if stats {
		fmt.Printf("; %s\n", humanize.Time(start))
	}
	if err != nil {
		lastErr, lastSrc = err, input
		fmt.Printf("error: %v\n", err)
		return
	}
	if result != "" {
		fmt.Println(result)
	}
	if name, ok := definedName(input); ok {
		rt.AutoPersistDefine(name)
	}
}

// definedName reports the name a top-level (define NAME ...) form binds, so
// the REPL can auto-persist it without the evaluator itself knowing about
// persistence.
func definedName(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "(define ") {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "(define "))
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

func runMeta(rt *loscheme.Runtime, line string) {
	args, err := shellwords.Split(line)
	if err != nil || len(args) == 0 {
		fmt.Println("error: malformed meta-command")
		return
	}
	switch args[0] {
	case ":load":
		if len(args) != 2 {
			fmt.Println("usage: :load FILE")
			return
		}
		if err := rt.LoadFile(args[1]); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		fmt.Println("; loaded")
	case ":save":
		if len(args) != 2 {
			fmt.Println("usage: :save NAME")
			return
		}
		if err := rt.Save(args[1]); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		fmt.Println("; saved")
	case ":history":
		if len(args) != 2 && len(args) != 3 {
			fmt.Println("usage: :history NAME [LIMIT]")
			return
		}
		limit := 0
		if len(args) == 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				fmt.Printf("error: bad LIMIT %q\n", args[2])
				return
			}
			limit = n
		}
		entries, err := rt.History(args[1], limit)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		if len(entries) == 0 {
			fmt.Println("; no history")
			return
		}
		for _, e := range entries {
			fmt.Printf("; v%d (%s): %s\n", e.Version, e.Ts, e.Value)
		}
	case ":explain":
		if lastErr == nil {
			fmt.Println("; no error to explain")
			return
		}
		id, ok := rt.ExplainAsync(lastSrc, lastErr)
		if !ok {
			fmt.Println("; no -explain provider configured")
			return
		}
		fmt.Printf("; explanation requested (id: %s), awaiting...\n", id)
		ex, _ := rt.AwaitExplain(id)
		if ex.Err != nil {
			fmt.Printf("; explanation failed: %v\n", ex.Err)
			return
		}
		fmt.Printf("; explanation: %s\n", ex.Text)
	default:
		fmt.Printf("unknown meta-command: %s\n", args[0])
	}
}

// runBasicREPL handles non-TTY input (piped input, tests).
func runBasicREPL(rt *loscheme.Runtime, stats bool) {
	reader := bufio.NewReader(os.Stdin)
	var multiline strings.Builder
	inMultiline := false

	for {
		if inMultiline {
			fmt.Print("... ")
		} else {
			fmt.Print(">>> ")
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}
		line = strings.TrimRight(line, "\r\n")

		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			multiline.WriteString("\n")
			inMultiline = true
			continue
		}

		var input string
		if inMultiline {
			multiline.WriteString(line)
			input = multiline.String()
			multiline.Reset()
			inMultiline = false
		} else {
			input = line
		}

		handleLine(rt, input, stats)
	}
}

// runRawREPL handles TTY input via raw mode so Ctrl+D/Ctrl+C/backspace/arrow
// keys behave as expected without pulling in a full readline library.
func runRawREPL(rt *loscheme.Runtime, stats bool) {
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set raw mode: %v\n", err)
		runBasicREPL(rt, stats)
		return
	}
	defer term.Restore(fd, oldState)

	var multiline strings.Builder
	inMultiline := false

	for {
		if inMultiline {
			fmt.Print("... ")
		} else {
			fmt.Print(">>> ")
		}

		line, eof := readLineRaw(fd)
		if eof {
			fmt.Print("\r\n")
			return
		}

		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			multiline.WriteString("\n")
			inMultiline = true
			continue
		}

		var input string
		if inMultiline {
			multiline.WriteString(line)
			input = multiline.String()
			multiline.Reset()
			inMultiline = false
		} else {
			input = line
		}

		handleLineRaw(rt, input, stats)
	}
}

// handleLineRaw is handleLine with \n replaced by \r\n in its printed
// output, since the terminal is in raw mode.
func handleLineRaw(rt *loscheme.Runtime, input string, stats bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return
	}
	if strings.HasPrefix(trimmed, ":") {
		runMeta(rt, trimmed)
		return
	}
	start := time.Now()
	result, err := rt.Eval(input)
	if stats {
		fmt.Printf("; %s\r\n", humanize.Time(start))
	}
	if err != nil {
		lastErr, lastSrc = err, input
		fmt.Printf("error: %v\r\n", err)
		return
	}
	if result != "" {
		fmt.Print(strings.ReplaceAll(result, "\n", "\r\n"))
		fmt.Print("\r\n")
	}
	if name, ok := definedName(input); ok {
		rt.AutoPersistDefine(name)
	}
}

// readLineRaw reads a single line of input in raw mode, with basic
// Emacs-style line editing (arrow keys, Ctrl+A/E/K/U, backspace, delete).
// Returns the line and whether EOF (Ctrl+D on an empty line) was seen.
func readLineRaw(fd int) (string, bool) {
	var line []rune
	cursor := 0
	buf := make([]byte, 1)

	redrawFromCursor := func() {
		fmt.Print("\x1b[K")
		for i := cursor; i < len(line); i++ {
			fmt.Print(string(line[i]))
		}
		if cursor < len(line) {
			fmt.Printf("\x1b[%dD", len(line)-cursor)
		}
	}

	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return string(line), true
		}
		b := buf[0]

		switch b {
		case 0x04: // Ctrl+D
			if len(line) == 0 {
				return "", true
			}
			if cursor < len(line) {
				line = append(line[:cursor], line[cursor+1:]...)
				redrawFromCursor()
			}

		case 0x03: // Ctrl+C
			fmt.Print("^C\r\n")
			return "", false

		case 0x0d, 0x0a: // Enter
			fmt.Print("\r\n")
			return string(line), false

		case 0x7f, 0x08: // Backspace
			if cursor > 0 {
				cursor--
				line = append(line[:cursor], line[cursor+1:]...)
				fmt.Print("\b")
				redrawFromCursor()
			}

		case 0x1b: // ESC: arrow key sequence
			nextBuf := make([]byte, 1)
			n, err := os.Stdin.Read(nextBuf)
			if err != nil || n == 0 {
				continue
			}
			if nextBuf[0] != '[' {
				continue
			}
			arrowBuf := make([]byte, 1)
			n, err = os.Stdin.Read(arrowBuf)
			if err != nil || n == 0 {
				continue
			}
			switch arrowBuf[0] {
			case 'C':
				if cursor < len(line) {
					cursor++
					fmt.Print("\x1b[C")
				}
			case 'D':
				if cursor > 0 {
					cursor--
					fmt.Print("\x1b[D")
				}
			case '3':
				delBuf := make([]byte, 1)
				os.Stdin.Read(delBuf)
				if delBuf[0] == '~' && cursor < len(line) {
					line = append(line[:cursor], line[cursor+1:]...)
					redrawFromCursor()
				}
			}

		case 0x01: // Ctrl+A
			if cursor > 0 {
				fmt.Printf("\x1b[%dD", cursor)
				cursor = 0
			}

		case 0x05: // Ctrl+E
			if cursor < len(line) {
				fmt.Printf("\x1b[%dC", len(line)-cursor)
				cursor = len(line)
			}

		case 0x0b: // Ctrl+K
			if cursor < len(line) {
				line = line[:cursor]
				fmt.Print("\x1b[K")
			}

		case 0x15: // Ctrl+U
			if cursor > 0 {
				fmt.Printf("\x1b[%dD", cursor)
				line = line[cursor:]
				cursor = 0
				redrawFromCursor()
			}

		default:
			if b >= 0x20 && b < 0x7f {
				r := rune(b)
				newLine := make([]rune, 0, len(line)+1)
				newLine = append(newLine, line[:cursor]...)
				newLine = append(newLine, r)
				newLine = append(newLine, line[cursor:]...)
				line = newLine
				cursor++
				fmt.Print(string(r))
				if cursor < len(line) {
					redrawFromCursor()
				}
			}
		}
	}
}
