package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var colorEnabled = isatty.IsTerminal(os.Stdout.Fd())

func printOK(format string, args ...interface{}) {
	printStatus(true, format, args...)
}

func printFail(format string, args ...interface{}) {
	printStatus(false, format, args...)
}

// printStatus prints a pass/fail status line, coloring the mark green or
// red when stdout is a terminal and falling back to plain ✓/✗ otherwise.
func printStatus(ok bool, format string, args ...interface{}) {
	mark := "✓"
	printer := color.New(color.FgGreen)
	if !ok {
		mark = "✗"
		printer = color.New(color.FgRed)
	}
	if !colorEnabled {
		fmt.Printf("%s %s\n", mark, fmt.Sprintf(format, args...))
		return
	}
	printer.Printf("%s ", mark)
	fmt.Printf("%s\n", fmt.Sprintf(format, args...))
}
