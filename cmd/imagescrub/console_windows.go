// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

//go:build windows

package main

import (
	"log"

	"golang.org/x/sys/windows"
)

// setupConsole enables ANSI escape sequences in the Windows console.
func setupConsole() {
	handle, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE)
	if err != nil {
		log.Printf("failed to get console handle: %s", err)
		return
	}
	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		// Not a console, e.g. redirected to a file.
		return
	}
	mode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
	if err := windows.SetConsoleMode(handle, mode); err != nil {
		log.Printf("failed to set console mode: %s", err)
	}
}
