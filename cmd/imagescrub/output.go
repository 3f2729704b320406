// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
)

// printer writes the report using ANSI escape codes for emphasis.
type printer struct {
	w io.Writer
}

func (p printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.w, format, a...)
}

func (p printer) Println(indented bool, a ...any) {
	if indented {
		fmt.Fprint(p.w, "  ")
	}
	fmt.Fprintln(p.w, a...)
}

func (p printer) Form(indented bool, label string, value any, labelWidth int) {
	if indented {
		fmt.Fprint(p.w, "  ")
	}
	fmt.Fprintf(p.w, "\033[2m%-*s:\033[22m %v\n", labelWidth, label, value)
}

func (p printer) Header(format string, a ...any) {
	fmt.Fprintf(p.w, "\033[4m"+format+"\033[24m\n", a...)
}

func (p printer) Warning(indented bool, s string) {
	if indented {
		fmt.Fprint(p.w, "  ")
	}
	fmt.Fprintf(p.w, "\033[1;33m%s\033[0m\n", s)
}
