// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

//go:build !windows

package main

func setupConsole() {}
