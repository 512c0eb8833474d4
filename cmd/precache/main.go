package main

import (
	cmd "github.com/kelvie/precache/internal/cli"
)

func main() {
	cmd.Execute()
}
