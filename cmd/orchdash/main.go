package main

import "github.com/ppds/orchdash/internal/cmd"

func main() {
	cmd.Execute()
}
