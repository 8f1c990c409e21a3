package main

import "github.com/atarasenko/framegrab/internal/cli"

func main() {
	cli.Main()
}
