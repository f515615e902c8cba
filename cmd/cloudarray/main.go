package main

import "github.com/arraylab/cloudarray/internal/cli"

func main() {
	cli.Execute()
}
