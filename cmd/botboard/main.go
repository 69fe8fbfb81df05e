package main

import "botboard/internal/cli"

func main() {
	cli.Execute()
}
