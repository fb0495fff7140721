package main

import "rotabot/internal/cli"

func main() {
	cli.Execute()
}
