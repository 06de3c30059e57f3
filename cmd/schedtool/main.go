package main

import "telegram-itmo-schedule/internal/cli"

func main() {
	cli.Execute()
}
