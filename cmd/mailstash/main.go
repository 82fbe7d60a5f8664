package main

import "github.com/mailstash/mailstash/internal/cli"

func main() {
	cli.Execute()
}
