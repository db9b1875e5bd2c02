package main

import "casetrack/internal/cli"

func main() {
	cli.Execute()
}
