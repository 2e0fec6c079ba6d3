package main

import "github.com/rideinsights-labs/rideinsights/internal/cli"

func main() {
	cli.Execute()
}
