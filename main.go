package main

import "github.com/f1data/telemetry-service/cmd"

func main() {
	cmd.Execute()
}
