package main

import "github.com/kmuriithi/vehicleguard/cmd"

func main() {
	cmd.Execute()
}
