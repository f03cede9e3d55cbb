// Eepproxy bridges an I2P destination and a TCP service in both
// directions, gating inbound overlay streams through a verifiable delay
// function before any application data flows.
package main

import "github.com/go-i2p/go-eepproxy/cmd/eepproxy/commands"

func main() {
	commands.Execute()
}
