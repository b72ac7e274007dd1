package main

import "cartography/cmd/cartography/cmd"

// Generate an interconnected universe of Stack Exchange domains and
// serve it to a 3D frontend.
func main() {
	cmd.Execute()
}
