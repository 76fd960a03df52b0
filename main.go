package main

import "github.com/Alijeyrad/medicenter_backend/cmd"

func main() {
	cmd.Execute()
}
