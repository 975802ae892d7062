package main

import "flarewatch/cmd"

func main() {
	cmd.Execute()
}
