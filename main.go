package main

import "github.com/chrisdamba/parksim/cmd"

func main() {
	cmd.Execute()
}
