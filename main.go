package main

import "github.com/ValentinKolb/kvshim/cmd"

func main() {
	cmd.Execute()
}
