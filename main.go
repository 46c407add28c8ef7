package main

import "github.com/ValentinKolb/qmx/cmd"

func main() {
	cmd.Execute()
}
