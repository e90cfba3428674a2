package main

import "github.com/Youndhen-tamang/kundcoffee-sub002/cmd"

func main() {
	cmd.Execute()
}
