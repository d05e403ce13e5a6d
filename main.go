package main

import "github.com/nextlevelbuilder/coralcrew/cmd"

func main() {
	cmd.Execute()
}
