/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/moamenhredeen/tcobject/cmd"

func main() {
	cmd.Execute()
}
