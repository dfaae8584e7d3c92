/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ssargent/slow5/cmd/slow5/cmd"

func main() {
	cmd.Execute()
}
