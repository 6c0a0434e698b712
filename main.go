// Package main is the entry point for the qnotes query notebook.
package main

import (
	"qnotes/cmd"
)

func main() {
	cmd.Execute()
}
