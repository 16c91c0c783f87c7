// Package main is the entry point for the tcam CLI tool.
package main

import (
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/cmd"
)

func main() {
	cmd.Execute()
}
