package main

import "newsletter-agent/cmd"

func main() {
	cmd.Execute()
}
