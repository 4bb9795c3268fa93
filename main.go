package main

import "github.com/maastricht-university/signbridge/cmd"

func main() {
	cmd.Execute()
}
