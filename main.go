package main

import "github.com/KaramelBytes/claimlens/cmd"

func main() {
	cmd.Execute()
}
