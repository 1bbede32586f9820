package main

import "yqhp/fractal-engine/cmd"

func main() {
	cmd.Execute()
}
