package main

import "github.com/petaprogress/peta-progress/cmd"

func main() {
	cmd.Execute()
}
