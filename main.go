package main

import "github.com/josephlewis42/dooros/cmd"

func main() {
	cmd.Execute()
}
