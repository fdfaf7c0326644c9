package main

import "github.com/pictoria-app/pictoria/internal/cli"

func main() {
	cli.Execute()
}
