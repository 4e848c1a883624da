package main

import "github.com/kibbyd/autonomy-plane/internal/cli"

func main() {
	cli.Execute()
}
