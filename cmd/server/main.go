package main

import "github.com/Ashwinpatel7/Eazyvenue/internal/cli"

func main() {
	cli.Execute()
}
