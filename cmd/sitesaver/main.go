package main

import "github.com/MrSnakeDoc/sitesaver/internal/cli"

func main() {
	cli.Execute()
}
