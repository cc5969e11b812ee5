package main

import "github.com/appser/appser-store/cli"

func main() {
	cli.Execute()
}
