package main

import "github.com/vietddude/ingestor/internal/cli"

func main() {
	cli.Execute()
}
