package main

import "library-ingest/cmd"

func main() {
	cmd.Execute()
}
