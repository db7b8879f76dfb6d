package main

import "github.com/alexdataengineer/efficient-data-pipeline-better-collective/cmd"

func main() {
	cmd.Execute()
}
