package main

import "github.com/KaramelBytes/tidyqa-cli/cmd"

func main() {
	cmd.Execute()
}
