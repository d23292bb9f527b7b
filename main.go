package main

import "github.com/kanadm12/Spartis-App/cmd"

func main() {
	cmd.Execute()
}
