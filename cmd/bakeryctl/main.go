package main

import "github.com/angelmondragon/bakery-backend/cmd/bakeryctl/commands"

func main() {
	commands.Execute()
}
