package main

import (
	_ "time/tzdata"

	"repair-backend/cmd/server/cmd"
)

func main() {
	cmd.Execute()
}
