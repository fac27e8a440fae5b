package main

import (
	"os"

	"github.com/bloniea/blog-api/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
