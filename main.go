package main

import (
	"fmt"
	"os"
)

func CheckError(err error) {
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}

func main() {
	configureCliCommands()
}
