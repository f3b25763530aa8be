package main

import (
	"fmt"
	"os"
)

func main() {
	defer fmt.Println("never printed")

	if len(os.Args) > 3 {
		os.Exit(2) // want "direct os.Exit call in main.main"
	}

	stop := func() { os.Exit(0) }
	_ = stop

	fail()
	os.Exit(1) // want "direct os.Exit call in main.main"
}

func fail() {
	os.Exit(1)
}
