package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/classroom/internal/tokenctl"
)

func main() {
	if err := tokenctl.New(os.Stdout).Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
