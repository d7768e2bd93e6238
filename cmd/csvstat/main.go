// Command csvstat inspects, summarizes and charts CSV files from the shell.
package main

import (
	"context"
	"os"

	"github.com/JonMunkholm/csvviz/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}
