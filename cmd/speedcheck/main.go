// Command speedcheck measures internet download speed with fast.com.
package main

import (
	"os"

	"github.com/raysh454/speedcheck/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
