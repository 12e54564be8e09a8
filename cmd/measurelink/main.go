// measurelink is the command line front end of the extraction pipeline.
package main

import (
	"os"

	"github.com/turtacn/MeasureLink/internal/interfaces/cli"
)

func main() {
	os.Exit(cli.Execute())
}
