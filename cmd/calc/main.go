// Command calc adds 1 and 2 with mylib.Calculator and prints the result.
package main

import (
	"fmt"
	"io"
	"os"

	"pageindex/internal/mylib"
)

func main() {
	run(os.Stdout)
}

func run(w io.Writer) {
	var calc mylib.Calculator
	fmt.Fprintln(w, calc.Add(1, 2))
}
