// Command haralick packages the Haralick computer as a loadable unit.
//
// Built with -buildmode=plugin as libHaralickComputer.so, it is a Go plugin exporting NewComputer.
// Built as an executable named Haralick-computer, it is a process unit serving the computer over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/askiada/go-featurepipe/computers/haralick"
	"github.com/askiada/go-featurepipe/pkg/computer"
)

// NewComputer is the entry point looked up by the host.
func NewComputer() computer.Computer {
	return haralick.New()
}

func main() {
	err := computer.Serve(haralick.Name, NewComputer)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
