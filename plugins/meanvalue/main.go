// Command meanvalue packages the MeanValue computer as a loadable unit.
//
// Built with -buildmode=plugin as libMeanValueComputer.so, it is a Go plugin exporting NewComputer.
// Built as an executable named MeanValue-computer, it is a process unit serving the computer over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/askiada/go-featurepipe/computers/meanvalue"
	"github.com/askiada/go-featurepipe/pkg/computer"
)

// NewComputer is the entry point looked up by the host.
func NewComputer() computer.Computer {
	return meanvalue.New()
}

func main() {
	err := computer.Serve(meanvalue.Name, NewComputer)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
