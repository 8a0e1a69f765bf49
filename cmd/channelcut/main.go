// Command channelcut writes a copy of a feature image restricted to some of its channels.
//
//	channelcut -i features.fpr -o subset.fpr --keep 1,3
//	channelcut -i features.fpr -o subset.fpr --keep 3 1
//	channelcut -i features.fpr -o subset.fpr --remove 2 --remove 4
//
// Channels are numbered from 1, in the order the features were computed.
package main

import (
	"fmt"
	"os"

	"github.com/askiada/go-featurepipe/internal/config"
	"github.com/askiada/go-featurepipe/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cmd := newRootCmd(logging.New(cfg, os.Stderr))
	cmd.SetArgs(expandLists(os.Args[1:]))

	err = cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
