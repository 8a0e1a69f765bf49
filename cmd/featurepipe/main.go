// Command featurepipe computes a multi-channel feature image by running feature computers, loaded
// on demand, one after the other on the same input image.
//
//	featurepipe --input-image in.png --output-image out.fpr \
//		--computer Haralick -p 16 -w 2,2,0 -o 1,0,0 0,1,0 \
//		--computer MeanValue -r 3
//
// Configuration is read from FEATUREPIPE_* environment variables, see internal/config.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/askiada/go-featurepipe/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	os.Exit(run(context.Background(), cfg, os.Args[1:], os.Stdout, os.Stderr))
}
