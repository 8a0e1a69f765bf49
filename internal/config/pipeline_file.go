package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-featurepipe/pkg/router"
)

var ErrInvalidPipelineFile = errors.New("invalid pipeline file")

// PipelineFile lists computers to run, in order, with their option tokens.
//
//	computers:
//	  - name: Haralick
//	    args: ["-p", "16", "-w", "2,2,0", "-o", "1,0,0"]
//	  - name: MeanValue
type PipelineFile struct {
	Computers []struct {
		Name string   `yaml:"name"`
		Args []string `yaml:"args"`
	} `yaml:"computers"`
}

// LoadPipelineFile reads the invocations listed in a pipeline file.
func LoadPipelineFile(path string) ([]router.Invocation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open pipeline file")
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)

	var content PipelineFile

	err = dec.Decode(&content)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPipelineFile, "%s: %v", path, err)
	}

	invocations := make([]router.Invocation, 0, len(content.Computers))

	for i, c := range content.Computers {
		if c.Name == "" {
			return nil, errors.Wrapf(ErrInvalidPipelineFile, "%s: computer #%d has no name", path, i+1)
		}

		args := c.Args
		if args == nil {
			args = []string{}
		}

		invocations = append(invocations, router.Invocation{Position: i + 1, Name: c.Name, Args: args})
	}

	return invocations, nil
}

// Concat appends b to a, renumbering positions so they stay the 1-based ranks in the result.
func Concat(a, b []router.Invocation) []router.Invocation {
	res := make([]router.Invocation, 0, len(a)+len(b))
	res = append(res, a...)
	res = append(res, b...)

	for i := range res {
		res[i].Position = i + 1
	}

	return res
}
