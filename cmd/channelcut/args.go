package main

import (
	"regexp"
	"strings"
)

var indexRe = regexp.MustCompile(`^\d+(,\d+)*$`)

// listFlags are the channel list options, by the forms they may be written in.
var listFlags = map[string]string{
	"-k":       "--keep",
	"--keep":   "--keep",
	"-r":       "--remove",
	"--remove": "--remove",
}

// expandLists rewrites "-k 1 3" into "-k 1 --keep 3", so a channel list option may be followed by
// several indices.
func expandLists(args []string) []string {
	res := make([]string, 0, len(args))
	current, pending := "", false

	for _, arg := range args {
		switch {
		case arg == "--":
			current, pending = "", false
		case strings.HasPrefix(arg, "-"):
			current = listFlag(arg)
			// a bare option waits for its first value
			_, pending = listFlags[arg]
		case pending:
			pending = false
		case current != "" && indexRe.MatchString(arg):
			res = append(res, current)
		default:
			current = ""
		}

		res = append(res, arg)
	}

	return res
}

// listFlag returns the long name of the channel list option arg opens, or "" if it opens none.
// Inline forms ("-k1", "--keep=1") open a list as well.
func listFlag(arg string) string {
	if long, ok := listFlags[arg]; ok {
		return long
	}

	name, _, found := strings.Cut(arg, "=")
	if found {
		if long, ok := listFlags[name]; ok {
			return long
		}
	}

	if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' {
		return listFlags[arg[:2]]
	}

	return ""
}
