package registry

import (
	"fmt"
	"sort"
	"strings"
)

// Report is the outcome of one dependency validation run. Valid is true iff
// no errors were found.
type Report struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// DFS node states for cycle detection.
const (
	unvisited = iota
	visiting
	visited
)

// validate walks the dependency graph from the given roots, aggregating every
// missing-dependency and cycle error instead of stopping at the first. The
// graph is plain name->dependencies data so no reflection is involved.
func validate(adjacency map[string][]string, roots []string) Report {
	state := make(map[string]int, len(adjacency))
	seen := make(map[string]bool)
	var errs []string

	record := func(msg string) {
		if !seen[msg] {
			seen[msg] = true
			errs = append(errs, msg)
		}
	}

	var path []string
	var walk func(name string)
	walk = func(name string) {
		state[name] = visiting
		path = append(path, name)

		for _, dep := range adjacency[name] {
			if _, ok := adjacency[dep]; !ok {
				record(fmt.Sprintf("service %q depends on %q which is not registered", name, dep))
				continue
			}
			switch state[dep] {
			case visiting:
				record(fmt.Sprintf("dependency cycle detected: %s", cyclePath(path, dep)))
			case unvisited:
				walk(dep)
			}
		}

		path = path[:len(path)-1]
		state[name] = visited
	}

	sorted := append([]string(nil), roots...)
	sort.Strings(sorted)
	for _, root := range sorted {
		if _, ok := adjacency[root]; !ok {
			record(fmt.Sprintf("service %q is not registered", root))
			continue
		}
		if state[root] == unvisited {
			walk(root)
		}
	}

	return Report{Valid: len(errs) == 0, Errors: errs}
}

// cyclePath renders the participants of a detected cycle, starting from the
// repeated node: "a -> b -> a".
func cyclePath(path []string, repeat string) string {
	start := 0
	for i, name := range path {
		if name == repeat {
			start = i
			break
		}
	}
	members := append(append([]string(nil), path[start:]...), repeat)
	return strings.Join(members, " -> ")
}
