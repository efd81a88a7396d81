// Command openapi-compat fails when the committed OpenAPI document drops a
// path, an operation, or a response code that a previous revision promised.
// Typical use compares the spec on the main branch against the working tree:
//
//	git show origin/main:docs/swagger.yaml > /tmp/swagger-base.yaml
//	go run ./cmd/openapi-compat -base /tmp/swagger-base.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultRevision = "docs/swagger.yaml"

var httpMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

// apiSurface is the part of a swagger document clients break on:
// path -> method -> set of response codes.
type apiSurface map[string]map[string]map[string]struct{}

func main() {
	basePath := flag.String("base", "", "swagger.yaml of the revision clients already rely on")
	revisionPath := flag.String("revision", defaultRevision, "swagger.yaml of the candidate revision")
	flag.Parse()

	if strings.TrimSpace(*basePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: openapi-compat -base <path> [-revision <path>]")
		os.Exit(2)
	}

	base, err := loadSurface(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "base spec %s: %v\n", *basePath, err)
		os.Exit(1)
	}
	revision, err := loadSurface(*revisionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "revision spec %s: %v\n", *revisionPath, err)
		os.Exit(1)
	}

	regressions := diffSurfaces(base, revision)
	if len(regressions) > 0 {
		fmt.Fprintf(os.Stderr, "%d backward-incompatible change(s):\n", len(regressions))
		for _, r := range regressions {
			fmt.Fprintf(os.Stderr, "  %s\n", r)
		}
		os.Exit(1)
	}

	fmt.Printf("compatible: %s covers everything in %s\n", *revisionPath, *basePath)
}

func loadSurface(path string) (apiSurface, error) {
	// #nosec G304: paths come from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	pathsRaw, ok := doc["paths"]
	if !ok {
		return nil, errors.New("missing top-level paths field")
	}
	pathsMap, ok := asStringMap(pathsRaw)
	if !ok {
		return nil, errors.New("paths is not an object")
	}

	surface := make(apiSurface, len(pathsMap))
	for route, entry := range pathsMap {
		opsRaw, ok := asStringMap(entry)
		if !ok {
			continue
		}

		ops := make(map[string]map[string]struct{})
		for method, opEntry := range opsRaw {
			method = strings.ToLower(strings.TrimSpace(method))
			if _, known := httpMethods[method]; !known {
				continue
			}
			opMap, ok := asStringMap(opEntry)
			if !ok {
				continue
			}

			codes := make(map[string]struct{})
			if responsesRaw, exists := opMap["responses"]; exists {
				if responses, ok := asStringMap(responsesRaw); ok {
					for code := range responses {
						code = strings.ToLower(strings.TrimSpace(code))
						if code != "" {
							codes[code] = struct{}{}
						}
					}
				}
			}
			ops[method] = codes
		}

		if len(ops) > 0 {
			surface[route] = ops
		}
	}

	return surface, nil
}

// asStringMap tolerates both yaml map flavors.
func asStringMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if ks, ok := k.(string); ok {
				out[ks] = val
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// diffSurfaces reports everything in base that revision no longer serves.
// Additions are always fine.
func diffSurfaces(base, revision apiSurface) []string {
	var regressions []string

	for route, baseOps := range base {
		revOps, ok := revision[route]
		if !ok {
			regressions = append(regressions, fmt.Sprintf("removed path: %s", route))
			continue
		}

		for method, baseCodes := range baseOps {
			revCodes, ok := revOps[method]
			if !ok {
				regressions = append(regressions, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), route))
				continue
			}
			for code := range baseCodes {
				if _, ok := revCodes[code]; !ok {
					regressions = append(regressions, fmt.Sprintf(
						"removed response code: %s %s -> %s", strings.ToUpper(method), route, strings.ToUpper(code)))
				}
			}
		}
	}

	sort.Strings(regressions)
	return regressions
}
