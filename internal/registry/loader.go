package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"histoscan/internal/common/fsutil"
	"histoscan/pkg/types"
)

// Candidates builds the ordered artifact candidate list: explicit first
// (when set), then fallbacks. Leading '~' is expanded and duplicates are
// dropped, keeping the first occurrence so priority is preserved.
func Candidates(explicit string, fallbacks []string) []string {
	out := make([]string, 0, len(fallbacks)+1)
	seen := make(map[string]bool, len(fallbacks)+1)
	add := func(p string) {
		if p == "" {
			return
		}
		if exp, err := fsutil.ExpandHome(p); err == nil {
			p = exp
		}
		p = filepath.Clean(p)
		if seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	add(explicit)
	for _, p := range fallbacks {
		add(p)
	}
	return out
}

// Resolve returns the first candidate that exists as a regular file.
func Resolve(candidates []string) (types.Artifact, bool) {
	for _, p := range candidates {
		fi, err := os.Stat(p)
		if err != nil || fi.IsDir() {
			continue
		}
		return types.Artifact{Path: p, SizeBytes: fi.Size()}, true
	}
	return types.Artifact{}, false
}

// Inspect reports which candidates exist together with listings of the
// working directory and each candidate's parent directory.
func Inspect(candidates []string) types.CheckModelResponse {
	r := types.CheckModelResponse{
		FoundPaths:    []string{},
		PossiblePaths: append([]string{}, candidates...),
		Directories:   map[string][]string{},
	}
	wd, err := os.Getwd()
	if err == nil {
		r.WorkingDir = wd
	}
	dirs := []string{"."}
	for _, p := range candidates {
		if fsutil.PathExists(p) {
			r.FoundPaths = append(r.FoundPaths, p)
		}
		dirs = append(dirs, filepath.Dir(p))
	}
	for _, d := range dirs {
		if _, done := r.Directories[d]; done {
			continue
		}
		names, err := fsutil.ListDir(d)
		if err != nil {
			// keep the key so operators see the directory was checked
			r.Directories[d] = nil
			continue
		}
		r.Directories[d] = names
	}
	return r
}

// Describe renders a one-line summary of an inspection for logs.
func Describe(r types.CheckModelResponse) string {
	return fmt.Sprintf("found=%v possible=%v cwd=%s cwd_entries=%v", r.FoundPaths, r.PossiblePaths, r.WorkingDir, r.Directories["."])
}
