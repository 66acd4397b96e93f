// Package patch rewrites specific lines in freshly cloned package sources
// before they are built. The transforms are deliberately narrow: they target
// the exact source shapes shipped in the pinned releases and no-op when the
// shape is not found, never guess-patching.
package patch

import (
	"fmt"
	"os"
	"strings"
)

const (
	versionGetterMarker = "def get_version():"

	torchLoadCall = "torch.load("
	weightsMarker = "weights_only="
	weightsKwarg  = ", weights_only=False"
)

// RewriteVersionGetter replaces the body of the upstream get_version()
// helper with a literal return of version, so the built wheel reports the
// pinned version exactly.
//
// The upstream function body is assumed to be exactly three lines; the
// marker line plus those three are spliced into a two-line definition. A
// file without the marker, or with fewer than three lines after it, is left
// untouched.
func RewriteVersionGetter(path, version string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed reading %s: %w", path, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")

	index := -1
	for i, line := range lines {
		if strings.TrimRight(line, " \t") == versionGetterMarker {
			index = i
			break
		}
	}
	if index == -1 {
		return nil
	}
	if len(lines) < index+4 {
		return nil
	}

	replaced := append([]string{}, lines[:index]...)
	replaced = append(replaced,
		versionGetterMarker,
		fmt.Sprintf("    return '%s'", version),
	)
	replaced = append(replaced, lines[index+4:]...)

	rewritten := strings.Join(replaced, "\n") + "\n"
	if err := os.WriteFile(path, []byte(rewritten), 0644); err != nil {
		return fmt.Errorf("failed writing %s: %w", path, err)
	}
	return nil
}

// InjectTorchLoadWeightsOnly appends `, weights_only=False` to every
// torch.load(...) call in the file that does not already pass weights_only.
// Newer torch releases default weights_only to true, which breaks the
// pinned packages' checkpoint loading.
//
// The argument scan is naive: it takes the first ')' after the opening
// parenthesis and does not track nesting. The pinned sources never nest
// parentheses inside these calls.
//
// The file is rewritten only when at least one insertion happened, so an
// already patched tree keeps its timestamps.
func InjectTorchLoadWeightsOnly(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed reading %s: %w", path, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	modified := false

	for i, line := range lines {
		patched, changed := injectIntoLine(line)
		if changed {
			lines[i] = patched
			modified = true
		}
	}

	if !modified {
		return nil
	}

	rewritten := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(rewritten), 0644); err != nil {
		return fmt.Errorf("failed writing %s: %w", path, err)
	}
	return nil
}

// injectIntoLine processes every torch.load occurrence in one line,
// returning the rewritten line and whether anything changed.
func injectIntoLine(line string) (string, bool) {
	changed := false
	searchFrom := 0

	for {
		rel := strings.Index(line[searchFrom:], torchLoadCall)
		if rel == -1 {
			break
		}
		openParen := searchFrom + rel + len(torchLoadCall) - 1

		closeRel := strings.Index(line[openParen+1:], ")")
		if closeRel == -1 {
			break
		}
		closeIdx := openParen + 1 + closeRel

		args := line[openParen+1 : closeIdx]
		if strings.Contains(args, weightsMarker) {
			searchFrom = closeIdx + 1
			continue
		}

		line = line[:closeIdx] + weightsKwarg + line[closeIdx:]
		changed = true
		searchFrom = closeIdx + len(weightsKwarg) + 1
	}

	return line, changed
}
