package ui

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
)

// PathCompleter completes the file path under the cursor
type PathCompleter struct{}

// Do returns the suffixes that complete the last word of the line and the
// length of the part of that word they extend
func (p *PathCompleter) Do(line []rune, pos int) ([][]rune, int) {
	lineStr := string(line[:pos])

	wordStart := strings.LastIndexAny(lineStr, " \t") + 1
	word := lineStr[wordStart:]

	dirPath, filePrefix := splitPathWord(word)
	if dirPath == "" {
		return nil, 0
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, 0
	}

	var suggestions []string
	for _, entry := range entries {
		name := entry.Name()
		// hidden entries only when asked for
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(filePrefix, ".") {
			continue
		}
		if !strings.HasPrefix(name, filePrefix) {
			continue
		}
		suffix := strings.TrimPrefix(name, filePrefix)
		if entry.IsDir() {
			suffix += "/"
		}
		suggestions = append(suggestions, suffix)
	}
	sort.Strings(suggestions)

	out := make([][]rune, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, []rune(s))
	}
	return out, len([]rune(filePrefix))
}

// splitPathWord splits a partially typed path into the directory to list
// and the prefix of the entry being typed. "~" expands to the home directory.
func splitPathWord(word string) (dir, prefix string) {
	if word == "" {
		return ".", ""
	}
	if word == "~" || strings.HasPrefix(word, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", ""
		}
		word = homeDir + strings.TrimPrefix(word, "~")
	}
	if strings.HasSuffix(word, "/") {
		return word, ""
	}
	return filepath.Dir(word), filepath.Base(word)
}

// GetPathCompleter returns a new PathCompleter instance
func GetPathCompleter() readline.AutoCompleter {
	return &PathCompleter{}
}
