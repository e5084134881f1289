package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// weightExtensions are the weight file formats the backends accept.
var weightExtensions = []string{".gguf", ".bin"}

// ResolveModelPaths normalizes the configured model locations: a leading '~'
// is expanded, and a directory is resolved to the newest weights file inside
// it. Unset paths are left alone; the resource manager refuses to load them
// later.
func (c *Config) ResolveModelPaths() error {
	var err error
	if c.Models.LanguageModelPath, err = resolveWeights(c.Models.LanguageModelPath); err != nil {
		return fmt.Errorf("language model: %w", err)
	}
	if c.Models.TranscriptionModelPath, err = resolveWeights(c.Models.TranscriptionModelPath); err != nil {
		return fmt.Errorf("transcription model: %w", err)
	}
	if c.Models.LlamaBin, err = expandHome(c.Models.LlamaBin); err != nil {
		return err
	}
	if c.Models.WhisperBin, err = expandHome(c.Models.WhisperBin); err != nil {
		return err
	}
	return nil
}

// resolveWeights turns path into a concrete weights file. Files pass through
// untouched; directories are scanned for weight files and the most recently
// modified one wins.
func resolveWeights(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return expanded, nil
	}

	entries, err := os.ReadDir(expanded)
	if err != nil {
		return "", fmt.Errorf("read dir: %w", err)
	}
	type candidate struct {
		path  string
		mtime int64
	}
	var found []candidate
	for _, e := range entries {
		if e.IsDir() || !isWeightFile(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{
			path:  filepath.Join(expanded, e.Name()),
			mtime: fi.ModTime().UnixNano(),
		})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no weights (%s) in %s", strings.Join(weightExtensions, ", "), expanded)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mtime > found[j].mtime })
	return found[0].path, nil
}

func isWeightFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range weightExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/models/llm
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
