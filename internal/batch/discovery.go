package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// discoverPDFFiles finds all PDF files under the given paths.
func discoverPDFFiles(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var pdfFiles []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			files, err := discoverInDirectory(arg, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			pdfFiles = append(pdfFiles, files...)
		} else if shouldIncludeFile(arg, includePatterns, excludePatterns) {
			pdfFiles = append(pdfFiles, arg)
		}
	}

	return pdfFiles, nil
}

// discoverInDirectory discovers PDF files in a directory, optionally
// recursing into subdirectories.
func discoverInDirectory(dir string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if shouldIncludeFile(path, includePatterns, excludePatterns) {
			files = append(files, path)
		}
		return nil
	}

	return files, filepath.Walk(dir, walkFn)
}

// shouldIncludeFile applies the PDF extension check and include/exclude
// patterns.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return false
	}
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}
	if len(includePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern checks if a file's base name matches any of the patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
