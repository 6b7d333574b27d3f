package pdf

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Page is one rasterized document page. Number is the 1-based page number in
// the source PDF.
type Page struct {
	Number int
	Image  image.Image
}

// ExtractPages pulls the scanned page images out of a PDF. Plat documents are
// full-page scans, so each PDF page carries one dominant raster; when a page
// embeds several images the largest one is taken as the page. Pages are
// returned in ascending page order.
//
// A failure here is fatal for the whole document: without page images nothing
// downstream can run.
func ExtractPages(filename string) ([]Page, error) {
	tempDir, err := os.MkdirTemp("", "plat-extract-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(filename, tempDir, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to extract page images from PDF: %w", err)
	}

	byPage, err := collectPageImages(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}
	if len(byPage) == 0 {
		return nil, errors.New("PDF contains no extractable page images")
	}

	pages := make([]Page, 0, len(byPage))
	for num, imgs := range byPage {
		pages = append(pages, Page{Number: num, Image: largestImage(imgs)})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// largestImage picks the image with the largest pixel area.
func largestImage(imgs []image.Image) image.Image {
	best := imgs[0]
	bestArea := area(best)
	for _, img := range imgs[1:] {
		if a := area(img); a > bestArea {
			best, bestArea = img, a
		}
	}
	return best
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

// collectPageImages walks the extraction directory and groups images by page
// number. pdfcpu names files page_<num>_<objname>.<ext>.
func collectPageImages(dir string) (map[int][]image.Image, error) {
	result := make(map[int][]image.Image)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		pageNum, err := parsePageFromFilename(info.Name())
		if err != nil {
			// Not a page image; pdfcpu may emit other artifacts.
			return nil
		}

		img, err := loadImageFile(path)
		if err != nil || img == nil {
			// Skip unreadable images rather than failing the document.
			return nil
		}
		result[pageNum] = append(result[pageNum], img)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// parsePageFromFilename extracts the page number from a pdfcpu extracted
// filename such as page_3_image_1.png.
func parsePageFromFilename(filename string) (int, error) {
	if !strings.HasPrefix(filename, "page_") {
		return 0, errors.New("not a page file")
	}
	parts := strings.Split(filename, "_")
	if len(parts) < 2 {
		return 0, errors.New("invalid filename format")
	}
	pageNum, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, errors.New("invalid page number")
	}
	return pageNum, nil
}

func loadImageFile(path string) (image.Image, error) {
	file, err := os.Open(path) //nolint:gosec // G304: user-provided extraction dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	return img, err
}
