/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"strings"

	"comicshelf/internal/domain"
)

// Format names an export target.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

// Formats lists the supported formats in the order they are offered.
func Formats() []Format { return []Format{FormatPDF, FormatPNG} }

// ParseFormat normalizes s and checks it is a supported format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatPDF, FormatPNG:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (allowed: pdf, png)", s)
}

// Write renders comics in the given format to outPath with default options.
func Write(format Format, comics []domain.Comic, outPath string) error {
	switch format {
	case FormatPDF:
		return ExportPDF(comics, outPath, PDFOptions{})
	case FormatPNG:
		return ExportPNG(comics, outPath, PNGOptions{})
	}
	return fmt.Errorf("unsupported export format %q", format)
}

func titleOrDefault(t string) string {
	if strings.TrimSpace(t) == "" {
		return DefaultTitle
	}
	return t
}

// DefaultTitle heads every export unless overridden.
const DefaultTitle = "Comic catalog"

// emptyCatalogText replaces the table when there is nothing to list.
const emptyCatalogText = "The catalog is empty."
