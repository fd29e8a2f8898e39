/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"comicshelf/internal/domain"
)

func sampleComics(t *testing.T) []domain.Comic {
	t.Helper()
	var out []domain.Comic
	for _, e := range []struct {
		title, author string
		year          int
	}{
		{"Watchmen", "Alan Moore", 1986},
		{"V for Vendetta", "Alan Moore", 1982},
		{"Astérix le Gaulois", "René Goscinny", 1961},
	} {
		c, err := domain.NewComic(e.title, e.author, e.year)
		if err != nil {
			t.Fatalf("NewComic: %v", err)
		}
		out = append(out, c)
	}
	return out
}

func TestExportPDF_CreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "exports", "catalog.pdf")
	if err := ExportPDF(sampleComics(t), out, PDFOptions{}); err != nil {
		t.Fatalf("export pdf: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", b[:min(len(b), 16)])
	}
}

func TestExportPDF_EmptyCatalogAndLongTitles(t *testing.T) {
	dir := t.TempDir()
	if err := ExportPDF(nil, filepath.Join(dir, "empty.pdf"), PDFOptions{Title: "Nothing yet"}); err != nil {
		t.Fatalf("export empty pdf: %v", err)
	}

	long, err := domain.NewComic(strings.Repeat("Very long title ", 20), "Someone", 2000)
	if err != nil {
		t.Fatalf("NewComic: %v", err)
	}
	many := make([]domain.Comic, 0, 120)
	for range 120 {
		many = append(many, long)
	}
	if err := ExportPDF(many, filepath.Join(dir, "many.pdf"), PDFOptions{Landscape: true}); err != nil {
		t.Fatalf("export multi-page pdf: %v", err)
	}
}

func TestExportPNG_DrawsOneLinePerComic(t *testing.T) {
	comics := sampleComics(t)
	out := filepath.Join(t.TempDir(), "catalog.png")
	if err := ExportPNG(comics, out, PNGOptions{}); err != nil {
		t.Fatalf("export png: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantH := 2*pngPadding + (len(comics)+2)*pngLineHeight
	if img.Bounds().Dy() != wantH {
		t.Fatalf("height = %d, want %d", img.Bounds().Dy(), wantH)
	}
	if img.Bounds().Dx() < pngMinWidth {
		t.Fatalf("width %d below minimum", img.Bounds().Dx())
	}
}

func TestRenderCatalogImage_HasInk(t *testing.T) {
	img := renderCatalogImage(nil, PNGOptions{MinWidth: 500})
	if img.Bounds().Dx() != 500 {
		t.Fatalf("width = %d, want 500", img.Bounds().Dx())
	}
	ink := false
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y && !ink; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			if img.RGBAAt(x, y) == (color.RGBA{A: 255}) {
				ink = true
				break
			}
		}
	}
	if !ink {
		t.Fatalf("expected text pixels in rendered image")
	}
}

func TestParseFormatAndWrite(t *testing.T) {
	f, err := ParseFormat(" PNG ")
	if err != nil || f != FormatPNG {
		t.Fatalf("ParseFormat = %q, %v", f, err)
	}
	if _, err := ParseFormat("cbz"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	dir := t.TempDir()
	for _, f := range Formats() {
		out := filepath.Join(dir, "catalog."+string(f))
		if err := Write(f, sampleComics(t), out); err != nil {
			t.Fatalf("Write(%s): %v", f, err)
		}
		if st, err := os.Stat(out); err != nil || st.Size() == 0 {
			t.Fatalf("missing output for %s: %v", f, err)
		}
	}
}
