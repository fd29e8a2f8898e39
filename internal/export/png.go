/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"comicshelf/internal/domain"
)

// PNGOptions controls PNG export behavior.
// - Title: heading line, DefaultTitle when empty
// - MinWidth: lower bound for the image width in pixels
//
//nolint:revive // clarity is preferred
type PNGOptions struct {
	Title    string
	MinWidth int
}

const (
	pngPadding    = 16
	pngLineHeight = 18
	pngMinWidth   = 320
)

var (
	pngBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	pngInk        = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	pngRule       = color.RGBA{R: 160, G: 160, B: 160, A: 255}
)

// ExportPNG renders the catalog as a single image listing one comic per line.
// Text is drawn with the fixed 7x13 bitmap face so output is deterministic.
func ExportPNG(comics []domain.Comic, outPath string, opt PNGOptions) (err error) {
	img := renderCatalogImage(comics, opt)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close png: %w", cerr)
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func catalogLines(comics []domain.Comic) []string {
	if len(comics) == 0 {
		return []string{emptyCatalogText}
	}
	lines := make([]string, 0, len(comics))
	for i, c := range comics {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, c.String()))
	}
	return lines
}

func renderCatalogImage(comics []domain.Comic, opt PNGOptions) *image.RGBA {
	face := basicfont.Face7x13
	title := titleOrDefault(opt.Title)
	lines := catalogLines(comics)

	d := &font.Drawer{Face: face}
	textW := d.MeasureString(title).Ceil()
	for _, l := range lines {
		if w := d.MeasureString(l).Ceil(); w > textW {
			textW = w
		}
	}
	minW := pngMinWidth
	if opt.MinWidth > minW {
		minW = opt.MinWidth
	}
	width := max(textW+2*pngPadding, minW)
	// title, rule gap, then one line per entry
	height := 2*pngPadding + (len(lines)+2)*pngLineHeight

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: pngBackground}, image.Point{}, draw.Src)

	d.Dst = img
	d.Src = image.NewUniform(pngInk)
	ascent := face.Metrics().Ascent.Ceil()

	y := pngPadding + ascent
	drawLine(d, pngPadding, y, title)
	ruleY := pngPadding + pngLineHeight + pngLineHeight/2
	for x := pngPadding; x < width-pngPadding; x++ {
		img.SetRGBA(x, ruleY, pngRule)
	}
	y += 2 * pngLineHeight
	for _, l := range lines {
		drawLine(d, pngPadding, y, l)
		y += pngLineHeight
	}
	return img
}

func drawLine(d *font.Drawer, x, baseline int, s string) {
	d.Dot = fixed.P(x, baseline)
	d.DrawString(s)
}
