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
	"os"
	"path/filepath"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"comicshelf/internal/domain"
	"comicshelf/internal/version"
)

// PDFOptions controls PDF export behavior.
// Units are millimetres on an A4 portrait page.
// Built-in Helvetica keeps the file small; text is translated to cp1252, so
// characters outside that code page are replaced.
//
//nolint:revive // keep options grouped and explicit for clarity
type PDFOptions struct {
	Title string
	// Landscape switches the page to A4 landscape.
	Landscape bool
}

const (
	pdfMargin     = 15.0
	pdfRowHeight  = 7.0
	pdfIndexWidth = 12.0
	pdfYearWidth  = 18.0

	// default gofpdf cell margin is 1mm on each side
	pdfCellPadding = 1.0
)

// ExportPDF writes the catalog as a table (#, Title, Author, Year) to outPath.
// The output directory is created when missing.
func ExportPDF(comics []domain.Comic, outPath string, opt PDFOptions) error {
	orientation := "P"
	if opt.Landscape {
		orientation = "L"
	}
	title := titleOrDefault(opt.Title)

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetCreator("comicshelf "+version.String(), true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin + 3)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, strconv.Itoa(pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(comics) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, pdfRowHeight, emptyCatalogText, "", 1, "L", false, 0, "")
		return writePDF(pdf, outPath)
	}

	pageW, _ := pdf.GetPageSize()
	textW := (pageW - 2*pdfMargin - pdfIndexWidth - pdfYearWidth) / 2
	widths := []float64{pdfIndexWidth, textW, textW, pdfYearWidth}

	header := func() {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range []string{"#", "Title", "Author", "Year"} {
			pdf.CellFormat(widths[i], pdfRowHeight, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
	}
	header()

	_, pageH := pdf.GetPageSize()
	for i, c := range comics {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}
		cells := []string{
			strconv.Itoa(i + 1),
			fitText(pdf, tr(c.Title()), widths[1]),
			fitText(pdf, tr(c.Author()), widths[2]),
			strconv.Itoa(c.PublicationYear()),
		}
		for j, s := range cells {
			align := "L"
			if j == 0 || j == 3 {
				align = "R"
			}
			pdf.CellFormat(widths[j], pdfRowHeight, s, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	return writePDF(pdf, outPath)
}

// fitText shortens s with a trailing "..." until it fits into a cell of width w.
func fitText(pdf *gofpdf.Fpdf, s string, w float64) string {
	avail := w - 2*pdfCellPadding
	if pdf.GetStringWidth(s) <= avail {
		return s
	}
	b := []byte(s)
	for len(b) > 0 && pdf.GetStringWidth(string(b)+"...") > avail {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}

func writePDF(pdf *gofpdf.Fpdf, outPath string) error {
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
