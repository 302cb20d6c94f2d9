package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateReceipt(data ReceiptData) (string, error)
}

type ReceiptGenerator struct {
	RootDir  string // корень хранения, например "./files"
	FontPath string // путь до TTF с кириллицей
	fontName string
}

type ReceiptLine struct {
	Name   string
	Count  int
	Amount int
}

type ReceiptData struct {
	OrderNumber string
	Customer    string
	Lines       []ReceiptLine
	Total       int
	CreatedAt   time.Time
	Filename    string // если пусто — сгенерируем
}

func NewReceiptGenerator(rootDir, fontPath string) *ReceiptGenerator {
	return &ReceiptGenerator{RootDir: rootDir, FontPath: fontPath, fontName: "AppFont"}
}

func (g *ReceiptGenerator) newDoc() *gofpdf.Fpdf {
	doc := gofpdf.New("P", "mm", "A4", "")
	if g.FontPath != "" {
		doc.AddUTF8Font(g.fontName, "", g.FontPath)
		doc.SetFont(g.fontName, "", 12)
	} else {
		doc.SetFont("Helvetica", "", 12)
	}
	return doc
}

// GenerateReceipt — PDF-квитанция по заказу, возвращает путь к файлу.
func (g *ReceiptGenerator) GenerateReceipt(data ReceiptData) (string, error) {
	doc := g.newDoc()
	doc.AddPage()

	doc.SetFontSize(16)
	doc.CellFormat(0, 10, fmt.Sprintf("Receipt %s", data.OrderNumber), "", 1, "C", false, 0, "")
	doc.SetFontSize(12)
	doc.CellFormat(0, 8, data.CreatedAt.Format("02.01.2006 15:04"), "", 1, "C", false, 0, "")
	doc.Ln(4)
	doc.CellFormat(0, 8, fmt.Sprintf("Customer: %s", data.Customer), "", 1, "L", false, 0, "")
	doc.Ln(4)

	// таблица позиций
	doc.SetFontSize(11)
	doc.CellFormat(110, 8, "Item", "1", 0, "L", false, 0, "")
	doc.CellFormat(25, 8, "Qty", "1", 0, "C", false, 0, "")
	doc.CellFormat(40, 8, "Amount", "1", 1, "R", false, 0, "")
	for _, line := range data.Lines {
		doc.CellFormat(110, 8, line.Name, "1", 0, "L", false, 0, "")
		doc.CellFormat(25, 8, fmt.Sprintf("%d", line.Count), "1", 0, "C", false, 0, "")
		doc.CellFormat(40, 8, fmt.Sprintf("%d", line.Amount), "1", 1, "R", false, 0, "")
	}
	doc.SetFontSize(12)
	doc.CellFormat(135, 10, "Total", "", 0, "R", false, 0, "")
	doc.CellFormat(40, 10, fmt.Sprintf("%d", data.Total), "1", 1, "R", false, 0, "")

	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("receipt_%s.pdf", data.OrderNumber)
	}
	dir := filepath.Join(g.RootDir, "receipts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("receipt dir: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := doc.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return path, nil
}
