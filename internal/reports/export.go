package reports

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

func confidenceText(c *int) string {
	if c == nil {
		return "-"
	}
	return strconv.Itoa(*c)
}

func scopeText(equipmentType string) string {
	if equipmentType == "" {
		return "all"
	}
	return equipmentType
}

// BuildReviewPDF renders the equipment summary and the points needing review.
func BuildReviewPDF(report *ReviewReport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Point Review Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Equipment type: %s", scopeText(report.EquipmentType)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Review threshold: %d", report.ReviewHighMin))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Equipment", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Points", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Normalized %", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Avg confidence", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Best signature", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Coverage %", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, eq := range report.Equipment {
		pdf.CellFormat(50, 6, eq.EquipmentID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, strconv.Itoa(eq.Summary.TotalPoints), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.1f", eq.Summary.NormalizationRate*100), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.1f", eq.Summary.AverageConfidence), "1", 0, "R", false, 0, "")
		pdf.CellFormat(70, 6, eq.BestSignature, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.0f", eq.BestCoverage*100), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	review := report.NeedsReview()
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Points needing review: %d", len(review)))
	pdf.Ln(7)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Equipment", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Point", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Normalized", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Confidence", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Category", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Bucket", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, row := range review {
		pdf.CellFormat(45, 6, row.EquipmentID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, row.DisplayName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, row.NormalizedName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, confidenceText(row.Confidence), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, string(row.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, string(row.ReviewBucket), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReviewXLSX renders summary, equipment and points sheets.
func BuildReviewXLSX(report *ReviewReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	equipmentSheet := "equipment"
	pointsSheet := "points"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(equipmentSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(pointsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Point Review Report")
	_ = f.SetCellValue(summarySheet, "A3", "Equipment type")
	_ = f.SetCellValue(summarySheet, "B3", scopeText(report.EquipmentType))
	_ = f.SetCellValue(summarySheet, "A4", "Review threshold")
	_ = f.SetCellValue(summarySheet, "B4", report.ReviewHighMin)
	_ = f.SetCellValue(summarySheet, "A5", "Generated")
	_ = f.SetCellValue(summarySheet, "B5", report.GeneratedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A6", "Equipment")
	_ = f.SetCellValue(summarySheet, "B6", len(report.Equipment))
	_ = f.SetCellValue(summarySheet, "A7", "Points")
	_ = f.SetCellValue(summarySheet, "B7", len(report.Points))
	_ = f.SetCellValue(summarySheet, "A8", "Needs review")
	_ = f.SetCellValue(summarySheet, "B8", len(report.NeedsReview()))

	headers := []string{"Equipment", "Type", "Points", "Normalized", "Normalization rate", "Avg confidence", "Best signature", "Coverage", "Full match"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(equipmentSheet, cell, h)
	}
	for i, eq := range report.Equipment {
		row := i + 2
		_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("A%d", row), eq.EquipmentID)
		_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("B%d", row), eq.EquipmentType)
		_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("C%d", row), eq.Summary.TotalPoints)
		_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("D%d", row), eq.Summary.NormalizedPoints)
		_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("E%d", row), eq.Summary.NormalizationRate)
		_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("F%d", row), eq.Summary.AverageConfidence)
		_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("G%d", row), eq.BestSignature)
		_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("H%d", row), eq.BestCoverage)
		_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("I%d", row), eq.FullMatch)
	}

	headers = []string{"Equipment", "Point", "Name", "Kind", "Unit", "Normalized", "Confidence", "Category", "Tier", "Review"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(pointsSheet, cell, h)
	}
	for i, p := range report.Points {
		row := i + 2
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("A%d", row), p.EquipmentID)
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("B%d", row), p.PointID)
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("C%d", row), p.DisplayName)
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("D%d", row), string(p.Kind))
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("E%d", row), p.Unit)
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("F%d", row), p.NormalizedName)
		if p.Confidence != nil {
			_ = f.SetCellValue(pointsSheet, fmt.Sprintf("G%d", row), *p.Confidence)
		}
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("H%d", row), string(p.Category))
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("I%d", row), string(p.Tier))
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("J%d", row), string(p.ReviewBucket))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
