package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"eldercare-server/models"
)

const (
	feedbackSheet = "Feedback"
	summarySheet  = "Summary"
)

var feedbackHeaders = []string{
	"Feedback ID", "Task ID", "Provider ID", "Need", "Elder Name", "Rating", "Comment", "Created At",
}

// BuildFeedbackWorkbook renders feedback rows and their summary as an .xlsx file
func BuildFeedbackWorkbook(rows []models.Feedback, summary *models.FeedbackSummary) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(feedbackSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	for i, header := range feedbackHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(feedbackSheet, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetRowStyle(feedbackSheet, 1, 1, headerStyle)
	}

	for i, fb := range rows {
		var providerID uint
		var need string
		if fb.Task != nil {
			providerID = fb.Task.ProviderID
			if fb.Task.Need != nil {
				need = fb.Task.Need.Title
			}
		}
		values := []interface{}{
			fb.ID,
			fb.TaskID,
			providerID,
			need,
			fb.ElderName,
			fb.Rating,
			fb.Comment,
			fb.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(feedbackSheet, cell, value)
		}
	}
	f.SetColWidth(feedbackSheet, "A", "H", 15)
	f.SetColWidth(feedbackSheet, "G", "G", 40)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	if summary == nil {
		summary = &models.FeedbackSummary{}
	}
	f.SetCellValue(summarySheet, "A1", "Total feedback")
	f.SetCellValue(summarySheet, "B1", summary.Total)
	f.SetCellValue(summarySheet, "A2", "Average rating")
	f.SetCellValue(summarySheet, "B2", summary.AverageRating)
	for star := 1; star <= 5; star++ {
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", star+3), fmt.Sprintf("%d star", star))
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", star+3), summary.StarCounts[star-1])
	}
	f.SetColWidth(summarySheet, "A", "A", 20)

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("error removing default sheet: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %v", err)
	}
	return buf, nil
}
