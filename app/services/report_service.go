package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// CycleResultEntry is one contender's tally in a finished cycle report
type CycleResultEntry struct {
	ContenderID uint
	Nickname    string
	VoteCount   int64
	Voters      []string
}

// ReportService renders admin exports
type ReportService interface {
	CycleResultsWorkbook(cycleID uint, startAt, endAt time.Time, entries []*CycleResultEntry) ([]byte, error)
}

// ReportServiceImpl implements ReportService
type ReportServiceImpl struct{}

// NewReportService creates a new report service
func NewReportService() ReportService {
	return &ReportServiceImpl{}
}

// CycleResultsWorkbook builds an xlsx workbook with one row per contender,
// ordered as given (callers pass entries already sorted by vote count).
func (s *ReportServiceImpl) CycleResultsWorkbook(cycleID uint, startAt, endAt time.Time, entries []*CycleResultEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Results"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Rank", "Contender", "Votes", "Voters"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, entry := range entries {
		rowNum := i + 2
		values := []any{
			i + 1,
			entry.Nickname,
			entry.VoteCount,
			strings.Join(entry.Voters, ", "),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 24); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "D", "D", 60); err != nil {
		return nil, err
	}

	info := fmt.Sprintf("Cycle %d: %s to %s",
		cycleID,
		startAt.UTC().Format(time.RFC3339),
		endAt.UTC().Format(time.RFC3339))
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", len(entries)+3), info); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	return buf.Bytes(), nil
}
