// Package report exports users and questions to an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-quiz/internal/progress"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

// Sheet names.
const (
	UsersSheet     = "Users"
	QuestionsSheet = "Questions"
)

var (
	userHeader     = []any{"Username", "Level", "XP", "Correct", "Wrong", "Moderator", "Unlocked", "Achievements"}
	questionHeader = []any{"Module", "ID", "Question", "A", "B", "C", "D", "Correct"}
)

// Report is a built workbook. Close releases it.
type Report struct {
	file *excelize.File
}

// Build writes users and modules into a new workbook.
func Build(users []store.User, modules []quiz.Module) (*Report, error) {
	f := excelize.NewFile()
	r := &Report{file: f}

	if err := f.SetSheetName("Sheet1", UsersSheet); err != nil {
		r.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(QuestionsSheet); err != nil {
		r.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}

	rows := make([][]any, 0, len(users))
	for _, u := range users {
		rows = append(rows, []any{
			u.Username,
			progress.LevelFor(u.XP),
			u.XP,
			u.Correct,
			u.Wrong,
			u.Moderator,
			strings.Join(u.Unlocked, ", "),
			strings.Join(u.Achievements, ", "),
		})
	}
	if err := writeSheet(f, UsersSheet, header, userHeader, rows); err != nil {
		r.Close()
		return nil, err
	}

	rows = rows[:0]
	for _, m := range modules {
		for _, q := range m.Questions {
			row := []any{m.Name, q.ID, q.Text}
			for i := range quiz.OptionCount {
				opt := ""
				if i < len(q.Options) {
					opt = q.Options[i]
				}
				row = append(row, opt)
			}
			rows = append(rows, append(row, quiz.OptionLetter(q.Correct)))
		}
	}
	if err := writeSheet(f, QuestionsSheet, header, questionHeader, rows); err != nil {
		r.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return r, nil
}

// WriteTo writes the workbook to w.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	return r.file.WriteTo(w)
}

// SaveAs writes the workbook to path.
func (r *Report) SaveAs(path string) error {
	if err := r.file.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}

func (r *Report) Close() error {
	return r.file.Close()
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
