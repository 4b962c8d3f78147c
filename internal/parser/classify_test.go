package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want models.LineKind
	}{
		{"semester header", "1st Semester SY 2023-2024", models.KindSemesterHeader},
		{"spelled semester header", "SECOND SEMESTER, A.Y. 2022-23", models.KindSemesterHeader},
		{"summer header", "Summer 2024", models.KindSemesterHeader},
		{"tab subject", "CS21\tCC 111\tINTRODUCTION TO COMPUTING", models.KindSubjectStart},
		{"space subject", "CS22 CC 112 COMPUTER PROGRAMMING 1 (LEC) 2.00 01:00PM-02:00PM TueTh 1.9", models.KindSubjectStart},
		{"code with suffix", "IT101A GE 1 UNDERSTANDING THE SELF", models.KindSubjectStart},
		{"bare code", "CS74", models.KindSubjectStart},
		{"column header tabs", "CODE\tSUBJECT\tDESCRIPTION\tUNITS\tTIME\tDAYS\tGRADE", models.KindNoise},
		{"column header spaces", "Subject Code Description Units Time Day Room Grade", models.KindNoise},
		{"single header word", "UNITS", models.KindNoise},
		{"total units", "TOTAL UNITS 21.00", models.KindNoise},
		{"page footer", "Page 1 of 3", models.KindNoise},
		{"glued page footer", "Page1 of 3", models.KindNoise},
		{"date line", "2023-05-12", models.KindNoise},
		{"student number", "2021-00123", models.KindNoise},
		{"bare time", "10:30AM", models.KindNoise},
		{"registrar", "OFFICE OF THE REGISTRAR", models.KindNoise},
		{"lone grade", "1.4", models.KindContinuation},
		{"units and grade", "3.00 1.75", models.KindContinuation},
		{"schedule tail", "01:00PM-02:00PM MWTh 1.4", models.KindContinuation},
		{"name fragment", "COMPUTER INTERACTION", models.KindContinuation},
		{"qualifier", "(LEC)", models.KindContinuation},
		{"name with page word", "WEB PAGE DESIGN", models.KindContinuation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLine(tt.line), "line %q", tt.line)
		})
	}
}

func TestSemesterLabel(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"1st Semester SY 2023-2024", "1st Semester SY 2023-2024"},
		{"FIRST SEMESTER S.Y. 2023 - 2024", "1st Semester SY 2023-2024"},
		{"SECOND SEMESTER, A.Y. 2022-23", "2nd Semester SY 2022-2023"},
		{"2nd Sem School Year: 2021-2022", "2nd Semester SY 2021-2022"},
		{"Second Semester", "2nd Semester"},
		{"Summer 2024", "Summer 2024"},
		{"Summer Term SY 2023-2024", "Summer SY 2023-2024"},
		{"MIDYEAR 2023", "Midyear 2023"},
		{"CS21 CC 111 INTRODUCTION TO COMPUTING", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, SemesterLabel(tt.line))
		})
	}
}

func TestClassifyLines(t *testing.T) {
	text := "OFFICE OF THE REGISTRAR\r\n\r\n1st Semester SY 2023-2024\nCS21 CC 111 INTRO\n   \nCOMPUTING 3.00 1.5\n"

	lines := ClassifyLines(text)
	require.Len(t, lines, 4)

	assert.Equal(t, 0, lines[0].Index)
	assert.Equal(t, models.KindNoise, lines[0].Kind)

	assert.Equal(t, 2, lines[1].Index)
	assert.Equal(t, models.KindSemesterHeader, lines[1].Kind)
	assert.Equal(t, "1st Semester SY 2023-2024", lines[1].Semester)

	assert.Equal(t, 3, lines[2].Index)
	assert.Equal(t, models.KindSubjectStart, lines[2].Kind)

	assert.Equal(t, 5, lines[3].Index)
	assert.Equal(t, models.KindContinuation, lines[3].Kind)
}
