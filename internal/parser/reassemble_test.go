package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

func TestReassemble_SplitRows(t *testing.T) {
	text := strings.Join([]string{
		"1st Semester SY 2023-2024",
		"CS22 CC 112 COMPUTER PROGRAMMING 1",
		"(LEC) 2.00 01:00PM-02:00PM TueTh 1.9",
		"CS74 PC 317 INTRODUCTION TO HUMAN",
		"COMPUTER INTERACTION",
		"2nd Semester SY 2023-2024",
		"CS80 PC 320 SOFTWARE ENGINEERING 3.00",
		"1.5",
	}, "\n")

	rows, discarded := Reassembler{}.Reassemble(ClassifyLines(text))
	require.Len(t, rows, 3)
	assert.Empty(t, discarded)

	assert.Equal(t, "CS22 CC 112 COMPUTER PROGRAMMING 1 (LEC) 2.00 01:00PM-02:00PM TueTh 1.9", rows[0].Text)
	assert.Equal(t, []int{1, 2}, rows[0].Lines)
	assert.Equal(t, "1st Semester SY 2023-2024", rows[0].Semester)
	assert.True(t, rows[0].Complete)

	assert.Equal(t, "CS74 PC 317 INTRODUCTION TO HUMAN COMPUTER INTERACTION", rows[1].Text)
	assert.Equal(t, "1st Semester SY 2023-2024", rows[1].Semester)
	assert.False(t, rows[1].Complete)

	assert.Equal(t, "CS80 PC 320 SOFTWARE ENGINEERING 3.00 1.5", rows[2].Text)
	assert.Equal(t, "2nd Semester SY 2023-2024", rows[2].Semester)
	assert.Equal(t, 6, rows[2].StartLine())
	assert.True(t, rows[2].Complete)
}

func TestReassemble_TabJoin(t *testing.T) {
	text := "CS21\tCC 111\tINTRODUCTION TO COMPUTING\n3.00\t01:00PM-02:00PM\tMWTh\t1.4"

	rows, _ := Reassembler{}.Reassemble(ClassifyLines(text))
	require.Len(t, rows, 1)
	assert.True(t, rows[0].UsesTabs)
	assert.Equal(t, "CS21\tCC 111\tINTRODUCTION TO COMPUTING\t3.00\t01:00PM-02:00PM\tMWTh\t1.4", rows[0].Text)
	assert.Equal(t, models.UnknownSemester, rows[0].Semester)
}

func TestReassemble_OrphansAndCompletedRows(t *testing.T) {
	text := strings.Join([]string{
		"STRAY TEXT",
		"CS21 CC 111 INTRODUCTION TO COMPUTING 3.00 01:00PM-02:00PM MWTh 1.4",
		"TRAILING REMARK",
		"CODE SUBJECT DESCRIPTION",
		"AFTER HEADER",
	}, "\n")

	rows, discarded := Reassembler{}.Reassemble(ClassifyLines(text))
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Complete)
	assert.Equal(t, []int{1}, rows[0].Lines)
	assert.Equal(t, []int{0, 2, 4}, discarded)
}

func TestReassemble_ContinuationLimit(t *testing.T) {
	text := strings.Join([]string{
		"CS90 GE 9 A",
		"B",
		"C",
		"D",
		"E",
	}, "\n")

	rows, discarded := Reassembler{MaxContinuationLines: 2}.Reassemble(ClassifyLines(text))
	require.Len(t, rows, 1)
	assert.Equal(t, "CS90 GE 9 A B C", rows[0].Text)
	assert.False(t, rows[0].Complete)
	assert.Equal(t, []int{3, 4}, discarded)
}

func TestReassemble_NeverSpansSemesters(t *testing.T) {
	text := strings.Join([]string{
		"1st Semester SY 2023-2024",
		"CS10 GE 1 PURPOSIVE",
		"2nd Semester SY 2023-2024",
		"COMMUNICATION 3.00 1.25",
	}, "\n")

	rows, discarded := Reassembler{}.Reassemble(ClassifyLines(text))
	require.Len(t, rows, 1)
	assert.Equal(t, "CS10 GE 1 PURPOSIVE", rows[0].Text)
	assert.Equal(t, "1st Semester SY 2023-2024", rows[0].Semester)
	assert.Equal(t, []int{3}, discarded)
}

func TestHasCompleteTail(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"CS21 CC 111 INTRO 3.00 01:00PM-02:00PM MWTh 1.4", true},
		{"CS21\tCC 111\tINTRO\t3.00\t01:00PM-02:00PM\tMWTh\t1.4", true},
		{"CS21 CC 111 INTRO 3.00 1.75", true},
		{"CS21 CC 111 INTRO 3.00 TBA TBA 2.0", true},
		{"CS21 CC 111 INTRO MWF 1.5", true},
		{"CS21 CC 111 INTRO 3.00 01:00PM-02:00PM MWTh INC", true},
		{"CS21 CC 111 INTRO 3.00 01:00PM-02:00PM MWTh DRP", true},
		{"CS21 CC 111 INTRO 3.00 01:00PM-02:00PM MWTh 1", true},
		{"CS21 CC 111 INTRO 3.00 TBA TBA W", true},
		{"CS21 CC 111 INTRO 3.00 INC", true},
		{"CS21 CC 111 INTRO 3.00 01:00PM-04:00PM W", false},
		{"CS21 CC 111 INTRO 3.00", false},
		{"CS21 CC 111 INTRO 3.00 01:00PM-02:00PM MWTh", false},
		{"CS21 CC 111 PHYSICS 1.5", false},
		{"CS21 CC 111 COMPUTER PROGRAMMING 1", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, hasCompleteTail(tt.text))
		})
	}
}

func TestReassemble_MarkTailClosesRow(t *testing.T) {
	for _, tail := range []string{"1.5", "INC", "DRP", "1"} {
		t.Run(tail, func(t *testing.T) {
			text := strings.Join([]string{
				"CS21 CC 111 INTRODUCTION TO COMPUTING 3.00 01:00PM-02:00PM MWTh " + tail,
				"*Subject to completion of requirements",
				"CS22 CC 112 PROGRAMMING 3.00 01:00PM-02:00PM MWTh 2.0",
			}, "\n")

			rows, discarded := Reassembler{}.Reassemble(ClassifyLines(text))
			require.Len(t, rows, 2)
			assert.Equal(t, []int{0}, rows[0].Lines)
			assert.True(t, rows[0].Complete)
			assert.Equal(t, []int{1}, discarded)
		})
	}
}
