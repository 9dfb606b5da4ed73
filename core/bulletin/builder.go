package bulletin

import (
	"time"

	"github.com/GithubESPI/bulletins/core"
	"github.com/GithubESPI/bulletins/core/grading"
)

var nowFunc = time.Now // mockable

// Build assembles the bulletin of one student.
//
// Subject rows are grouped by unit code in first-seen order; rows of other students are ignored.
// Each unit average is looked up in averages by unit code, student and unit name, then the unit
// verdict is computed from its subject states and that average.
func Build(student Student, period Period, states []SubjectStateRow, averages []grading.UeAverageRow) Bulletin {
	b := Bulletin{
		Student:     student,
		Period:      period,
		Units:       make([]UnitResult, 0),
		GeneratedAt: nowFunc().UTC(),
	}

	index := make(map[string]int)
	for _, row := range states {
		if core.CleanString(row.StudentID) != student.ID {
			continue
		}
		key := core.NormalizeKey(row.UnitCode)
		i, ok := index[key]
		if !ok {
			i = len(b.Units)
			index[key] = i
			b.Units = append(b.Units, UnitResult{
				Code:     core.CleanString(row.UnitCode),
				Name:     core.CleanString(row.UnitName),
				Subjects: make([]SubjectResult, 0),
			})
		}
		b.Units[i].Subjects = append(b.Units[i].Subjects, SubjectResult{
			Code:    core.CleanString(row.SubjectCode),
			Name:    core.CleanString(row.SubjectName),
			Average: grading.ParseUeAverage(row.Average),
			Etat:    grading.NormalizeEtat(row.Etat),
		})
	}

	averages = studentAverages(averages, student.ID)
	for i := range b.Units {
		unit := &b.Units[i]
		etats := make([]grading.Etat, 0, len(unit.Subjects))
		for _, s := range unit.Subjects {
			etats = append(etats, s.Etat)
		}
		unit.Average = grading.GetUeAverage(averages, unit.Code, student.ID, unit.Name)
		unit.Etat = grading.GetEtatUE(etats, unit.Average)
	}
	return b
}

func groupStates(rows []SubjectStateRow) map[string][]SubjectStateRow {
	grouped := make(map[string][]SubjectStateRow)
	for _, row := range rows {
		id := core.CleanString(row.StudentID)
		grouped[id] = append(grouped[id], row)
	}
	return grouped
}

func groupAverages(rows []grading.UeAverageRow) map[string][]grading.UeAverageRow {
	grouped := make(map[string][]grading.UeAverageRow)
	for _, row := range rows {
		id := core.CleanString(row.CodeApprenant.String())
		grouped[id] = append(grouped[id], row)
	}
	return grouped
}

// studentAverages keeps the average rows of student id, with their padding removed.
func studentAverages(rows []grading.UeAverageRow, id string) []grading.UeAverageRow {
	if id == "" {
		return rows
	}
	out := make([]grading.UeAverageRow, 0, len(rows))
	for _, row := range rows {
		if core.CleanString(row.CodeApprenant.String()) != id {
			continue
		}
		row.CodeApprenant = grading.FlexString(id)
		out = append(out, row)
	}
	return out
}

// filterStudents keeps the students listed in ids (all when ids is empty), dropping duplicates.
func filterStudents(students []Student, ids []string) []Student {
	var wanted map[string]bool
	if len(ids) > 0 {
		wanted = make(map[string]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
	}

	seen := make(map[string]bool, len(students))
	out := make([]Student, 0, len(students))
	for _, st := range students {
		st.ID = core.CleanString(st.ID)
		if st.ID == "" || seen[st.ID] {
			continue
		}
		if wanted != nil && !wanted[st.ID] {
			continue
		}
		seen[st.ID] = true
		out = append(out, st)
	}
	return out
}
