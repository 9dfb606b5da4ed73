package ypareo

import (
	"context"

	"github.com/GithubESPI/bulletins/core"
	"github.com/GithubESPI/bulletins/core/bulletin"
	"github.com/GithubESPI/bulletins/core/grading"
)

type studentRow struct {
	CodeApprenant   grading.FlexString `json:"CODE_APPRENANT"`
	NomApprenant    string             `json:"NOM_APPRENANT"`
	PrenomApprenant string             `json:"PRENOM_APPRENANT"`
	NomGroupe       string             `json:"NOM_GROUPE"`
}

type stateRow struct {
	CodeApprenant grading.FlexString `json:"CODE_APPRENANT"`
	CodeUE        string             `json:"CODE_UE"`
	NomUE         string             `json:"NOM_UE"`
	CodeMatiere   string             `json:"CODE_MATIERE"`
	NomMatiere    string             `json:"NOM_MATIERE"`
	Etat          string             `json:"ETAT"`
	Moyenne       interface{}        `json:"MOYENNE"`
}

func (c *Client) Students(ctx context.Context, period string) ([]bulletin.Student, error) {
	var rows []studentRow
	if err := c.fetch(ctx, c.reports.students, period, &rows); err != nil {
		return nil, err
	}
	students := make([]bulletin.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, bulletin.Student{
			ID:        core.CleanString(r.CodeApprenant.String()),
			FirstName: core.CleanString(r.PrenomApprenant),
			LastName:  core.CleanString(r.NomApprenant),
			Group:     core.CleanString(r.NomGroupe),
		})
	}
	return students, nil
}

func (c *Client) SubjectStates(ctx context.Context, period string) ([]bulletin.SubjectStateRow, error) {
	var rows []stateRow
	if err := c.fetch(ctx, c.reports.states, period, &rows); err != nil {
		return nil, err
	}
	states := make([]bulletin.SubjectStateRow, 0, len(rows))
	for _, r := range rows {
		states = append(states, bulletin.SubjectStateRow{
			StudentID:   r.CodeApprenant.String(),
			UnitCode:    r.CodeUE,
			UnitName:    r.NomUE,
			SubjectCode: r.CodeMatiere,
			SubjectName: r.NomMatiere,
			Etat:        r.Etat,
			Average:     r.Moyenne,
		})
	}
	return states, nil
}

func (c *Client) UnitAverages(ctx context.Context, period string) ([]grading.UeAverageRow, error) {
	rows := make([]grading.UeAverageRow, 0)
	if err := c.fetch(ctx, c.reports.averages, period, &rows); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].CodeApprenant = grading.FlexString(core.CleanString(rows[i].CodeApprenant.String()))
	}
	return rows, nil
}
