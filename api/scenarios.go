/*
scenarios.go - Demo roster for local development and demonstrations

PURPOSE:

	Populates an empty database with a small hospital roster so the API
	can be exercised without hand-written fixtures: an HR administrator,
	two area managers and workers in Enfermería, Urgencias and Farmacia.

WHAT GETS CREATED:

	hr-001      Capital Humano   HR administrator
	mgr-enf     Enfermería       Area manager, also approves Urgencias
	mgr-far     Farmacia         Area manager
	enf-001     Enfermería       Veteran nurse, 12 vacation days, union day
	urg-001     Urgencias        New hire (under one year of seniority)
	far-001     Farmacia         Pharmacist, 8 vacation days, union day

	The veteran nurse gets a pending vacation request a month out and the
	pharmacist a pending exit pass, so both approval queues start non-empty.

HOW SEEDING WORKS:
 1. Create each employee through leave.Service (opening balances land in
    the ledger as grants)
 2. Employees that already exist are left untouched
 3. Sample requests are only submitted for employees created by this run

USAGE:

	SEED_DEMO=true ./server

NOTE:

	Hire dates of the new hire are relative to today so the seniority
	rejection is always demonstrable.

SEE ALSO:
  - cmd/server/main.go: Calls SeedDemo at startup
  - leave/service.go: CreateEmployee, SubmitRequest
*/
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/santamargarita/leave-engine/generic"
	"github.com/santamargarita/leave-engine/leave"
)

// =============================================================================
// ROSTER DEFINITION
// =============================================================================

const (
	AreaNursing   = "Enfermería"
	AreaEmergency = "Urgencias"
	AreaPharmacy  = "Farmacia"
	AreaHR        = "Capital Humano"
)

// SeedResult reports what a seeding run created.
type SeedResult struct {
	Employees []generic.EntityID
	Requests  []leave.RequestID
}

func demoRoster(today generic.TimePoint) []leave.Employee {
	birth := generic.NewTimePoint(1990, today.Month(), today.Day())
	return []leave.Employee{
		{
			ID:           "hr-001",
			Name:         "Lucía Ramírez",
			Email:        "lucia.ramirez@hospital.example",
			Role:         leave.RoleHRAdmin,
			Area:         AreaHR,
			Position:     "Jefa de Capital Humano",
			HireDate:     generic.MustParseDate("2015-03-02"),
			VacationDays: 20,
			UnionDays:    1,
		},
		{
			ID:              "mgr-enf",
			Name:            "Jorge Salinas",
			Email:           "jorge.salinas@hospital.example",
			Role:            leave.RoleAreaManager,
			Area:            AreaNursing,
			Position:        "Jefe de Enfermería",
			HireDate:        generic.MustParseDate("2012-08-20"),
			VacationDays:    18,
			UnionDays:       1,
			AuthorizedAreas: []string{AreaNursing, AreaEmergency},
		},
		{
			ID:           "mgr-far",
			Name:         "Elena Torres",
			Email:        "elena.torres@hospital.example",
			Role:         leave.RoleAreaManager,
			Area:         AreaPharmacy,
			Position:     "Jefa de Farmacia",
			HireDate:     generic.MustParseDate("2016-01-11"),
			VacationDays: 16,
			UnionDays:    1,
		},
		{
			ID:           "enf-001",
			Name:         "Mariana López",
			Email:        "mariana.lopez@hospital.example",
			Role:         leave.RoleWorker,
			Area:         AreaNursing,
			Position:     "Enfermera General",
			ShiftID:      "matutino",
			HireDate:     generic.MustParseDate("2019-05-06"),
			BirthDate:    &birth,
			VacationDays: 12,
			UnionDays:    1,
		},
		{
			ID:           "urg-001",
			Name:         "Carlos Méndez",
			Email:        "carlos.mendez@hospital.example",
			Role:         leave.RoleWorker,
			Area:         AreaEmergency,
			Position:     "Camillero",
			ShiftID:      "nocturno",
			HireDate:     today.AddMonths(-4),
			VacationDays: 6,
		},
		{
			ID:           "far-001",
			Name:         "Ana Gutiérrez",
			Email:        "ana.gutierrez@hospital.example",
			Role:         leave.RoleWorker,
			Area:         AreaPharmacy,
			Position:     "Auxiliar de Farmacia",
			ShiftID:      "vespertino",
			HireDate:     generic.MustParseDate("2021-10-01"),
			VacationDays: 8,
			UnionDays:    1,
		},
	}
}

func demoRequests(today generic.TimePoint) map[generic.EntityID]leave.Candidate {
	nine, ten := leave.ClockTime(9*60), leave.ClockTime(10*60)
	return map[generic.EntityID]leave.Candidate{
		"enf-001": {
			Category:  leave.CategoryVacation,
			StartDate: today.AddDays(30),
			EndDate:   today.AddDays(34),
		},
		"far-001": {
			Category:  leave.CategoryExitPass,
			StartDate: today.AddDays(2),
			StartTime: &nine,
			EndTime:   &ten,
			Reason:    "Cita médica",
		},
	}
}

// =============================================================================
// SEEDING
// =============================================================================

// SeedDemo creates the demo roster relative to today. Running it twice is
// harmless: existing employees are skipped.
func SeedDemo(ctx context.Context, svc *leave.Service, today generic.TimePoint) (SeedResult, error) {
	var res SeedResult
	created := make(map[generic.EntityID]bool)

	for _, emp := range demoRoster(today) {
		_, err := svc.CreateEmployee(ctx, emp)
		if errors.Is(err, leave.ErrEmployeeExists) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("seed employee %s: %w", emp.ID, err)
		}
		created[emp.ID] = true
		res.Employees = append(res.Employees, emp.ID)
	}

	for _, id := range []generic.EntityID{"enf-001", "far-001"} {
		if !created[id] {
			continue
		}
		req, err := svc.SubmitRequest(ctx, id, demoRequests(today)[id])
		if err != nil {
			return res, fmt.Errorf("seed request for %s: %w", id, err)
		}
		res.Requests = append(res.Requests, req.ID)
	}
	return res, nil
}
