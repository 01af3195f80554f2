package projects

import (
	"time"

	"procurement-hub/internal/resource"
)

func seed(now time.Time) []Project {
	day := func(n int) *time.Time {
		t := now.AddDate(0, 0, n).Truncate(24 * time.Hour)
		return &t
	}
	at := func(n int) resource.Base {
		return resource.Base{CreatedAt: now.AddDate(0, 0, -n)}
	}
	return []Project{
		{
			Base:        withStatus(at(120), StatusActive),
			Name:        "Edificio Central",
			Description: "Construcción de edificio de oficinas de 8 pisos",
			Client:      "Inmobiliaria Andes",
			Location:    "Santiago",
			Category:    "construccion",
			Budget:      2500000,
			Spent:       1150000,
			Progress:    45,
			ManagerID:   2,
			StartDate:   day(-120),
			EndDate:     day(240),
			CreatedBy:   2,
		},
		{
			Base:        withStatus(at(60), StatusPlanning),
			Name:        "Remodelación Planta Norte",
			Description: "Renovación de la línea de producción y bodegas",
			Client:      "Alimentos del Sur",
			Location:    "Antofagasta",
			Category:    "remodelacion",
			Budget:      480000,
			ManagerID:   2,
			StartDate:   day(15),
			EndDate:     day(180),
			CreatedBy:   1,
		},
		{
			Base:        withStatus(at(300), StatusCompleted),
			Name:        "Puente Río Claro",
			Description: "Puente vehicular de dos vías",
			Client:      "Ministerio de Obras Públicas",
			Location:    "Talca",
			Category:    "infraestructura",
			Budget:      1800000,
			Spent:       1765000,
			Progress:    100,
			ManagerID:   2,
			StartDate:   day(-300),
			EndDate:     day(-20),
			CreatedBy:   1,
		},
		{
			Base:        withStatus(at(30), StatusOnHold),
			Name:        "Centro Logístico Sur",
			Description: "Galpones y patio de maniobras",
			Location:    "Puerto Montt",
			Category:    "construccion",
			Budget:      950000,
			Spent:       120000,
			Progress:    10,
			StartDate:   day(-30),
			CreatedBy:   2,
		},
	}
}

func withStatus(b resource.Base, s resource.Status) resource.Base {
	b.Status = s
	return b
}
