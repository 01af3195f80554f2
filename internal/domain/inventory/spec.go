package inventory

import (
	"cmp"
	"strings"
	"time"

	"procurement-hub/internal/resource"
)

type Service = resource.Service[Item, *Item]

func NewService(store resource.Store[Item], deps resource.Deps) *Service {
	return resource.NewService[Item](Spec(), store, deps)
}

func Spec() resource.Spec[Item] {
	staff := resource.Staff
	return resource.Spec[Item]{
		Name:      "inventory",
		Singular:  "item",
		Label:     "Inventory item",
		Statuses:  []resource.Status{StatusActive, StatusInactive},
		Immutable: []string{"totalValue", "lastAdjustedAt", "lastAdjustedBy"},
		Policy: resource.Policy{
			resource.OpList:   {Roles: resource.Everyone},
			resource.OpGet:    {Roles: resource.Everyone},
			resource.OpCreate: {Roles: staff},
			resource.OpUpdate: {Roles: staff},
			resource.OpDelete: {Roles: resource.Admins},
			OpAdjust:          {Roles: staff},
		},
		Transitions: []resource.Transition[Item]{
			{Action: "deactivate", From: []resource.Status{StatusActive}, To: StatusInactive, Roles: staff},
			{Action: "activate", From: []resource.Status{StatusInactive}, To: StatusActive, Roles: staff},
		},
		Title: func(i *Item) string { return i.SKU + " " + i.Name },
		Derive: func(i *Item) {
			i.SKU = strings.ToUpper(strings.TrimSpace(i.SKU))
			i.TotalValue = i.Quantity * i.UnitCost
		},
		UniqueKey: func(i *Item) string { return i.SKU },
		Filters: map[string]resource.Filter[Item]{
			"category":  resource.EqualsFold(func(i *Item) string { return i.Category }),
			"location":  resource.EqualsFold(func(i *Item) string { return i.Location }),
			"supplier":  resource.EqualsFold(func(i *Item) string { return i.Supplier }),
			"projectId": resource.EqualsInt(func(i *Item) int64 { return i.ProjectID }),
			"lowStock":  resource.Bool((*Item).LowStock),
		},
		SearchFields: func(i *Item) []string { return []string{i.SKU, i.Name, i.Category, i.Supplier} },
		SortKeys: map[string]func(a, b *Item) int{
			"name":       func(a, b *Item) int { return cmp.Compare(a.Name, b.Name) },
			"sku":        func(a, b *Item) int { return cmp.Compare(a.SKU, b.SKU) },
			"quantity":   func(a, b *Item) int { return cmp.Compare(a.Quantity, b.Quantity) },
			"totalValue": func(a, b *Item) int { return cmp.Compare(a.TotalValue, b.TotalValue) },
		},
		DefaultLimit: 50,
		Seed:         seed,
	}
}

func seed(now time.Time) []Item {
	at := func(days int) resource.Base {
		return resource.Base{Status: StatusActive, CreatedAt: now.AddDate(0, 0, -days)}
	}
	return []Item{
		{Base: at(200), SKU: "CEM-025", Name: "Cemento Portland 25kg", Category: "materiales", Unit: "saco",
			Quantity: 320, MinQuantity: 100, UnitCost: 7.5, Location: "Bodega A", Supplier: "Cementos Bío Bío"},
		{Base: at(180), SKU: "ACE-012", Name: "Barra de acero 12mm", Category: "materiales", Unit: "barra",
			Quantity: 40, MinQuantity: 150, UnitCost: 9.8, Location: "Bodega A", Supplier: "Aceros del Pacífico"},
		{Base: at(150), SKU: "PIN-LTX", Name: "Pintura látex blanca", Category: "terminaciones", Unit: "galón",
			Quantity: 25, MinQuantity: 25, UnitCost: 32, Location: "Bodega B", Supplier: "Ferretería Central"},
		{Base: at(90), SKU: "EPP-CAS", Name: "Casco de seguridad", Category: "seguridad", Unit: "unidad",
			Quantity: 85, MinQuantity: 30, UnitCost: 12, Location: "Pañol"},
		{Base: at(60), SKU: "OSB-015", Name: "Tablero OSB 15mm", Category: "materiales", Unit: "plancha",
			Quantity: 0, MinQuantity: 40, UnitCost: 18.4, Location: "Bodega B", Supplier: "Maderas del Sur"},
		{Base: at(30), SKU: "HER-TAL", Name: "Taladro percutor", Category: "herramientas", Unit: "unidad",
			Quantity: 6, MinQuantity: 2, UnitCost: 145, Location: "Pañol"},
	}
}
