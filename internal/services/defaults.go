package services

import (
	"context"
	"fmt"

	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/storage"
)

type defaultCategory struct {
	name     string
	typ      core.CategoryType
	children []string
}

var defaultCategories = []defaultCategory{
	{name: "Salario", typ: core.Income},
	{name: "Honorarios", typ: core.Income},
	{name: "Rentas", typ: core.Income},
	{name: "Otros ingresos", typ: core.Income},
	{name: "Servicios", typ: core.Expense, children: []string{"Luz", "Gas", "Internet", "Celular", "Expensas"}},
	{name: "Comida", typ: core.Expense, children: []string{"Supermercado", "Delivery", "Restaurantes"}},
	{name: "Transporte", typ: core.Expense, children: []string{"Taxi / Uber", "Transporte público"}},
	{name: "Hogar", typ: core.Expense, children: []string{"Limpieza", "Muebles", "Reparaciones", "Mascotas"}},
	{name: "Salud", typ: core.Expense, children: []string{"Medicamentos", "Deportes", "Obra social"}},
	{name: "Ocio", typ: core.Expense, children: []string{"Cine", "Shows", "Libros", "Cursos"}},
	{name: "Transferencias", typ: core.Transfer},
}

var defaultAccounts = []struct {
	name     string
	currency core.Currency
}{
	{"Efectivo ARS", core.ARS},
	{"Cuenta Bancaria USD", core.USD},
	{"Wallet BTC", core.BTC},
}

// SeedDefaults installs the starter category tree and accounts for a user.
// It is a no-op when the user already has categories.
func SeedDefaults(ctx context.Context, q *storage.Queries, userID int64) error {
	existing, err := q.ListCategories(ctx, userID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, def := range defaultCategories {
		parent, err := q.CreateCategory(ctx, core.Category{
			UserID: userID,
			Name:   def.name,
			Type:   def.typ,
		})
		if err != nil {
			return fmt.Errorf("seed category %q: %w", def.name, err)
		}
		for _, child := range def.children {
			if _, err := q.CreateCategory(ctx, core.Category{
				UserID:   userID,
				Name:     child,
				Type:     def.typ,
				ParentID: &parent.ID,
			}); err != nil {
				return fmt.Errorf("seed subcategory %q: %w", child, err)
			}
		}
	}

	for _, acc := range defaultAccounts {
		if _, err := q.CreateAccount(ctx, userID, acc.name, acc.currency); err != nil {
			return fmt.Errorf("seed account %q: %w", acc.name, err)
		}
	}
	return nil
}
