// Package seed bootstraps the state (UF) configuration so a fresh
// install can gate regions immediately. Every federative unit starts
// active; operators deactivate regions through the catalog tables.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
	"gorm.io/gorm"
)

var federativeUnits = []struct {
	UF   string
	Name string
}{
	{"AC", "Acre"},
	{"AL", "Alagoas"},
	{"AP", "Amapá"},
	{"AM", "Amazonas"},
	{"BA", "Bahia"},
	{"CE", "Ceará"},
	{"DF", "Distrito Federal"},
	{"ES", "Espírito Santo"},
	{"GO", "Goiás"},
	{"MA", "Maranhão"},
	{"MT", "Mato Grosso"},
	{"MS", "Mato Grosso do Sul"},
	{"MG", "Minas Gerais"},
	{"PA", "Pará"},
	{"PB", "Paraíba"},
	{"PR", "Paraná"},
	{"PE", "Pernambuco"},
	{"PI", "Piauí"},
	{"RJ", "Rio de Janeiro"},
	{"RN", "Rio Grande do Norte"},
	{"RS", "Rio Grande do Sul"},
	{"RO", "Rondônia"},
	{"RR", "Roraima"},
	{"SC", "Santa Catarina"},
	{"SP", "São Paulo"},
	{"SE", "Sergipe"},
	{"TO", "Tocantins"},
}

// EnsureStateConfigs inserts any missing UF rows. Existing rows keep
// their active flag; the seed never reactivates a region an operator
// turned off.
func EnsureStateConfigs(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, unit := range federativeUnits {
			var existing catalogdomain.StateConfig
			err := tx.WithContext(ctx).
				Where("uf = ?", unit.UF).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			state := catalogdomain.StateConfig{
				ID:     node.Generate(),
				UF:     unit.UF,
				Name:   unit.Name,
				Active: true,
			}
			if err := tx.WithContext(ctx).Create(&state).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
