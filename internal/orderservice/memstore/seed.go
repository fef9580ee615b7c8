package memstore

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"wheres-my-food/pkg/models"
)

type seedFile struct {
	Vendors []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Phone string `yaml:"phone"`
		Email string `yaml:"email"`
	} `yaml:"vendors"`
	MenuItems []struct {
		ID                string `yaml:"id"`
		VendorID          string `yaml:"vendor_id"`
		Name              string `yaml:"name"`
		Price             string `yaml:"price"`
		Available         *bool  `yaml:"is_available"`
		AvailableQuantity int    `yaml:"available_quantity"`
	} `yaml:"menu_items"`
	Customers []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Phone string `yaml:"phone"`
	} `yaml:"customers"`
}

// LoadSeed reads vendors, menu items and customers from a YAML file.
func (s *Store) LoadSeed(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	return s.loadSeed(raw)
}

func (s *Store) loadSeed(raw []byte) error {
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	for _, v := range seed.Vendors {
		s.PutVendor(models.Vendor{ID: v.ID, Name: v.Name, Phone: v.Phone, Email: v.Email})
	}
	for _, it := range seed.MenuItems {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return fmt.Errorf("menu item %s: price %q: %w", it.ID, it.Price, err)
		}
		if it.AvailableQuantity < 0 {
			return fmt.Errorf("menu item %s: available_quantity must not be negative", it.ID)
		}
		available := true
		if it.Available != nil {
			available = *it.Available
		}
		s.PutMenuItem(models.MenuItem{
			ID:                it.ID,
			VendorID:          it.VendorID,
			Name:              it.Name,
			Price:             price,
			IsAvailable:       available,
			AvailableQuantity: it.AvailableQuantity,
		})
	}
	for _, c := range seed.Customers {
		s.PutCustomer(models.Customer{ID: c.ID, Name: c.Name, Phone: c.Phone})
	}
	return nil
}
