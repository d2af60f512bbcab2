// Package catalog holds the schema history of the price scraper database as
// literal batches, in the order they were introduced.
package catalog

import (
	"sort"

	"schemamigrator/internal/domain"
)

var batches = map[string]domain.Batch{
	// Databases created by the first scraper scripts used these names.
	"000_legacy_names": {
		Name: "000_legacy_names",
		Steps: []domain.Step{
			{Kind: domain.RenameTable, Table: "price_snapshots", NewName: "price_history"},
			{Kind: domain.RenameColumn, Table: "products", Column: "sku", NewName: "item"},
		},
	},
	"001_scraper_tables": {
		Name: "001_scraper_tables",
		Steps: []domain.Step{
			{Kind: domain.CreateTable, Table: "products", DDLBody: `
				id SERIAL PRIMARY KEY,
				item VARCHAR(64),
				name VARCHAR(255) NOT NULL,
				brand VARCHAR(100),
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP`},
			{Kind: domain.CreateTable, Table: "page_urls", DDLBody: `
				id SERIAL PRIMARY KEY,
				product_id INTEGER REFERENCES products(id),
				retailer VARCHAR(100) NOT NULL,
				url TEXT NOT NULL UNIQUE`},
			{Kind: domain.CreateTable, Table: "xpath_selectors", DDLBody: `
				id SERIAL PRIMARY KEY,
				retailer VARCHAR(100) NOT NULL UNIQUE,
				price_xpath TEXT NOT NULL,
				title_xpath TEXT`},
			{Kind: domain.CreateTable, Table: "price_history", DDLBody: `
				id SERIAL PRIMARY KEY,
				page_url_id INTEGER REFERENCES page_urls(id),
				price NUMERIC(10, 2),
				scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP`},
		},
	},
	"002_price_currency": {
		Name: "002_price_currency",
		Steps: []domain.Step{
			{Kind: domain.AddColumn, Table: "price_history", Column: "currency", TypeSpec: "VARCHAR(3)"},
			{Kind: domain.BackfillValue, Table: "price_history", Column: "currency", DefaultValue: "USD"},
			{Kind: domain.AddColumn, Table: "price_history", Column: "in_stock", TypeSpec: "BOOLEAN"},
		},
	},
	"003_retailer_region": {
		Name: "003_retailer_region",
		Steps: []domain.Step{
			{Kind: domain.AddColumn, Table: "page_urls", Column: "region", TypeSpec: "VARCHAR(50)"},
			{Kind: domain.BackfillValue, Table: "page_urls", Column: "region", DefaultValue: "US"},
			{Kind: domain.AddColumn, Table: "xpath_selectors", Column: "stock_xpath", TypeSpec: "TEXT"},
		},
	},
	"004_drop_title_xpath": {
		Name: "004_drop_title_xpath",
		Steps: []domain.Step{
			{Kind: domain.DropColumn, Table: "xpath_selectors", Column: "title_xpath"},
		},
	},
	"005_seed_retailers": {
		Name: "005_seed_retailers",
		Steps: []domain.Step{
			{Kind: domain.SeedRow, Table: "xpath_selectors", Column: "retailer", Row: map[string]interface{}{
				"retailer":    "example_mart",
				"price_xpath": "//span[@data-test='product-price']",
				"stock_xpath": "//div[@data-test='fulfillment']",
			}},
		},
	},
}

func Names() []string {
	names := make([]string, 0, len(batches))
	for name := range batches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Get(name string) (domain.Batch, bool) {
	b, ok := batches[name]
	return b, ok
}

// All returns every batch merged into one, in catalog order.
func All() domain.Batch {
	all := domain.Batch{Name: "all"}
	for _, name := range Names() {
		all.Steps = append(all.Steps, batches[name].Steps...)
	}
	return all
}
