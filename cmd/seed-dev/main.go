package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/surdata/pedidos_backend/config"
	"bitbucket.org/surdata/pedidos_backend/models"
	"bitbucket.org/surdata/pedidos_backend/utils"
	"github.com/shopspring/decimal"
)

type seedProvider struct {
	name      string
	frequency models.ProviderFrequency
	items     []models.NewOrderItem
}

var demoProviders = []seedProvider{
	{
		name:      "Lácteos SA",
		frequency: models.ProviderFrequencyWeekly,
		items: []models.NewOrderItem{
			{Product: "Leche entera 1L", Qty: decimal.NewFromInt(24), UnitPrice: decimal.RequireFromString("1.35")},
			{Product: "Queso fresco kg", Qty: decimal.NewFromInt(6), UnitPrice: decimal.RequireFromString("7.80")},
		},
	},
	{
		name:      "Panadería Sur",
		frequency: models.ProviderFrequencyWeekly,
		items: []models.NewOrderItem{
			{Product: "Baguette", Qty: decimal.NewFromInt(40), UnitPrice: decimal.RequireFromString("0.90")},
		},
	},
	{
		name:      "Bebidas del Norte",
		frequency: models.ProviderFrequencyBiweekly,
		items:     nil,
	},
}

// seed-dev loads a demo scope with providers, the current week and a few
// orders so the snapshot operations have something real to work on.
func main() {
	tenant := flag.String("tenant", "dev-tenant", "tenant id to seed")
	branch := flag.String("branch", "dev-branch", "branch id to seed")
	flag.Parse()

	if strings.TrimSpace(*tenant) == "" || strings.TrimSpace(*branch) == "" {
		fmt.Fprintln(os.Stderr, "-tenant and -branch must not be empty")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx := utils.SetTenantIdInContext(context.Background(), *tenant)
	ctx = utils.SetBranchIdInContext(ctx, *branch)

	week, err := models.EnsureWeek(ctx, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "ensure week:", err)
		os.Exit(1)
	}
	fmt.Println("week:", week.Label)

	for _, seed := range demoProviders {
		provider, err := models.CreateProvider(ctx, &models.NewProvider{
			Name:      seed.name,
			Frequency: seed.frequency,
			Status:    models.ProviderStatusActive,
		})
		if err != nil {
			// re-running the seed hits the unique name check; skip quietly
			fmt.Printf("provider %s: %v\n", seed.name, err)
			continue
		}
		fmt.Println("provider:", provider.Name, provider.ID)

		if err := models.IncludeProviderInWeek(ctx, week.ID, provider.ID); err != nil {
			fmt.Fprintln(os.Stderr, "include in week:", err)
			os.Exit(1)
		}

		if len(seed.items) == 0 {
			continue
		}
		order, err := models.CreateOrder(ctx, &models.NewOrder{
			ProviderId: provider.ID,
			Items:      seed.items,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "create order:", err)
			os.Exit(1)
		}
		fmt.Println("order:", order.ID)

		if _, err := models.RecomputeOrderSummary(ctx, provider.ID); err != nil {
			fmt.Fprintln(os.Stderr, "recompute summary:", err)
			os.Exit(1)
		}
		if err := models.SetWeekProviderStatus(ctx, week.ID, provider.ID, models.WeekProviderStatusDone); err != nil {
			fmt.Fprintln(os.Stderr, "set week status:", err)
			os.Exit(1)
		}
	}

	salesSource, _ := json.Marshal(map[string]string{
		"db":    "sales_" + *tenant,
		"table": "tickets",
	})
	if err := models.SetSalesSource(ctx, salesSource); err != nil {
		fmt.Fprintln(os.Stderr, "set sales source:", err)
		os.Exit(1)
	}

	fmt.Printf("seeded scope %s:%s\n", *tenant, *branch)
}
