package models

import (
	"log"

	"bitbucket.org/surdata/pedidos_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Provider{},
		&Week{}, &WeekProviderLink{}, &WeekState{},
		&Order{}, &OrderItem{}, &OrderSnapshot{}, &OrderUiState{},
		&OrderSummary{}, &OrderSummaryWeek{},
		&AppSetting{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
