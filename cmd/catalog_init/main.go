// Command catalog_init prepares the MatrixOne catalog that receives the
// request export, and seeds the NL2SQL knowledge used for ad-hoc questions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"decom/internal/config"
	"decom/internal/logger"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

func main() {
	configFile := flag.String("config", "etc/config-dev.yaml", "config file")
	skipKnowledge := flag.Bool("skip-knowledge", false, "only create database and tables")
	flag.Parse()

	logger.Init(config.LogConfig{Level: "info", Console: true})

	cfg := config.Load(*configFile)
	client, err := cfg.NewRawClient()
	if err != nil {
		log.Fatal(err)
	}
	if client == nil {
		log.Fatal("moi.base_url and moi.api_key are required")
	}
	ctx := context.Background()
	catalogID := sdk.CatalogID(cfg.MOI.CatalogID)
	if catalogID == 0 {
		catalogID = 1
	}

	ids, err := initCatalog(ctx, client, catalogID, cfg.MOI.DBName)
	if err != nil {
		log.Fatal("catalog init failed: ", err)
	}

	if !*skipKnowledge {
		if err := initKnowledge(ctx, client); err != nil {
			log.Fatal("knowledge init failed: ", err)
		}
	}

	logger.Info("catalog ready", "database_id", ids.Database, "requests_table", ids.Requests, "history_table", ids.History)
	fmt.Printf("moi:\n  database_id: %d\n  requests_table: %d\n  history_table: %d\n", ids.Database, ids.Requests, ids.History)
}
