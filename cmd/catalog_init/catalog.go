package main

import (
	"context"
	"fmt"
	"strings"

	"decom/internal/logger"
	"decom/internal/service"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

const (
	requestsTable = "decom_requests"
	historyTable  = "decom_request_history"
)

var catalogTables = []struct {
	name    string
	comment string
	columns []sdk.Column
}{
	{requestsTable, "Solicitudes de material de los comités", []sdk.Column{
		{Name: "id", Type: "INT", IsPk: true, Comment: "identificador de la solicitud"},
		{Name: "committee_id", Type: "INT", Comment: "comité solicitante"},
		{Name: "event_name", Type: "VARCHAR(150)", Comment: "nombre del evento"},
		{Name: "event_date", Type: "DATE", Comment: "fecha del evento"},
		{Name: "material_type", Type: "VARCHAR(20)", Comment: "flyer, banner, video, social u other"},
		{Name: "status", Type: "VARCHAR(30)", Comment: "estado actual de la solicitud"},
		{Name: "priority_score", Type: "INT", Comment: "prioridad al momento de la exportación: 1, 5 o 10"},
		{Name: "planning_start_date", Type: "DATE", Comment: "inicio de planeación, siete días antes del evento"},
		{Name: "delivery_date", Type: "DATE", Comment: "entrega, dos días antes del evento"},
		{Name: "visible", Type: "BOOL", Comment: "visible en el calendario público"},
		{Name: "archived", Type: "BOOL", Comment: "archivada por un administrador"},
		{Name: "updated_at", Type: "DATETIME", Comment: "última modificación"},
	}},
	{historyTable, "Historial de cambios de estado", []sdk.Column{
		{Name: "id", Type: "INT", IsPk: true, Comment: "identificador del cambio"},
		{Name: "request_id", Type: "INT", Comment: "relaciona decom_requests.id"},
		{Name: "old_status", Type: "VARCHAR(30)", Comment: "estado anterior, vacío al crear"},
		{Name: "new_status", Type: "VARCHAR(30)", Comment: "estado nuevo"},
		{Name: "reason", Type: "VARCHAR(500)", Comment: "motivo del cambio"},
		{Name: "actor_name", Type: "VARCHAR(100)", Comment: "quién hizo el cambio"},
		{Name: "created_at", Type: "DATETIME", Comment: "momento del cambio"},
	}},
}

func initCatalog(ctx context.Context, client *sdk.RawClient, catalogID sdk.CatalogID, dbName string) (service.CatalogTables, error) {
	var ids service.CatalogTables

	dbResp, err := client.CreateDatabase(ctx, &sdk.DatabaseCreateRequest{
		CatalogID:    catalogID,
		DatabaseName: dbName,
		Comment:      "DECOM solicitudes de diseño",
	})
	switch {
	case err == nil:
		ids.Database = dbResp.DatabaseID
		logger.Info("catalog: database created", "id", ids.Database)
	case isDuplicate(err):
		logger.Info("catalog: database already exists, discovering ID", "name", dbName)
		if ids.Database, err = discoverDatabaseID(ctx, client, catalogID, dbName); err != nil {
			return ids, err
		}
	default:
		return ids, fmt.Errorf("create database: %w", err)
	}

	for _, t := range catalogTables {
		resp, err := client.CreateTable(ctx, &sdk.TableCreateRequest{
			DatabaseID: ids.Database,
			Name:       t.name,
			Columns:    t.columns,
			Comment:    t.comment,
		})
		if err != nil {
			if isDuplicate(err) {
				logger.Warn("catalog: table already exists, keep its id from the previous run", "name", t.name)
				continue
			}
			return ids, fmt.Errorf("create table %s: %w", t.name, err)
		}
		logger.Info("catalog: table created", "name", t.name, "id", resp.TableID)
		switch t.name {
		case requestsTable:
			ids.Requests = resp.TableID
		case historyTable:
			ids.History = resp.TableID
		}
	}
	return ids, nil
}

func discoverDatabaseID(ctx context.Context, client *sdk.RawClient, catalogID sdk.CatalogID, dbName string) (sdk.DatabaseID, error) {
	resp, err := client.ListDatabases(ctx, &sdk.DatabaseListRequest{CatalogID: catalogID})
	if err != nil {
		return 0, fmt.Errorf("list databases: %w", err)
	}
	for _, db := range resp.List {
		if db.DatabaseName == dbName {
			logger.Info("catalog: database discovered", "id", db.DatabaseID)
			return db.DatabaseID, nil
		}
	}
	return 0, fmt.Errorf("database %s not found in catalog %d", dbName, catalogID)
}

func isDuplicate(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate") || strings.Contains(s, "already exist") || strings.Contains(s, "conflict")
}
