package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"decom/internal/metrics"
	"decom/internal/model"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

// CatalogTables identifies the MatrixOne catalog targets created by cmd/catalog_init.
type CatalogTables struct {
	Database sdk.DatabaseID
	Requests sdk.TableID
	History  sdk.TableID
}

// CatalogSync mirrors requests and their history into the reporting catalog
// so the office can query them with Data Asking.
type CatalogSync struct {
	raw    *sdk.RawClient
	sdk    *sdk.SDKClient
	tables CatalogTables
}

func NewCatalogSync(raw *sdk.RawClient, tables CatalogTables) *CatalogSync {
	s := &CatalogSync{raw: raw, tables: tables}
	if raw != nil {
		s.sdk = sdk.NewSDKClient(raw)
	}
	return s
}

func (s *CatalogSync) Ready() bool {
	return s != nil && s.raw != nil && s.tables.Database != 0
}

var requestColumns = []string{
	"id", "committee_id", "event_name", "event_date", "material_type", "status",
	"priority_score", "planning_start_date", "delivery_date", "visible", "archived", "updated_at",
}

var historyColumns = []string{
	"id", "request_id", "old_status", "new_status", "reason", "actor_name", "created_at",
}

func (s *CatalogSync) SyncRequest(ctx context.Context, r model.Request) {
	if !s.Ready() || s.tables.Requests == 0 {
		return
	}
	s.importCSV(ctx, s.tables.Requests, requestRow(r), fmt.Sprintf("request_%d.csv", r.ID), mapping(requestColumns))
}

func (s *CatalogSync) SyncHistory(ctx context.Context, h model.RequestHistory) {
	if !s.Ready() || s.tables.History == 0 {
		return
	}
	s.importCSV(ctx, s.tables.History, historyRow(h), fmt.Sprintf("history_%d.csv", h.ID), mapping(historyColumns))
}

func requestRow(r model.Request) string {
	return strings.Join([]string{
		strconv.FormatUint(uint64(r.ID), 10),
		strconv.FormatUint(uint64(r.CommitteeID), 10),
		esc(r.EventName),
		r.EventDate.String(),
		r.MaterialType,
		esc(r.Status),
		strconv.Itoa(r.PriorityScore),
		r.PlanningStartDate.String(),
		r.DeliveryDate.String(),
		strconv.FormatBool(r.Visible),
		strconv.FormatBool(r.Archived()),
		r.UpdatedAt.Format(time.DateTime),
	}, ",") + "\n"
}

func historyRow(h model.RequestHistory) string {
	old := ""
	if h.OldStatus != nil {
		old = *h.OldStatus
	}
	return strings.Join([]string{
		strconv.FormatUint(uint64(h.ID), 10),
		strconv.FormatUint(uint64(h.RequestID), 10),
		esc(old),
		esc(h.NewStatus),
		esc(h.Reason),
		esc(h.ActorName),
		h.CreatedAt.Format(time.DateTime),
	}, ",") + "\n"
}

func mapping(columns []string) []sdk.FileAndTableColumnMapping {
	out := make([]sdk.FileAndTableColumnMapping, len(columns))
	for i, c := range columns {
		out[i] = sdk.FileAndTableColumnMapping{TableColumn: c, Column: c, ColNumInFile: int32(i + 1)}
	}
	return out
}

func (s *CatalogSync) importCSV(ctx context.Context, tableID sdk.TableID, csv, fileName string, cols []sdk.FileAndTableColumnMapping) {
	table := strconv.FormatInt(int64(tableID), 10)
	resp, err := s.raw.UploadLocalFile(ctx, bytes.NewReader([]byte(csv)), fileName, []sdk.FileMeta{{Filename: fileName, Path: "/"}})
	if err != nil {
		slog.Warn("catalog sync: upload failed", "table", tableID, "err", err)
		metrics.CatalogSyncFailed(table)
		return
	}
	if len(resp.ConnFileIds) == 0 {
		slog.Warn("catalog sync: no conn_file_ids", "table", tableID)
		metrics.CatalogSyncFailed(table)
		return
	}

	_, err = s.sdk.ImportLocalFileToTable(ctx, &sdk.TableConfig{
		ConnFileIDs:      resp.ConnFileIds,
		NewTable:         false,
		DatabaseID:       s.tables.Database,
		TableID:          tableID,
		IsColumnName:     false,
		RowStart:         1,
		Conflict:         1,
		ExistedTable:     cols,
		ExistedTableOpts: sdk.ExistedTableOptions{Method: sdk.ExistedTableOptionAppend},
	})
	if err != nil {
		slog.Warn("catalog sync: import failed", "table", tableID, "err", err)
		metrics.CatalogSyncFailed(table)
		return
	}
	slog.Info("catalog sync: ok", "table", tableID, "file", fileName)
}

func esc(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
