package main

import (
	"context"

	"decom/internal/logger"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

var knowledge = []sdk.NL2SQLKnowledgeCreateRequest{
	{Type: "glossary", Key: "solicitud", Value: []string{"registro de decom_requests: un pedido de material de diseño hecho por un comité para un evento"}},
	{Type: "glossary", Key: "prioridad", Value: []string{"decom_requests.priority_score: 10 alta (dos días o menos al evento), 5 media (hasta siete días), 1 baja"}},
	{Type: "glossary", Key: "archivada", Value: []string{"decom_requests.archived = true; no cuenta en los reportes normales"}},

	{Type: "synonyms", Key: "evento/actividad/culto", Value: []string{"nombre del evento"}, AssociateTables: []string{requestsTable + ",event_name"}},
	{Type: "synonyms", Key: "fecha/día/cuándo", Value: []string{"fecha del evento"}, AssociateTables: []string{requestsTable + ",event_date"}},
	{Type: "synonyms", Key: "estado/avance/etapa", Value: []string{"estado de la solicitud"}, AssociateTables: []string{requestsTable + ",status"}},
	{Type: "synonyms", Key: "material/tipo/formato", Value: []string{"tipo de material"}, AssociateTables: []string{requestsTable + ",material_type"}},

	{Type: "logic", Key: "Los estados en orden son Pendiente, En planificación, En diseño, Lista para entrega y Entregada", Value: []string{"orden de estados"}},
	{Type: "logic", Key: "Excluir archived = true salvo que la pregunta pida solicitudes archivadas", Value: []string{"filtro de archivadas"}},
	{Type: "logic", Key: "Una solicitud está atrasada si event_date < CURDATE() y status <> 'Entregada'", Value: []string{"regla de atraso"}},

	{Type: "case_library", Key: "¿Cuántas solicitudes hay por estado?", Value: []string{"SELECT status, COUNT(*) FROM " + requestsTable + " WHERE archived = false GROUP BY status"}},
	{Type: "case_library", Key: "¿Qué entregas vencen esta semana?", Value: []string{"SELECT event_name, delivery_date FROM " + requestsTable + " WHERE archived = false AND status <> 'Entregada' AND delivery_date BETWEEN CURDATE() AND DATE_ADD(CURDATE(), INTERVAL 7 DAY) ORDER BY delivery_date"}},
	{Type: "case_library", Key: "¿Quién cambió más estados este mes?", Value: []string{"SELECT actor_name, COUNT(*) FROM " + historyTable + " WHERE old_status <> '' AND created_at >= DATE_FORMAT(CURDATE(), '%Y-%m-01') GROUP BY actor_name ORDER BY 2 DESC"}},
}

func initKnowledge(ctx context.Context, client *sdk.RawClient) error {
	for _, k := range knowledge {
		resp, err := client.CreateKnowledge(ctx, &k)
		if err != nil {
			if isDuplicate(err) {
				logger.Info("knowledge: already exists, skipping", "type", k.Type, "key", k.Key)
				continue
			}
			return err
		}
		logger.Info("knowledge: created", "type", k.Type, "key", k.Key, "id", resp.ID)
	}
	return nil
}
