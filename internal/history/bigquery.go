package history

import (
	"context"
	"fmt"
	"strings"

	cloudbigquery "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/angelmondragon/packfinderz-forecast/internal/forecast"
	pkgerrors "github.com/angelmondragon/packfinderz-forecast/pkg/errors"
	"github.com/angelmondragon/packfinderz-forecast/pkg/types"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// dailyProductSalesSQL aggregates order_created line items per day for one
// vendor product. Price is the mean unit price in currency units.
const dailyProductSalesSQL = `
SELECT
  FORMAT_DATE('%%F', day) AS day,
  SUM(qty) AS quantity,
  AVG(unit_price_cents) / 100 AS price
FROM (
  SELECT
    DATE(occurred_at) AS day,
    SAFE_CAST(JSON_VALUE(item, '$.qty') AS FLOAT64) AS qty,
    SAFE_CAST(JSON_VALUE(item, '$.unit_price_cents') AS FLOAT64) AS unit_price_cents
  FROM %s,
  UNNEST(JSON_EXTRACT_ARRAY(items)) AS item
  WHERE vendor_store_id = @storeID
    AND event_type = 'order_created'
    AND items IS NOT NULL
    AND JSON_VALUE(item, '$.product_id') = @productID%s
)
WHERE qty IS NOT NULL AND unit_price_cents IS NOT NULL
GROUP BY day
ORDER BY day DESC
LIMIT @limit
`

type dailySalesRow struct {
	Day      string                    `bigquery:"day"`
	Quantity cloudbigquery.NullFloat64 `bigquery:"quantity"`
	Price    cloudbigquery.NullFloat64 `bigquery:"price"`
}

type rowIterator interface {
	Next(dst any) error
}

type querier interface {
	Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (rowIterator, error)
}

// BigQueryProvider reads daily product demand from marketplace_events.
type BigQueryProvider struct {
	q        querier
	tableRef string
}

var _ forecast.HistoryProvider = (*BigQueryProvider)(nil)

// WarehouseClient is the subset of pkg/bigquery.Client the provider needs.
type WarehouseClient interface {
	Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (*cloudbigquery.RowIterator, error)
	TableRef() string
}

type clientQuerier struct {
	client WarehouseClient
}

func (c clientQuerier) Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (rowIterator, error) {
	return c.client.Query(ctx, sql, params)
}

func NewBigQueryProvider(client WarehouseClient) (*BigQueryProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	ref := client.TableRef()
	if ref == "" {
		return nil, fmt.Errorf("bigquery table reference required")
	}
	return &BigQueryProvider{q: clientQuerier{client: client}, tableRef: ref}, nil
}

func (p *BigQueryProvider) Fetch(ctx context.Context, productID string, ownerID uuid.UUID, window forecast.Window) ([]forecast.HistoricalObservation, error) {
	sql, params := p.buildQuery(strings.TrimSpace(productID), ownerID, window)

	iter, err := p.q.Query(ctx, sql, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "query daily product sales")
	}

	var out []forecast.HistoricalObservation
	for {
		var row dailySalesRow
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read daily product sales row")
		}
		day, err := types.ParseDate(row.Day)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse daily product sales row")
		}
		out = append(out, forecast.HistoricalObservation{
			Date:     day,
			Quantity: row.Quantity.Float64,
			Price:    row.Price.Float64,
		})
	}
	return out, nil
}

// buildQuery binds the window as civil dates so BigQuery types them DATE and
// they compare against DATE(occurred_at).
func (p *BigQueryProvider) buildQuery(productID string, ownerID uuid.UUID, window forecast.Window) (string, []cloudbigquery.QueryParameter) {
	params := []cloudbigquery.QueryParameter{
		{Name: "storeID", Value: ownerID.String()},
		{Name: "productID", Value: productID},
		{Name: "limit", Value: forecast.MaxObservations},
	}
	var extra strings.Builder
	if window.From != nil {
		extra.WriteString("\n    AND DATE(occurred_at) >= @dateFrom")
		params = append(params, cloudbigquery.QueryParameter{Name: "dateFrom", Value: civil.DateOf(window.From.Time())})
	}
	if window.To != nil {
		extra.WriteString("\n    AND DATE(occurred_at) <= @dateTo")
		params = append(params, cloudbigquery.QueryParameter{Name: "dateTo", Value: civil.DateOf(window.To.Time())})
	}
	return fmt.Sprintf(dailyProductSalesSQL, p.tableRef, extra.String()), params
}
