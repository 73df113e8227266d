package bigquery

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/agrigate/agrigate/internal/warehouse"
)

const readOnlyScope = "https://www.googleapis.com/auth/bigquery.readonly"

// The statement is fixed. Identifiers are validated before being spliced
// into the backticked path; all host inputs travel as bound parameters.
const retrievalStatement = "SELECT *\n" +
	"FROM `%s`\n" +
	"WHERE crop = @crop\n" +
	"  AND region = @region\n" +
	"  AND date >= @start_date\n" +
	"  AND date <= @end_date\n" +
	"ORDER BY date"

type Config struct {
	CredentialsFile string
	Project         string
}

type Client struct {
	bq *bigquery.Client
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	client, err := bigquery.NewClient(ctx, cfg.Project,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(readOnlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	return &Client{bq: client}, nil
}

func (c *Client) Execute(ctx context.Context, request warehouse.Request) (warehouse.Result, error) {
	start := time.Now()

	if err := request.Target.Validate(); err != nil {
		return warehouse.Result{}, err
	}
	params, err := buildParameters(request.Filter)
	if err != nil {
		return warehouse.Result{}, err
	}

	query := c.bq.Query(buildStatement(request.Target))
	query.Parameters = params

	it, err := query.Read(ctx)
	if err != nil {
		return warehouse.Result{}, fmt.Errorf("run retrieval query: %w", err)
	}

	rows := make([][]any, 0)
	for {
		var values []bigquery.Value
		err := it.Next(&values)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return warehouse.Result{}, fmt.Errorf("iterate query rows: %w", err)
		}
		row := make([]any, len(values))
		for i, value := range values {
			row[i] = normalizeValue(value)
		}
		rows = append(rows, row)
	}

	columns := make([]string, 0, len(it.Schema))
	for _, field := range it.Schema {
		columns = append(columns, field.Name)
	}

	return warehouse.Result{
		Table:    warehouse.Table{Columns: columns, Rows: rows},
		Duration: time.Since(start),
	}, nil
}

func (c *Client) Close() error {
	return c.bq.Close()
}

func buildStatement(target warehouse.TableRef) string {
	return fmt.Sprintf(retrievalStatement, target)
}

func buildParameters(filter warehouse.Filter) ([]bigquery.QueryParameter, error) {
	startDate, err := civil.ParseDate(filter.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD: %w", filter.StartDate, err)
	}
	endDate, err := civil.ParseDate(filter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD: %w", filter.EndDate, err)
	}
	return []bigquery.QueryParameter{
		{Name: "crop", Value: filter.Crop},
		{Name: "region", Value: filter.Region},
		{Name: "start_date", Value: startDate},
		{Name: "end_date", Value: endDate},
	}, nil
}

// normalizeValue flattens BigQuery SDK types into JSON-friendly values so
// rows serialize the same regardless of backend.
func normalizeValue(value bigquery.Value) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case civil.Date:
		return v.String()
	case civil.Time:
		return v.String()
	case civil.DateTime:
		return v.String()
	case *big.Rat:
		return v.FloatString(9)
	default:
		return v
	}
}
