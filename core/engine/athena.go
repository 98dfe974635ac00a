package engine

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

// athenaAPI is the subset of the Athena SDK client used by AthenaClient.
// It exists so the client can be tested against a fake.
type athenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

// AthenaClient implements Client on Amazon Athena.
type AthenaClient struct {
	api            athenaAPI
	schema         string
	resultLocation string
}

// NewAthenaClient initializes an Athena-backed engine client. Static
// credentials are used when configured, otherwise the default AWS
// credential chain applies.
func NewAthenaClient(ctx context.Context, cfg Config) (*AthenaClient, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &AthenaClient{
		api:            athena.NewFromConfig(awsCfg),
		schema:         cfg.Schema,
		resultLocation: cfg.ResultLocation,
	}, nil
}

// Submit starts a query execution and returns its execution ID as handle.
func (c *AthenaClient) Submit(ctx context.Context, sql string) (string, error) {
	out, err := c.api.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(sql),
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: aws.String(c.schema),
		},
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(c.resultLocation),
		},
	})
	if err != nil {
		return "", fmt.Errorf("start query execution: %w", err)
	}
	return aws.ToString(out.QueryExecutionId), nil
}

// Poll reports the execution status of a query.
func (c *AthenaClient) Poll(ctx context.Context, handle string) (QueryStatus, error) {
	out, err := c.api.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(handle),
	})
	if err != nil {
		return QueryStatus{}, fmt.Errorf("get query execution: %w", err)
	}
	if out.QueryExecution == nil || out.QueryExecution.Status == nil {
		return QueryStatus{}, fmt.Errorf("query %s: engine returned no status", handle)
	}

	status := out.QueryExecution.Status
	switch status.State {
	case types.QueryExecutionStateSucceeded:
		return QueryStatus{State: StatusSucceeded}, nil
	case types.QueryExecutionStateFailed:
		return QueryStatus{State: StatusFailed, Reason: aws.ToString(status.StateChangeReason)}, nil
	case types.QueryExecutionStateCancelled:
		return QueryStatus{State: StatusCancelled, Reason: aws.ToString(status.StateChangeReason)}, nil
	default:
		// QUEUED and RUNNING both map to running.
		return QueryStatus{State: StatusRunning}, nil
	}
}

// Fetch pages through the query results, invoking fn for each data row.
// Athena prepends a header row with the column labels to the first page of
// SELECT results; it is skipped.
func (c *AthenaClient) Fetch(ctx context.Context, handle string, fn func(row []string) error) error {
	var token *string
	first := true
	for {
		out, err := c.api.GetQueryResults(ctx, &athena.GetQueryResultsInput{
			QueryExecutionId: aws.String(handle),
			NextToken:        token,
		})
		if err != nil {
			return fmt.Errorf("get query results: %w", err)
		}
		if out.ResultSet == nil {
			return nil
		}

		rows := out.ResultSet.Rows
		if first && len(rows) > 0 {
			rows = rows[1:]
			first = false
		}

		for _, r := range rows {
			row := make([]string, 0, len(r.Data))
			for _, d := range r.Data {
				row = append(row, aws.ToString(d.VarCharValue))
			}
			if err := fn(row); err != nil {
				return err
			}
		}

		if out.NextToken == nil {
			return nil
		}
		token = out.NextToken
	}
}
